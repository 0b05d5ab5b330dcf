package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectChannelIsOrderIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ab := DirectChannel(a, b)
	ba := DirectChannel(b, a)

	assert.Equal(t, ab, ba)
	assert.Equal(t, ab.Key(), ba.Key())
	assert.Equal(t, ChannelKindDirect, ab.Kind)
	assert.True(t, ab.UserLow.String() < ab.UserHigh.String())
}

func TestMatchChannelKey(t *testing.T) {
	id := uuid.New()
	ch := MatchChannel(id)

	assert.Equal(t, ChannelKindMatch, ch.Kind)
	require.NotNil(t, ch.MatchID)
	assert.Equal(t, "match:"+id.String(), ch.Key())
}

func TestChannelKeysNeverCollide(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	direct := DirectChannel(a, b)
	match := MatchChannel(a)

	assert.NotEqual(t, direct.Key(), match.Key())
}

func TestPlaceholderCompanyIDIsStable(t *testing.T) {
	user := uuid.New()

	first := PlaceholderCompanyID(user)
	second := PlaceholderCompanyID(user)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, PlaceholderCompanyID(uuid.New()))
}
