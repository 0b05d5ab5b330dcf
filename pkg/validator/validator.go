package validator

import (
	"strings"
	"unicode/utf8"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const maxMessageRunes = 4000

func ValidateMessage(content string) ValidationErrors {
	errs := make(ValidationErrors)

	content = strings.TrimSpace(content)
	if content == "" {
		errs.Add("content", "Message content is required")
	} else if utf8.RuneCountInString(content) > maxMessageRunes {
		errs.Add("content", "Message is too long")
	}

	return errs
}
