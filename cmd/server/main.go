package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/CTNMhh/mpoint/internal/broker"
	"github.com/CTNMhh/mpoint/internal/config"
	"github.com/CTNMhh/mpoint/internal/database"
	"github.com/CTNMhh/mpoint/internal/logging"
	postgresrepo "github.com/CTNMhh/mpoint/internal/repository/postgres"
	"github.com/CTNMhh/mpoint/internal/service"
	"github.com/CTNMhh/mpoint/internal/transport/http/handlers"
	"github.com/CTNMhh/mpoint/internal/transport/http/middleware"
	"github.com/CTNMhh/mpoint/internal/transport/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("database connect", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Broker: in-process by default, Redis when fan-out must cross instances.
	metrics := broker.NewMetrics(prometheus.DefaultRegisterer)
	var b broker.Broker
	switch cfg.BrokerBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		b = broker.NewRedis(rdb, logger, metrics)
		logger.Info("using redis broker", zap.String("addr", cfg.RedisURL))
	default:
		b = broker.NewMemory(metrics)
		logger.Info("using in-memory broker")
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	companyRepo := postgresrepo.NewCompanyRepo(pool)
	matchRepo := postgresrepo.NewMatchRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Services
	chatService := service.NewChatService(messageRepo, matchRepo, userRepo, companyRepo, b, logger)
	conversationService := service.NewConversationService(messageRepo, matchRepo, userRepo, companyRepo, logger)

	// Notification hub
	hub := ws.NewHub(logger)
	go hub.Run()
	chatService.SetNotifier(ws.NewHubNotifier(hub, logger))

	// Handlers
	chatHandler := handlers.NewChatHandler(chatService, logger)
	conversationHandler := handlers.NewConversationHandler(conversationService, logger)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret, logger))

	// Protected - Conversations
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(conversationHandler.List)))

	// Protected - Chat
	mux.Handle("POST /api/v1/chat/send", auth(http.HandlerFunc(chatHandler.Send)))
	mux.Handle("GET /api/v1/chat/history", auth(http.HandlerFunc(chatHandler.History)))
	mux.Handle("GET /api/v1/chat/stream", auth(http.HandlerFunc(chatHandler.Stream)))
	mux.Handle("GET /api/v1/chat/user-summary", auth(http.HandlerFunc(chatHandler.UserSummary)))

	// Start server with CORS. No write timeout: the stream endpoint holds
	// its connection open indefinitely.
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
