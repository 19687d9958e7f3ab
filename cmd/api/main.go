package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"migchat/internal/config"
	"migchat/internal/db"
	apihttp "migchat/internal/http"
	"migchat/internal/repository"
	"migchat/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	database, err := db.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	defer database.Close()

	userRepo := repository.NewSQLiteUserRepository(database)
	sessionRepo := repository.NewSQLiteSessionRepository(database)
	messageRepo := repository.NewSQLiteMessageRepository(database)
	keyRepo := repository.NewSQLiteKeyRepository(database)

	loginWindow := time.Duration(cfg.LoginWindowMinutes) * time.Minute
	loginLimiter := service.NewLoginRateLimiter(loginWindow, cfg.LoginMaxAttempts)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, loginWindow, cfg.LoginMaxAttempts)
		}
		cancel()
	}

	accountSvc := service.NewAccountService(logger, userRepo, sessionRepo, loginLimiter)
	authSvc := service.NewAuthService(sessionRepo)
	messagingSvc := service.NewMessagingService(logger, userRepo, messageRepo)

	accountHandler := apihttp.NewAccountHandler(logger, accountSvc)
	messageHandler := apihttp.NewMessageHandler(logger, messagingSvc)
	keyHandler := apihttp.NewKeyHandler(logger, keyRepo, userRepo)
	router := apihttp.NewRouter(logger, authSvc, accountHandler, messageHandler, keyHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
