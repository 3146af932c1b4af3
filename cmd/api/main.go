package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"jobtrail/internal/api"
	"jobtrail/internal/auth"
	"jobtrail/internal/config"
	"jobtrail/internal/database"
	"jobtrail/internal/llm"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	if err := db.AutoMigrate(
		&database.User{},
		&database.Profile{},
		&database.Application{},
		&database.Document{},
	); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Printf("database migrated")

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}
	log.Printf("redis connection ready, addr=%s", redisAddr)

	sessionService := auth.NewSessionService(redisClient, cfg.Session.TTL())
	stateSigner, err := auth.NewStateSigner(cfg.Google.StateSecret)
	if err != nil {
		log.Fatalf("init state signer: %v", err)
	}
	googleClient := auth.NewGoogleClient(cfg.Google)
	llmClient := llm.NewClient(cfg.LLM)

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, db, sessionService, googleClient, stateSigner, llmClient, logger, cfg.Frontend.URL)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	log.Printf("api listening on %s", address)

	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
