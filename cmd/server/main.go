package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"weather-lookup/internal/bootstrap"
	"weather-lookup/internal/config"
	"weather-lookup/internal/db"
	"weather-lookup/internal/kafka"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// ------------------------
	// Redis (optional)
	// ------------------------
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		rdb, err := db.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			slog.Warn("redis disabled", "error", err)
		} else {
			redisClient = rdb
		}
	}

	// ------------------------
	// Kafka (optional)
	// ------------------------
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.LookupTopic)
		if err != nil {
			slog.Warn("kafka lookup events disabled", "error", err)
		} else {
			producer = p
		}
	}

	// ------------------------
	// Store + Handlers
	// ------------------------
	bundle, err := bootstrap.InitBootstrap(cfg, nil, redisClient, producer, logger)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	// ------------------------
	// Server
	// ------------------------
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           bootstrap.InitRoutes(bundle.WeatherHandler, bundle.Metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}
	stopped := bootstrap.GracefulShutdown(srv, bundle)

	slog.Info("server started", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	<-stopped
	slog.Info("server stopped")
}
