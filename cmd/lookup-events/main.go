package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"weather-lookup/internal/config"
	"weather-lookup/internal/db"
	"weather-lookup/internal/kafka"
	"weather-lookup/internal/messaging"
	"weather-lookup/internal/services"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if len(cfg.KafkaBrokers) == 0 && cfg.RedisURL == "" {
		log.Fatal("nothing to follow: set KAFKA_BROKERS and/or REDIS_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.LookupTopic, cfg.LookupGroup)
		if err != nil {
			log.Fatalf("kafka consumer: %v", err)
		}
		defer consumer.Stop()

		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(ctx, logLookupEvent)
		}()
	}

	if cfg.RedisURL != "" {
		rdb, err := db.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := messaging.Follow(ctx, rdb, cfg.StateChannel, logState); err != nil {
				slog.Error("state follow stopped", "error", err)
			}
		}()
	}

	wg.Wait()
	slog.Info("lookup-events stopped")
}

func logLookupEvent(key, value []byte) {
	var ev kafka.LookupEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		slog.Warn("invalid lookup event", "key", string(key), "error", err)
		return
	}
	slog.Info("lookup",
		"id", ev.ID,
		"query", ev.Query,
		"status", ev.Status,
		"address", ev.Address,
		"days", ev.Days,
		"error", ev.Error,
		"duration_ms", ev.DurationMS,
		"occurred_at", ev.OccurredAt,
	)
}

func logState(st services.State) {
	slog.Info("state",
		"query", st.Query,
		"status", st.Status,
		"generation", st.Generation,
		"error", st.Err,
	)
}
