package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"weather-lookup/internal/api"
	"weather-lookup/internal/config"
	"weather-lookup/internal/handlers"
	"weather-lookup/internal/kafka"
	"weather-lookup/internal/messaging"
	"weather-lookup/internal/metrics"
	"weather-lookup/internal/services"
	"weather-lookup/internal/view"
	"weather-lookup/internal/workers"

	"github.com/redis/go-redis/v9"
)

type BootstrapBundle struct {
	Service        *services.WeatherService
	WeatherHandler *handlers.WeatherHandler
	Metrics        *metrics.Recorder
	Worker         *workers.StateWorker

	Redis    *redis.Client
	Producer *kafka.Producer

	cancel context.CancelFunc
}

// InitBootstrap wires the store, its sinks and the HTTP handler. redisClient
// and producer are optional; a nil one leaves its sink out.
func InitBootstrap(cfg *config.Config, fetcher services.Fetcher, redisClient *redis.Client, producer *kafka.Producer, logger *slog.Logger) (*BootstrapBundle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fetcher == nil {
		fetcher = api.NewClient(cfg.WeatherAPIKey,
			api.WithBaseURL(cfg.WeatherAPIBaseURL),
			api.WithTimeout(cfg.FetchTimeout),
		)
	}

	service, err := services.NewWeatherService(fetcher,
		services.WithLogger(logger.With("component", "store")),
		services.WithFetchTimeout(cfg.FetchTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("init weather service: %w", err)
	}

	weatherHandler, err := handlers.NewWeatherHandler(service, view.NewCarousel(cfg.CarouselLoop), logger.With("component", "http"))
	if err != nil {
		service.Close()
		return nil, fmt.Errorf("init weather handler: %w", err)
	}

	recorder := metrics.NewRecorder()
	sinks := []workers.Sink{recorder}
	if redisClient != nil {
		sinks = append(sinks, messaging.NewStatePublisher(redisClient, cfg.StateChannel))
	}
	if producer != nil {
		sinks = append(sinks, kafka.NewLookupPublisher(producer))
	}

	ctx, cancel := context.WithCancel(context.Background())
	worker := workers.NewStateWorker(service, sinks, workers.WithLogger(logger.With("component", "worker")))
	worker.Start(ctx)

	return &BootstrapBundle{
		Service:        service,
		WeatherHandler: weatherHandler,
		Metrics:        recorder,
		Worker:         worker,
		Redis:          redisClient,
		Producer:       producer,
		cancel:         cancel,
	}, nil
}
