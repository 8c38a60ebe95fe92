package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	WeatherAPIKey     string
	WeatherAPIBaseURL string
	FetchTimeout      time.Duration
	CarouselLoop      bool
	RedisURL          string
	StateChannel      string
	KafkaBrokers      []string
	LookupTopic       string
	LookupGroup       string
	LogLevel          slog.Level
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not loaded (ok for prod)")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		WeatherAPIKey:     os.Getenv("WEATHER_API_KEY"),
		WeatherAPIBaseURL: os.Getenv("WEATHER_API_BASE_URL"),
		FetchTimeout:      getEnvDuration("WEATHER_FETCH_TIMEOUT", 10*time.Second),
		CarouselLoop:      getEnvBool("CAROUSEL_LOOP", true),
		RedisURL:          os.Getenv("REDIS_URL"),
		StateChannel:      getEnv("REDIS_STATE_CHANNEL", "weather:state"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		LookupTopic:       getEnv("LOOKUP_KAFKA_TOPIC", "weather-lookups"),
		LookupGroup:       getEnv("LOOKUP_CONSUMER_GROUP", "weather-lookup-events"),
		LogLevel:          parseLevel(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.WeatherAPIKey == "" {
		slog.Warn("WEATHER_API_KEY is not set; every lookup will fail")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(v string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
