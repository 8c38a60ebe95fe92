package services

import (
	"context"

	"weather-lookup/internal/models"
)

// Fetcher resolves one city into a forecast. *api.Client implements it.
type Fetcher interface {
	FetchForecast(ctx context.Context, city string) (*models.Forecast, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, city string) (*models.Forecast, error)

func (f FetcherFunc) FetchForecast(ctx context.Context, city string) (*models.Forecast, error) {
	return f(ctx, city)
}
