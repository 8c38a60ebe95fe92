package workers

import (
	"context"

	"weather-lookup/internal/services"
)

// Sink receives every store state the worker drains.
type Sink interface {
	Name() string
	Handle(ctx context.Context, st services.State) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, st services.State) error
}

func (f SinkFunc) Name() string {
	return f.SinkName
}

func (f SinkFunc) Handle(ctx context.Context, st services.State) error {
	return f.Fn(ctx, st)
}
