package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"weather-lookup/internal/services"
)

const (
	DefaultBuffer      = 64
	DefaultSinkTimeout = 5 * time.Second
)

type subscriber interface {
	Subscribe(buffer int) (<-chan services.State, func())
}

type Option func(*StateWorker)

func WithLogger(l *slog.Logger) Option {
	return func(w *StateWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithBuffer(n int) Option {
	return func(w *StateWorker) {
		if n > 0 {
			w.buffer = n
		}
	}
}

// WithSinkTimeout bounds a single Handle call.
func WithSinkTimeout(d time.Duration) Option {
	return func(w *StateWorker) {
		if d > 0 {
			w.sinkTimeout = d
		}
	}
}

// StateWorker drains a store subscription and hands every state to its sinks
// in order. Sink errors are logged and never stop the loop.
type StateWorker struct {
	source      subscriber
	sinks       []Sink
	logger      *slog.Logger
	buffer      int
	sinkTimeout time.Duration

	done chan struct{}
	once sync.Once
}

func NewStateWorker(source subscriber, sinks []Sink, opts ...Option) *StateWorker {
	w := &StateWorker{
		source:      source,
		sinks:       sinks,
		logger:      slog.Default(),
		buffer:      DefaultBuffer,
		sinkTimeout: DefaultSinkTimeout,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start subscribes and returns immediately; the drain loop runs until ctx is
// done or the store closes the subscription.
func (w *StateWorker) Start(ctx context.Context) {
	states, unsubscribe := w.source.Subscribe(w.buffer)
	go func() {
		defer w.once.Do(func() { close(w.done) })
		defer unsubscribe()
		w.run(ctx, states)
	}()
}

// Done is closed once the drain loop has returned.
func (w *StateWorker) Done() <-chan struct{} {
	return w.done
}

func (w *StateWorker) run(ctx context.Context, states <-chan services.State) {
	names := make([]string, len(w.sinks))
	for i, s := range w.sinks {
		names[i] = s.Name()
	}
	w.logger.Info("state worker started", "sinks", names)

	for {
		select {
		case st, ok := <-states:
			if !ok {
				w.logger.Info("state worker stopped: subscription closed")
				return
			}
			w.dispatch(ctx, st)
		case <-ctx.Done():
			w.logger.Info("state worker stopped")
			return
		}
	}
}

func (w *StateWorker) dispatch(ctx context.Context, st services.State) {
	for _, sink := range w.sinks {
		sctx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		err := sink.Handle(sctx, st)
		cancel()
		if err != nil {
			w.logger.Error("sink failed",
				"sink", sink.Name(), "status", st.Status, "generation", st.Generation, "error", err)
		}
	}
}
