package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// GracefulShutdown waits for SIGINT or SIGTERM in the background and then
// runs Shutdown. The returned channel is closed once Shutdown has returned.
func GracefulShutdown(srv *http.Server, bundle *BootstrapBundle) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		slog.Info("shutting down gracefully")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		Shutdown(ctx, srv, bundle)
	}()
	return done
}

// Shutdown closes the store first, which ends open event streams, then drains
// the HTTP server, the state worker and finally the brokers.
func Shutdown(ctx context.Context, srv *http.Server, bundle *BootstrapBundle) {
	if bundle != nil {
		bundle.Service.Close()
	}
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}
	if bundle == nil {
		return
	}

	select {
	case <-bundle.Worker.Done():
	case <-ctx.Done():
		slog.Warn("state worker did not drain before deadline")
	}
	bundle.cancel()

	if bundle.Producer != nil {
		bundle.Producer.Close()
	}
	if bundle.Redis != nil {
		if err := bundle.Redis.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
}
