package bootstrap

import (
	"net/http"

	"weather-lookup/internal/handlers"
	"weather-lookup/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func InitRoutes(weatherHandler *handlers.WeatherHandler, recorder *metrics.Recorder) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	if recorder != nil {
		r.Use(recorder.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if recorder != nil {
		r.Handle("/metrics", recorder.Handler())
	}

	r.Get("/", weatherHandler.Index)
	r.Post("/search", weatherHandler.Search)
	r.Post("/clear", weatherHandler.Clear)
	r.Route("/carousel", func(r chi.Router) {
		r.Post("/next", weatherHandler.Next)
		r.Post("/prev", weatherHandler.Prev)
		r.Post("/{idx}", weatherHandler.MoveTo)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/forecast", weatherHandler.GetState)
		r.Post("/forecast/query", weatherHandler.SetQuery)
		r.Delete("/forecast/query", weatherHandler.DeleteQuery)
		r.Post("/forecast/clear", weatherHandler.ClearResult)
		r.Get("/forecast/events", weatherHandler.Events)
	})

	return r
}
