package metrics

import (
	"context"
	"net/http"
	"sync"

	"weather-lookup/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnmatchedRoute labels requests that no route matched.
const UnmatchedRoute = "unmatched"

// Recorder counts store transitions and HTTP requests on its own registry.
type Recorder struct {
	mu   sync.Mutex
	last services.State
	seen bool

	registry      *prometheus.Registry
	transitions   *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	requests      *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_state_transitions_total",
				Help: "Store transitions by resulting status.",
			},
			[]string{"status"},
		),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weather_fetch_duration_seconds",
			Help:    "Time from SetQuery to a success or failure.",
			Buckets: prometheus.DefBuckets,
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_http_requests_total",
				Help: "Total requests by route and method.",
			},
			[]string{"route", "method"},
		),
	}
	r.registry.MustRegister(
		r.transitions,
		r.fetchDuration,
		r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Name() string {
	return "metrics"
}

// Handle records st when it differs from the previous state in status or
// generation. The first state seen is the baseline and is not counted. It
// never fails.
func (r *Recorder) Handle(_ context.Context, st services.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.seen {
		r.seen = true
		r.last = st
		return nil
	}
	if st.Status == r.last.Status && st.Generation == r.last.Generation {
		return nil
	}
	r.last = st

	r.transitions.WithLabelValues(st.Status.String()).Inc()
	if st.Status.Terminal() && st.FetchDuration > 0 {
		r.fetchDuration.Observe(st.FetchDuration.Seconds())
	}
	return nil
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by their chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		next.ServeHTTP(w, req)

		route := UnmatchedRoute
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		r.requests.WithLabelValues(route, req.Method).Inc()
	})
}
