package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"weather-lookup/internal/api"
	"weather-lookup/internal/models"
)

var ErrNoFetcher = errors.New("services: weather service requires a fetcher")

type Option func(*WeatherService)

func WithLogger(l *slog.Logger) Option {
	return func(s *WeatherService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFetchTimeout bounds every fetch sequence. Zero leaves it to the fetcher.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *WeatherService) { s.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *WeatherService) {
		if now != nil {
			s.now = now
		}
	}
}

// WeatherService owns the query key and the fetch status of the lookup
// widget. Every mutation goes through its methods and is broadcast to
// subscribers in order.
type WeatherService struct {
	fetcher Fetcher
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       State
	cancelFetch context.CancelFunc
	startedAt   time.Time
	subs        map[int]chan State
	nextSub     int
	closed      bool
}

func NewWeatherService(fetcher Fetcher, opts ...Option) (*WeatherService, error) {
	if fetcher == nil {
		return nil, ErrNoFetcher
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &WeatherService{
		fetcher: fetcher,
		logger:  slog.Default(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = State{Status: StatusIdle, UpdatedAt: s.now()}
	return s, nil
}

// SetQuery sets the query key. An empty city clears the key, returns to Idle
// and drops whatever fetch is still outstanding. A non-empty city starts a new
// fetch unless that same key is already loading or loaded.
func (s *WeatherService) SetQuery(city string) {
	city = strings.TrimSpace(city)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if city == "" {
		if s.state.Query == "" && s.state.Status == StatusIdle && s.cancelFetch == nil {
			return
		}
		s.stopFetchLocked()
		s.publishLocked(State{
			Status:     StatusIdle,
			Generation: s.state.Generation + 1,
			UpdatedAt:  s.now(),
		})
		return
	}

	if city == s.state.Query && (s.state.Status == StatusLoading || s.state.Status == StatusSuccess) {
		s.logger.Debug("query unchanged, skipping fetch", "city", city, "status", s.state.Status)
		return
	}

	s.stopFetchLocked()

	gen := s.state.Generation + 1
	var (
		fetchCtx context.Context
		cancel   context.CancelFunc
	)
	if s.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(s.ctx, s.timeout)
	} else {
		fetchCtx, cancel = context.WithCancel(s.ctx)
	}
	s.cancelFetch = cancel
	s.startedAt = s.now()

	s.publishLocked(State{
		Query:      city,
		Status:     StatusLoading,
		Generation: gen,
		UpdatedAt:  s.startedAt,
	})

	s.wg.Add(1)
	go s.fetch(fetchCtx, cancel, gen, city)
}

// Clear empties the result and the error but keeps the query key. A fetch
// that is still loading is left alone and may land afterwards.
func (s *WeatherService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.state.Forecast == nil && s.state.Err == "" && !s.state.Status.Terminal() {
		return
	}

	next := s.state
	next.Forecast = nil
	next.Err = ""
	if next.Status.Terminal() {
		next.Status = StatusIdle
		next.FetchDuration = 0
	}
	next.UpdatedAt = s.now()
	s.publishLocked(next)
}

func (s *WeatherService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that first receives the current state and then
// every transition in order. When the buffer is full an update is dropped for
// that subscriber only. The returned func unsubscribes and closes the channel.
func (s *WeatherService) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Wait blocks until no fetch goroutine is running.
func (s *WeatherService) Wait() {
	s.wg.Wait()
}

// Close cancels outstanding fetches, closes every subscription and waits
// for the fetch goroutines to return.
func (s *WeatherService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *WeatherService) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, city string) {
	defer s.wg.Done()
	defer cancel()

	forecast, err := s.fetcher.FetchForecast(ctx, city)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.state.Generation {
		s.logger.Debug("discarding stale forecast response",
			"city", city, "generation", gen, "current", s.state.Generation)
		return
	}
	s.cancelFetch = nil

	now := s.now()
	next := State{
		Query:         city,
		Generation:    gen,
		UpdatedAt:     now,
		FetchDuration: now.Sub(s.startedAt),
	}
	if err != nil {
		s.logger.Warn("weather fetch failed", "city", city, "error", err)
		next.Status = StatusFailed
		next.Err = failureMessage(err)
	} else {
		if forecast == nil {
			forecast = &models.Forecast{}
		}
		s.logger.Info("weather fetched", "city", city, "address", forecast.Address, "days", len(forecast.Days))
		next.Status = StatusSuccess
		next.Forecast = forecast
	}
	s.publishLocked(next)
}

func (s *WeatherService) stopFetchLocked() {
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
}

func (s *WeatherService) publishLocked(next State) {
	s.state = next
	for id, ch := range s.subs {
		select {
		case ch <- next:
		default:
			s.logger.Warn("subscriber buffer full, dropping state update",
				"subscriber", id, "status", next.Status, "generation", next.Generation)
		}
	}
}

func failureMessage(err error) string {
	var fe *api.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return api.FetchFailedMessage
}
