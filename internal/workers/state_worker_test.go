package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"weather-lookup/internal/models"
	"weather-lookup/internal/services"
)

type fakeSource struct {
	ch           chan services.State
	unsubscribed chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan services.State, 8), unsubscribed: make(chan struct{})}
}

func (f *fakeSource) Subscribe(int) (<-chan services.State, func()) {
	var once sync.Once
	return f.ch, func() { once.Do(func() { close(f.unsubscribed) }) }
}

type recordingSink struct {
	name string
	err  error

	mu     sync.Mutex
	states []services.State
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Handle(_ context.Context, st services.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, st)
	return s.err
}

func (s *recordingSink) snapshot() []services.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]services.State(nil), s.states...)
}

func waitDone(t *testing.T, w *StateWorker) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStateWorker_DispatchesInOrderToAllSinks(t *testing.T) {
	src := newFakeSource()
	failing := &recordingSink{name: "failing", err: errors.New("broker down")}
	ok := &recordingSink{name: "ok"}

	w := NewStateWorker(src, []Sink{failing, ok})
	w.Start(context.Background())

	src.ch <- services.State{Status: services.StatusLoading, Query: "Paris", Generation: 1}
	src.ch <- services.State{Status: services.StatusSuccess, Query: "Paris", Generation: 1}
	close(src.ch)
	waitDone(t, w)

	for _, sink := range []*recordingSink{failing, ok} {
		got := sink.snapshot()
		if len(got) != 2 {
			t.Fatalf("%s: expected 2 states, got %d", sink.name, len(got))
		}
		if got[0].Status != services.StatusLoading || got[1].Status != services.StatusSuccess {
			t.Fatalf("%s: unexpected order %v, %v", sink.name, got[0].Status, got[1].Status)
		}
	}

	select {
	case <-src.unsubscribed:
	default:
		t.Fatal("worker did not unsubscribe")
	}
}

func TestStateWorker_StopsOnContextCancel(t *testing.T) {
	src := newFakeSource()
	ctx, cancel := context.WithCancel(context.Background())

	w := NewStateWorker(src, nil)
	w.Start(ctx)
	cancel()
	waitDone(t, w)

	select {
	case <-src.unsubscribed:
	case <-time.After(time.Second):
		t.Fatal("worker did not unsubscribe after cancel")
	}
}

func TestStateWorker_SinkFuncAndSinkTimeout(t *testing.T) {
	src := newFakeSource()
	deadlines := make(chan bool, 1)
	sink := SinkFunc{SinkName: "deadline", Fn: func(ctx context.Context, _ services.State) error {
		_, has := ctx.Deadline()
		deadlines <- has
		return nil
	}}

	w := NewStateWorker(src, []Sink{sink}, WithSinkTimeout(time.Second), WithBuffer(4))
	w.Start(context.Background())
	src.ch <- services.State{}
	close(src.ch)
	waitDone(t, w)

	if sink.Name() != "deadline" {
		t.Fatalf("unexpected name %q", sink.Name())
	}
	if !<-deadlines {
		t.Fatal("expected sink context to carry a deadline")
	}
}

func TestStateWorker_FollowsWeatherService(t *testing.T) {
	fetcher := services.FetcherFunc(func(context.Context, string) (*models.Forecast, error) {
		return &models.Forecast{Address: "Paris, France", Days: make([]models.DailyForecast, 7)}, nil
	})
	svc, err := services.NewWeatherService(fetcher)
	if err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{name: "rec"}
	w := NewStateWorker(svc, []Sink{sink})
	w.Start(context.Background())

	svc.SetQuery("Paris")
	svc.Wait()
	svc.Close()
	waitDone(t, w)

	got := sink.snapshot()
	if len(got) != 3 {
		t.Fatalf("expected idle, loading, success; got %d states", len(got))
	}
	want := []services.Status{services.StatusIdle, services.StatusLoading, services.StatusSuccess}
	for i, st := range got {
		if st.Status != want[i] {
			t.Fatalf("state %d: got %v want %v", i, st.Status, want[i])
		}
	}
}
