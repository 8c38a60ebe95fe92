package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"weather-lookup/internal/models"
	"weather-lookup/internal/services"
)

type record struct {
	key, value []byte
}

type fakePublisher struct {
	records []record
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, key, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record{key: key, value: value})
	return nil
}

func TestLookupPublisher_SkipsNonTerminalStates(t *testing.T) {
	fp := &fakePublisher{}
	p := NewLookupPublisher(fp)

	for _, st := range []services.State{
		{Status: services.StatusIdle},
		{Status: services.StatusLoading, Query: "Paris"},
	} {
		if err := p.Handle(context.Background(), st); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(fp.records) != 0 {
		t.Fatalf("expected nothing published, got %d records", len(fp.records))
	}
}

func TestLookupPublisher_PublishesTerminalStates(t *testing.T) {
	fp := &fakePublisher{}
	p := NewLookupPublisher(fp)
	p.newID = func() string { return "evt-1" }

	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	success := services.State{
		Query:         "Paris",
		Status:        services.StatusSuccess,
		Generation:    3,
		UpdatedAt:     at,
		FetchDuration: 250 * time.Millisecond,
		Forecast: &models.Forecast{
			Address: "Paris, France",
			Days:    make([]models.DailyForecast, 7),
		},
	}
	failed := services.State{Query: "Atlantis", Status: services.StatusFailed, Err: "Failed", UpdatedAt: at}

	for _, st := range []services.State{success, failed} {
		if err := p.Handle(context.Background(), st); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(fp.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(fp.records))
	}

	if string(fp.records[0].key) != "weather:paris" {
		t.Fatalf("unexpected key %q", fp.records[0].key)
	}
	var ev LookupEvent
	if err := json.Unmarshal(fp.records[0].value, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.ID != "evt-1" || ev.Status != "success" || ev.Address != "Paris, France" || ev.Days != 7 ||
		ev.DurationMS != 250 || ev.Generation != 3 || !ev.OccurredAt.Equal(at) {
		t.Fatalf("unexpected event %+v", ev)
	}

	var failEv LookupEvent
	if err := json.Unmarshal(fp.records[1].value, &failEv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if failEv.Status != "failed" || failEv.Error != "Failed" || failEv.Days != 0 {
		t.Fatalf("unexpected event %+v", failEv)
	}
}

func TestLookupPublisher_ReturnsPublishError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewLookupPublisher(&fakePublisher{err: boom})
	err := p.Handle(context.Background(), services.State{Query: "Paris", Status: services.StatusFailed})
	if !errors.Is(err, boom) {
		t.Fatalf("expected broker error, got %v", err)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(nil, "weather-lookups"); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("expected ErrNoBrokers, got %v", err)
	}
	if _, err := NewConsumer(nil, "weather-lookups", "g"); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("expected ErrNoBrokers, got %v", err)
	}
}
