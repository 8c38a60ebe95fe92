package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"weather-lookup/internal/services"

	"github.com/google/uuid"
)

// LookupEvent is published once per finished lookup.
type LookupEvent struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Status     string    `json:"status"`
	Address    string    `json:"address,omitempty"`
	Days       int       `json:"days"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Generation uint64    `json:"generation"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewLookupEvent(id string, st services.State) LookupEvent {
	ev := LookupEvent{
		ID:         id,
		Query:      st.Query,
		Status:     st.Status.String(),
		Error:      st.Err,
		DurationMS: st.FetchDuration.Milliseconds(),
		Generation: st.Generation,
		OccurredAt: st.UpdatedAt.UTC(),
	}
	if st.Forecast != nil {
		ev.Address = st.Forecast.Address
		ev.Days = len(st.Forecast.Days)
	}
	return ev
}

type publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// LookupPublisher turns terminal store states into LookupEvents.
type LookupPublisher struct {
	pub   publisher
	newID func() string
}

func NewLookupPublisher(pub publisher) *LookupPublisher {
	return &LookupPublisher{pub: pub, newID: uuid.NewString}
}

func (p *LookupPublisher) Name() string {
	return "kafka-lookups"
}

func (p *LookupPublisher) Handle(ctx context.Context, st services.State) error {
	if !st.Status.Terminal() {
		return nil
	}

	value, err := json.Marshal(NewLookupEvent(p.newID(), st))
	if err != nil {
		return fmt.Errorf("marshal lookup event: %w", err)
	}
	key := "weather:" + strings.ToLower(st.Query)
	return p.pub.Publish(ctx, []byte(key), value)
}
