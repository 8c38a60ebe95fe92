package services

import (
	"fmt"
	"time"

	"weather-lookup/internal/models"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

var statusNames = [...]string{"idle", "loading", "success", "failed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// Terminal reports whether s ends a fetch sequence.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// State is an immutable snapshot of the store.
//
// Generation grows every time a fetch starts or the query is cleared; a fetch
// result is applied only while its generation is still current.
type State struct {
	Query         string           `json:"query"`
	Status        Status           `json:"status"`
	Forecast      *models.Forecast `json:"forecast,omitempty"`
	Err           string           `json:"error,omitempty"`
	Generation    uint64           `json:"generation"`
	UpdatedAt     time.Time        `json:"updated_at"`
	FetchDuration time.Duration    `json:"fetch_duration,omitempty"`
}

func (s State) Loading() bool {
	return s.Status == StatusLoading
}
