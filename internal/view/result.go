package view

import (
	"strings"

	"weather-lookup/internal/models"
	"weather-lookup/internal/services"
)

const (
	LoadingText = "Loading weather data..."
	EmptyText   = "No weather data available"
	RetryHint   = "Please try again or check your API key."
)

type ResultKind string

const (
	ResultNone    ResultKind = "none"
	ResultLoading ResultKind = "loading"
	ResultError   ResultKind = "error"
	ResultEmpty   ResultKind = "empty"
	ResultCards   ResultKind = "cards"
)

// Card is one formatted day of the forecast.
type Card struct {
	Index      int
	Date       string
	Conditions string
	Icon       Icon
	Temp       string
	FeelsLike  string
	Humidity   string
	Wind       string
	Pressure   string
	Sunrise    string
	Sunset     string
}

// Result is the view model of the result surface.
type Result struct {
	Kind       ResultKind
	Message    string
	Hint       string
	Address    string
	Card       *Card
	Current    int
	Total      int
	ShowNav    bool
	Indicators []bool
}

func NewCard(idx int, day models.DailyForecast) Card {
	return Card{
		Index:      idx,
		Date:       FormatDate(day.Date),
		Conditions: day.Conditions,
		Icon:       IconFor(day.Conditions),
		Temp:       FormatTemp(day.Temp),
		FeelsLike:  FormatTemp(day.FeelsLike),
		Humidity:   FormatHumidity(day.Humidity),
		Wind:       FormatWind(day.WindSpeed),
		Pressure:   FormatPressure(day.Pressure),
		Sunrise:    FormatClock(day.Sunrise),
		Sunset:     FormatClock(day.Sunset),
	}
}

// Build maps a store snapshot to exactly one result surface. When cards are
// shown the carousel position and indicators are read in one step.
func Build(st services.State, carousel *Carousel) Result {
	switch st.Status {
	case services.StatusLoading:
		return Result{Kind: ResultLoading, Message: LoadingText}
	case services.StatusFailed:
		r := Result{Kind: ResultError, Message: st.Err}
		if !strings.Contains(st.Err, RetryHint) {
			r.Hint = RetryHint
		}
		return r
	case services.StatusSuccess:
	default:
		return Result{Kind: ResultNone}
	}

	if st.Forecast == nil || len(st.Forecast.Days) == 0 {
		return Result{Kind: ResultEmpty, Message: EmptyText}
	}

	days := st.Forecast.Days
	idx, indicators := carousel.Snapshot(st.Generation, len(days))
	card := NewCard(idx, days[idx])
	return Result{
		Kind:       ResultCards,
		Address:    st.Forecast.Address,
		Card:       &card,
		Current:    idx,
		Total:      len(days),
		ShowNav:    len(days) > 1,
		Indicators: indicators,
	}
}
