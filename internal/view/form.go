package view

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinCityLength = 2
	MaxCityLength = 50
)

var cityPattern = regexp.MustCompile(`^[A-Za-z\s-]+$`)

// ValidationError is reported by the entry form and never reaches the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateCity trims raw and checks it against the entry form rules.
func ValidateCity(raw string) (string, error) {
	city := strings.TrimSpace(raw)
	switch n := utf8.RuneCountInString(city); {
	case n == 0:
		return "", &ValidationError{Field: "city", Message: "Please enter a city name."}
	case n < MinCityLength || n > MaxCityLength:
		return "", &ValidationError{Field: "city", Message: "City name must be between 2 and 50 characters."}
	}
	if !cityPattern.MatchString(city) {
		return "", &ValidationError{Field: "city", Message: "Please enter a valid city name (letters, spaces, and hyphens only)."}
	}
	return city, nil
}
