package view

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DegreeSymbol = "°"
	SpeedUnit    = "km/h"
)

// roundHalfUp rounds like a browser's Math.round: halves go towards +Inf.
func roundHalfUp(v float64) int {
	r := math.Floor(v + 0.5)
	if r == 0 {
		return 0
	}
	return int(r)
}

func FormatTemp(v float64) string {
	return strconv.Itoa(roundHalfUp(v)) + DegreeSymbol
}

func FormatWind(v float64) string {
	return strconv.Itoa(roundHalfUp(v)) + " " + SpeedUnit
}

func FormatPressure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " hPa"
}

func FormatHumidity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// FormatDate renders an ISO date as "Monday, January 1". Unparseable input
// is returned as is.
func FormatDate(iso string) string {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return iso
	}
	return t.Format("Monday, January 2")
}

// FormatClock renders "07:45:00" as "7:45 AM".
func FormatClock(hms string) string {
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if t, err := time.Parse(layout, hms); err == nil {
			return t.Format("3:04 PM")
		}
	}
	return hms
}

// Icon names the pictogram for a free-text condition description.
type Icon string

const (
	IconSun   Icon = "sun"
	IconRain  Icon = "rain"
	IconSnow  Icon = "snow"
	IconFog   Icon = "fog"
	IconCloud Icon = "cloud"
)

func IconFor(conditions string) Icon {
	c := strings.ToLower(conditions)
	switch {
	case strings.Contains(c, "sun"), strings.Contains(c, "clear"):
		return IconSun
	case strings.Contains(c, "rain"), strings.Contains(c, "drizzle"):
		return IconRain
	case strings.Contains(c, "snow"):
		return IconSnow
	case strings.Contains(c, "fog"), strings.Contains(c, "mist"):
		return IconFog
	default:
		return IconCloud
	}
}

// Glyph is the text rendition of the icon used by the HTML page.
func (i Icon) Glyph() string {
	switch i {
	case IconSun:
		return "☀"
	case IconRain:
		return "🌧"
	case IconSnow:
		return "❄"
	case IconFog:
		return "🌫"
	default:
		return "☁"
	}
}
