package models

// Forecast is a multi-day lookup result as returned by the timeline API.
// It is replaced wholesale on every lookup and never mutated afterwards.
type Forecast struct {
	Address string          `json:"address"`
	Days    []DailyForecast `json:"days"`
}

// DailyForecast holds one day of the forecast. Units are metric
// (°C, hPa, %, km/h); Date is an ISO date, Sunrise/Sunset are local HH:MM:SS.
type DailyForecast struct {
	Conditions string  `json:"conditions"`
	Date       string  `json:"datetime"`
	Temp       float64 `json:"temp"`
	FeelsLike  float64 `json:"feelslike"`
	Pressure   float64 `json:"pressure"`
	Humidity   float64 `json:"humidity"`
	WindSpeed  float64 `json:"windspeed"`
	Sunrise    string  `json:"sunrise"`
	Sunset     string  `json:"sunset"`
}
