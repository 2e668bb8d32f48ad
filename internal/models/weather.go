package models

import "time"

// CurrentWeatherReading is the subset of a current-conditions answer the app renders.
type CurrentWeatherReading struct {
	City        string  `json:"city"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Country     string  `json:"country"`
	IconID      string  `json:"iconId"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
}

type TemperaturePoint struct {
	Date        time.Time `json:"date"`
	Label       string    `json:"label"`
	Temperature float64   `json:"temperature"`
}

// TemperatureSeries holds daily temperatures in chronological order.
type TemperatureSeries []TemperaturePoint

func (s TemperatureSeries) Labels() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Label
	}
	return out
}

func (s TemperatureSeries) Temperatures() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Temperature
	}
	return out
}

// GeoLocation is an IP-geolocation answer. Only City is required by the app.
type GeoLocation struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Loc     string `json:"loc"`
}
