// FilePath: internal/models/models.weather.go
package models

import "time"

// WeatherSample is one hourly reference measurement from the weather API.
type WeatherSample struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection float64   `json:"wind_direction"`
}
