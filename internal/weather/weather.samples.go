// FilePath: internal/weather/weather.samples.go
package weather

import (
	"time"

	"github.com/boatmonitor/hub/internal/errors"
	"github.com/boatmonitor/hub/internal/models"
)

// Hourly variable names requested from the weather API.
const (
	VarTemperature   = "temperature_2m"
	VarHumidity      = "relative_humidity_2m"
	VarWindSpeed     = "wind_speed_10m"
	VarWindDirection = "wind_direction_10m"
)

// Columns holds the parallel per-variable arrays of a weather response.
type Columns struct {
	Temperature   []float64
	Humidity      []float64
	WindSpeed     []float64
	WindDirection []float64
}

// IntervalCount is the number of sample instants start+k*interval in [start, end).
func IntervalCount(start, end time.Time, interval time.Duration) int {
	if interval <= 0 || !end.After(start) {
		return 0
	}
	span := end.Sub(start)
	n := int(span / interval)
	if span%interval != 0 {
		n++
	}
	return n
}

// BuildSamples zips the columns into one sample per interval over [start, end).
// Every column must have exactly one value per interval.
func BuildSamples(cols Columns, start, end time.Time, interval time.Duration) ([]models.WeatherSample, error) {
	if interval <= 0 {
		return nil, errors.NewValidationError("sampling interval must be positive", nil)
	}
	if !end.After(start) {
		return nil, errors.NewValidationError("weather window end must be after start", nil)
	}

	n := IntervalCount(start, end, interval)
	for _, c := range []struct {
		name   string
		values []float64
	}{
		{VarTemperature, cols.Temperature},
		{VarHumidity, cols.Humidity},
		{VarWindSpeed, cols.WindSpeed},
		{VarWindDirection, cols.WindDirection},
	} {
		if len(c.values) != n {
			return nil, &errors.SampleCountMismatchError{Variable: c.name, Expected: n, Got: len(c.values)}
		}
	}

	start = start.UTC()
	samples := make([]models.WeatherSample, n)
	for i := 0; i < n; i++ {
		samples[i] = models.WeatherSample{
			Timestamp:     start.Add(time.Duration(i) * interval),
			Temperature:   cols.Temperature[i],
			Humidity:      cols.Humidity[i],
			WindSpeed:     cols.WindSpeed[i],
			WindDirection: cols.WindDirection[i],
		}
	}
	return samples, nil
}
