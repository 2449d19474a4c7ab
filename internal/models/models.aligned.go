// FilePath: internal/models/models.aligned.go
package models

import "time"

// Numeric telemetry fields averaged per bucket.
const (
	FieldLatitude       = "latitude"
	FieldLongitude      = "longitude"
	FieldTemperature    = "temperature"
	FieldHumidity       = "humidity"
	FieldBatteryVoltage = "batteryVoltage"
	FieldSatellites     = "satellites"
)

// NumericFields lists the averaged fields in display order.
var NumericFields = []string{
	FieldLatitude,
	FieldLongitude,
	FieldTemperature,
	FieldHumidity,
	FieldBatteryVoltage,
	FieldSatellites,
}

// AlignedRow is one resampling bucket with device means and, after a merge,
// the nearest weather sample.
type AlignedRow struct {
	Bucket    time.Time          `json:"bucket"`
	FirstAt   time.Time          `json:"first_at"`
	Count     int                `json:"count"`
	Device    map[string]float64 `json:"device"`
	Weather   *WeatherSample     `json:"weather,omitempty"`
	WeatherAt *time.Time         `json:"weather_at,omitempty"`
}

// AlignedSeries is ordered by strictly increasing Bucket.
type AlignedSeries []AlignedRow
