// FilePath: internal/models/models.composite.go
package models

import "time"

// FixView is the latest GPS fix together with the gateways that heard it.
type FixView struct {
	Record        TelemetryRecord `json:"record"`
	Coordinate    Coordinate      `json:"coordinate"`
	Links         []LinkGeometry  `json:"links"`
	ReceivedLocal string          `json:"received_local"`
}

// LiveView combines the uplinks of the live window with the latest fix.
// Fix is nil when no record in the window has a valid position.
type LiveView struct {
	GeneratedAt   time.Time         `json:"generated_at"`
	Window        string            `json:"window"`
	Records       []TelemetryRecord `json:"records"`
	Latest        *TelemetryRecord  `json:"latest,omitempty"`
	Fix           *FixView          `json:"fix"`
	ParseFailures int               `json:"parse_failures"`
}

// HistoryView is the resampled warehouse history merged with weather.
type HistoryView struct {
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	BucketWidth string          `json:"bucket_width"`
	Series      AlignedSeries   `json:"series"`
	Weather     []WeatherSample `json:"weather"`
	Dropped     int             `json:"dropped_rows"`
}

// RecentView lists the newest archived records.
type RecentView struct {
	Records []TelemetryRecord `json:"records"`
	Dropped int               `json:"dropped_rows"`
}
