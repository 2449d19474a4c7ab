// FilePath: internal/models/api.models.filters.go
package models

import "time"

// LiveFilters are the query parameters of the live endpoint.
type LiveFilters struct {
	Window Duration `schema:"window"`
}

// HistoryFilters are the query parameters of the history endpoints.
// Zero values fall back to the configured history window and bucket.
type HistoryFilters struct {
	Start  Time     `schema:"start"`
	End    Time     `schema:"end"`
	Bucket Duration `schema:"bucket"`
}

// RecentFilters are the query parameters of the recent endpoint.
type RecentFilters struct {
	Limit int `schema:"limit"`
}

// Time is a wrapper around time.Time accepting RFC3339 or a plain date.
type Time struct {
	time.Time
}

// UnmarshalText implements encoding.TextUnmarshaler for query decoding.
func (t *Time) UnmarshalText(text []byte) error {
	s := string(text)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	_, err := time.Parse(time.RFC3339, s)
	return err
}

// Duration is a time.Duration decoded from strings like "1h" or "15m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for query decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}
