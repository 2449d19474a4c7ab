// FilePath: internal/weather/weather.client.go
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/boatmonitor/hub/internal/errors"
	"github.com/boatmonitor/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/time/rate"
)

const (
	dateLayout     = "2006-01-02"
	hourLayout     = "2006-01-02T15:04"
	hourlyInterval = time.Hour
)

// ClientConfig configures the hourly weather API.
type ClientConfig struct {
	ForecastURL string
	ArchiveURL  string
	// Windows starting earlier than now-ArchiveAfter are served by ArchiveURL.
	ArchiveAfter      time.Duration
	Latitude          float64
	Longitude         float64
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client fetches hourly weather samples for the boat's mooring.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewClient creates a new weather client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.ForecastURL == "" {
		return nil, errors.NewValidationError("weather forecast url is required", nil)
	}
	if cfg.ArchiveURL == "" {
		cfg.ArchiveURL = cfg.ForecastURL
	}
	if cfg.ArchiveAfter <= 0 {
		cfg.ArchiveAfter = 90 * 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		now:        time.Now,
	}, nil
}

// Name identifies the source in logs and metrics.
func (c *Client) Name() string {
	return "weather"
}

type hourlyResponse struct {
	Hourly map[string]json.RawMessage `json:"hourly"`
	Reason string                     `json:"reason"`
}

// FetchHourly returns hourly samples for every UTC day touched by [start, end).
// Hours the API reports as null are left out of the result.
func (c *Client) FetchHourly(ctx context.Context, start, end time.Time) ([]models.WeatherSample, error) {
	if !end.After(start) {
		return nil, errors.NewValidationError("weather window end must be after start", nil)
	}
	firstDay := start.UTC().Truncate(24 * time.Hour)
	lastDay := end.UTC().Add(-time.Nanosecond).Truncate(24 * time.Hour)

	base := c.config.ForecastURL
	if firstDay.Before(c.now().Add(-c.config.ArchiveAfter)) {
		base = c.config.ArchiveURL
	}
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(c.config.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(c.config.Longitude, 'f', -1, 64))
	params.Set("hourly", strings.Join([]string{VarTemperature, VarHumidity, VarWindSpeed, VarWindDirection}, ","))
	params.Set("start_date", firstDay.Format(dateLayout))
	params.Set("end_date", lastDay.Format(dateLayout))
	params.Set("timezone", "UTC")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "?")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamError("weather request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewUpstreamError("failed to read weather response", err)
	}
	var payload hourlyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewUpstreamError("failed to parse weather response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamError(fmt.Sprintf("weather API returned status %d: %s", resp.StatusCode, payload.Reason), nil)
	}

	cols, err := payload.columns()
	if err != nil {
		return nil, errors.NewUpstreamError("malformed hourly weather columns", err)
	}
	axisStart, axisEnd, err := payload.timeAxis()
	if err != nil {
		return nil, errors.NewUpstreamError("malformed hourly time axis", err)
	}
	samples, err := BuildSamples(cols, axisStart, axisEnd, hourlyInterval)
	if err != nil {
		return nil, err
	}

	complete := samples[:0]
	for _, s := range samples {
		if math.IsNaN(s.Temperature) || math.IsNaN(s.Humidity) || math.IsNaN(s.WindSpeed) || math.IsNaN(s.WindDirection) {
			continue
		}
		complete = append(complete, s)
	}
	if dropped := len(samples) - len(complete); dropped > 0 {
		nuts.L.Warnf("[WeatherClient] %d of %d hourly samples incomplete, skipped", dropped, len(samples))
	}
	return complete, nil
}

// timeAxis reads hourly.time and returns the window it covers, one hour per entry.
func (r hourlyResponse) timeAxis() (time.Time, time.Time, error) {
	raw, ok := r.Hourly["time"]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("missing hourly time array")
	}
	var stamps []string
	if err := json.Unmarshal(raw, &stamps); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("hourly time array: %w", err)
	}
	if len(stamps) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("empty hourly time array")
	}
	first, err := time.ParseInLocation(hourLayout, stamps[0], time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("hourly time %q: %w", stamps[0], err)
	}
	last, err := time.ParseInLocation(hourLayout, stamps[len(stamps)-1], time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("hourly time %q: %w", stamps[len(stamps)-1], err)
	}
	if want := first.Add(time.Duration(len(stamps)-1) * hourlyInterval); !last.Equal(want) {
		return time.Time{}, time.Time{}, fmt.Errorf("hourly time axis not contiguous: last %s, want %s", last.Format(hourLayout), want.Format(hourLayout))
	}
	return first, first.Add(time.Duration(len(stamps)) * hourlyInterval), nil
}

func (r hourlyResponse) columns() (Columns, error) {
	var cols Columns
	var err error
	if cols.Temperature, err = r.column(VarTemperature); err != nil {
		return cols, err
	}
	if cols.Humidity, err = r.column(VarHumidity); err != nil {
		return cols, err
	}
	if cols.WindSpeed, err = r.column(VarWindSpeed); err != nil {
		return cols, err
	}
	if cols.WindDirection, err = r.column(VarWindDirection); err != nil {
		return cols, err
	}
	return cols, nil
}

// column decodes one hourly array; JSON nulls become NaN.
func (r hourlyResponse) column(name string) ([]float64, error) {
	raw, ok := r.Hourly[name]
	if !ok {
		return nil, fmt.Errorf("missing hourly column %s", name)
	}
	var values []*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("hourly column %s: %w", name, err)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out, nil
}
