// FilePath: internal/dashboard/dashboard.go
package dashboard

import (
	"context"
	"io"
	"time"

	"github.com/boatmonitor/hub/internal/errors"
	"github.com/boatmonitor/hub/internal/models"
	"github.com/boatmonitor/hub/internal/repository"
	"github.com/boatmonitor/hub/internal/telemetry"
	nuts "github.com/vaudience/go-nuts"
)

// Events emitted by the dashboard service.
const (
	EventLiveRefreshed   = "live.refreshed"
	EventHistoryComputed = "history.computed"
	EventHistoryExported = "history.exported"
	EventNoValidFix      = "fix.missing"
)

const (
	defaultLiveWindow     = time.Hour
	defaultRecentLimit    = 20
	maxRecentLimit        = 1000
	defaultHistoryCaching = 10 * time.Minute
)

// UplinkSource fetches raw stored uplinks from the device network.
type UplinkSource interface {
	Name() string
	FetchSince(ctx context.Context, after time.Time) ([]byte, error)
}

// WeatherSource fetches hourly reference weather.
type WeatherSource interface {
	Name() string
	FetchHourly(ctx context.Context, start, end time.Time) ([]models.WeatherSample, error)
}

// Memoizer caches computed values by key.
type Memoizer interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, out interface{}, fn func(ctx context.Context) (interface{}, error)) error
}

// ExportStore keeps a copy of generated exports.
type ExportStore interface {
	StoreExport(ctx context.Context, name string, src io.WriterTo) (string, error)
}

// Monitor receives pipeline metrics.
type Monitor interface {
	UplinkLines(parsed, failed int)
	RecordsDropped(stage string, n int)
	ObserveUpstream(source string, started time.Time, err error)
}

// Config tunes the dashboard pipeline.
type Config struct {
	LiveWindow    time.Duration
	Bucket        time.Duration
	MaxTolerance  time.Duration
	HistoryWindow time.Duration
	CacheTTL      time.Duration
	Geometry      telemetry.GeometryOptions
	Location      *time.Location
}

// DashboardService contains all collaborators of the dashboard views
type DashboardService struct {
	Records repository.TelemetryRepository
	Uplinks UplinkSource
	Weather WeatherSource
	Cache   Memoizer
	Exports ExportStore
	Monitor Monitor

	config Config
	events *nuts.EventEmitter
	now    func() time.Time
}

// New creates a new DashboardService instance. Cache, Exports and Monitor
// may be set afterwards and are optional.
func New(
	records repository.TelemetryRepository,
	uplinks UplinkSource,
	weather WeatherSource,
	config Config,
) *DashboardService {
	if config.LiveWindow <= 0 {
		config.LiveWindow = defaultLiveWindow
	}
	if config.Bucket <= 0 {
		config.Bucket = time.Hour
	}
	if config.HistoryWindow <= 0 {
		config.HistoryWindow = 7 * 24 * time.Hour
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaultHistoryCaching
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &DashboardService{
		Records: records,
		Uplinks: uplinks,
		Weather: weather,
		config:  config,
		events:  nuts.NewEventEmitter(),
		now:     time.Now,
	}
}

// Validate checks if all required collaborators are initialized
func (s *DashboardService) Validate() error {
	if s.Records == nil {
		return ErrMissingCollaborator("records")
	}
	if s.Uplinks == nil {
		return ErrMissingCollaborator("uplinks")
	}
	if s.Weather == nil {
		return ErrMissingCollaborator("weather")
	}
	return nil
}

// Health pings the warehouse.
func (s *DashboardService) Health(ctx context.Context) error {
	return s.Records.Ping(ctx)
}

// OnEvent registers a callback for dashboard events
func (s *DashboardService) OnEvent(event string, handler func(args ...interface{})) {
	s.events.On(event, "dashboard_handler", handler)
}

// Local formats t in the display location.
func (s *DashboardService) Local(t time.Time) string {
	return t.In(s.config.Location).Format("2006-01-02 15:04:05 MST")
}

// Location is the display location.
func (s *DashboardService) Location() *time.Location {
	return s.config.Location
}

func ErrMissingCollaborator(name string) error {
	return errors.NewInternalError("missing collaborator: "+name, nil)
}

func (s *DashboardService) observe(source string, started time.Time, err error) {
	if s.Monitor != nil {
		s.Monitor.ObserveUpstream(source, started, err)
	}
}

func (s *DashboardService) dropped(stage string, n int) {
	if s.Monitor != nil {
		s.Monitor.RecordsDropped(stage, n)
	}
}
