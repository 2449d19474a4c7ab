// FilePath: internal/dashboard/dashboard.live.go
package dashboard

import (
	"context"
	"time"

	"github.com/boatmonitor/hub/internal/models"
	"github.com/boatmonitor/hub/internal/telemetry"
	"github.com/boatmonitor/hub/internal/uplink"
	nuts "github.com/vaudience/go-nuts"
)

// Live fetches the uplinks of the last window from the device network and
// locates the newest GPS fix with its gateway links.
func (s *DashboardService) Live(ctx context.Context, window time.Duration) (*models.LiveView, error) {
	if window <= 0 {
		window = s.config.LiveWindow
	}
	now := s.now().UTC()

	started := time.Now()
	blob, err := s.Uplinks.FetchSince(ctx, now.Add(-window))
	s.observe(s.Uplinks.Name(), started, err)
	if err != nil {
		nuts.L.Errorf("[Dashboard] Failed to fetch uplinks: %v", err)
		return nil, err
	}

	parsed := uplink.ParseUplinks(blob)
	if s.Monitor != nil {
		s.Monitor.UplinkLines(len(parsed.Records), len(parsed.Failures))
	}
	records := telemetry.SortedDescending(parsed.Records)

	view := &models.LiveView{
		GeneratedAt:   now,
		Window:        window.String(),
		Records:       records,
		ParseFailures: len(parsed.Failures),
	}
	if view.Records == nil {
		view.Records = []models.TelemetryRecord{}
	}
	if len(records) > 0 {
		latest := records[0]
		view.Latest = &latest
	}

	if fix, ok := telemetry.LatestFix(records); ok {
		links := telemetry.LinkGeometries(fix.Record, s.config.Geometry)
		if links == nil {
			links = []models.LinkGeometry{}
		}
		view.Fix = &models.FixView{
			Record:        fix.Record,
			Coordinate:    fix.Coordinate,
			Links:         links,
			ReceivedLocal: s.Local(fix.Record.ReceivedAt),
		}
	} else {
		nuts.L.Warnf("[Dashboard] No valid GPS fix in the last %s (%d records)", window, len(records))
		s.events.Emit(EventNoValidFix, window.String())
	}

	s.events.Emit(EventLiveRefreshed, len(records))
	return view, nil
}
