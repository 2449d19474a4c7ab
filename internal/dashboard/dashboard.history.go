// FilePath: internal/dashboard/dashboard.history.go
package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/boatmonitor/hub/internal/errors"
	"github.com/boatmonitor/hub/internal/export"
	"github.com/boatmonitor/hub/internal/models"
	"github.com/boatmonitor/hub/internal/telemetry"
	"github.com/boatmonitor/hub/internal/warehouse"
	nuts "github.com/vaudience/go-nuts"
)

// HistoryQuery selects a warehouse window and bucket width. Zero values use
// the configured defaults ending at the close of the current bucket.
type HistoryQuery struct {
	Start  time.Time
	End    time.Time
	Bucket time.Duration
}

// Normalize fills defaults and validates the query.
func (s *DashboardService) Normalize(q HistoryQuery) (HistoryQuery, error) {
	if q.Bucket == 0 {
		q.Bucket = s.config.Bucket
	}
	if q.End.IsZero() {
		// bucket-aligned so repeated default queries share one cache key
		q.End = s.now().UTC()
		if q.Bucket > 0 {
			q.End = q.End.Truncate(q.Bucket).Add(q.Bucket)
		}
	}
	if q.Start.IsZero() {
		q.Start = q.End.Add(-s.config.HistoryWindow)
	}
	q.Start, q.End = q.Start.UTC(), q.End.UTC()

	if !q.End.After(q.Start) {
		return q, errors.NewValidationError("end must be after start", nil)
	}
	if q.Bucket < time.Minute {
		return q, errors.NewValidationError("bucket must be at least one minute", nil)
	}
	return q, nil
}

func (q HistoryQuery) cacheKey() string {
	return fmt.Sprintf("%d:%d:%d", q.Start.Unix(), q.End.Unix(), int64(q.Bucket/time.Second))
}

// History resamples the warehouse records of the window into buckets and
// attaches the nearest weather sample to every bucket.
func (s *DashboardService) History(ctx context.Context, q HistoryQuery) (*models.HistoryView, error) {
	q, err := s.Normalize(q)
	if err != nil {
		return nil, err
	}

	if s.Cache == nil {
		return s.computeHistory(ctx, q)
	}
	var view models.HistoryView
	err = s.Cache.GetOrCompute(ctx, q.cacheKey(), s.config.CacheTTL, &view, func(ctx context.Context) (interface{}, error) {
		return s.computeHistory(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *DashboardService) computeHistory(ctx context.Context, q HistoryQuery) (*models.HistoryView, error) {
	rows, err := s.Records.QueryRange(ctx, q.Start, q.End)
	if err != nil {
		nuts.L.Errorf("[Dashboard] Failed to query history: %v", err)
		return nil, err
	}
	records := warehouse.AdaptRows(rows)
	dropped := len(rows) - len(records)
	s.dropped("warehouse", dropped)

	series := telemetry.Resample(telemetry.SortedAscending(records), q.Bucket)

	started := time.Now()
	samples, err := s.Weather.FetchHourly(ctx, q.Start, q.End)
	s.observe(s.Weather.Name(), started, err)
	if err != nil {
		nuts.L.Errorf("[Dashboard] Failed to fetch weather: %v", err)
		return nil, err
	}
	series = telemetry.MergeNearest(series, samples, telemetry.MergeOptions{MaxTolerance: s.config.MaxTolerance})

	nuts.L.Infof("[Dashboard] History %s..%s: %d rows, %d buckets, %d weather samples",
		q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339), len(rows), len(series), len(samples))
	s.events.Emit(EventHistoryComputed, q.cacheKey())

	if samples == nil {
		samples = []models.WeatherSample{}
	}
	return &models.HistoryView{
		Start:       q.Start,
		End:         q.End,
		BucketWidth: q.Bucket.String(),
		Series:      series,
		Weather:     samples,
		Dropped:     dropped,
	}, nil
}

// ExportHistory renders the history of q as an XLSX workbook. A copy is kept
// in the export store when one is configured.
func (s *DashboardService) ExportHistory(ctx context.Context, q HistoryQuery) ([]byte, error) {
	view, err := s.History(ctx, q)
	if err != nil {
		return nil, err
	}
	data, err := export.BuildHistoryXLSX(view.Series, view.Weather, s.config.Location)
	if err != nil {
		return nil, errors.NewInternalError("failed to build workbook", err)
	}

	if s.Exports != nil {
		name := fmt.Sprintf("history_%s_%s.xlsx", view.Start.Format("20060102T1504"), view.End.Format("20060102T1504"))
		path, err := s.Exports.StoreExport(ctx, name, bytes.NewReader(data))
		if err != nil {
			nuts.L.Warnf("[Dashboard] Failed to keep export copy: %v", err)
		} else {
			s.events.Emit(EventHistoryExported, path)
		}
	}
	return data, nil
}

// Recent returns the newest archived records, newest first.
func (s *DashboardService) Recent(ctx context.Context, limit int) (*models.RecentView, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return nil, errors.NewValidationError(fmt.Sprintf("limit must not exceed %d", maxRecentLimit), nil)
	}

	rows, err := s.Records.QueryRecent(ctx, limit)
	if err != nil {
		nuts.L.Errorf("[Dashboard] Failed to query recent records: %v", err)
		return nil, err
	}
	records := warehouse.AdaptRows(rows)
	dropped := len(rows) - len(records)
	s.dropped("warehouse", dropped)

	records = telemetry.SortedDescending(records)
	if records == nil {
		records = []models.TelemetryRecord{}
	}
	return &models.RecentView{Records: records, Dropped: dropped}, nil
}
