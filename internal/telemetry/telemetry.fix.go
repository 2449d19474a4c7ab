// FilePath: internal/telemetry/telemetry.fix.go
package telemetry

import (
	"sort"

	"github.com/boatmonitor/hub/internal/models"
)

// FixResult is the most recent record that carries a real GPS position.
type FixResult struct {
	Record     models.TelemetryRecord `json:"record"`
	Coordinate models.Coordinate      `json:"coordinate"`
}

// LatestFix returns the newest record whose position is not the (0,0)
// sentinel. Input is expected newest-first; unordered input is sorted on a
// copy. The second result is false when no record has a fix.
func LatestFix(records []models.TelemetryRecord) (FixResult, bool) {
	for _, rec := range SortedDescending(records) {
		if coord, ok := rec.Fix(); ok {
			return FixResult{Record: rec, Coordinate: coord}, true
		}
	}
	return FixResult{}, false
}

// SortedDescending returns records newest-first. The input is returned as-is
// when already ordered, otherwise a sorted copy.
func SortedDescending(records []models.TelemetryRecord) []models.TelemetryRecord {
	if sort.SliceIsSorted(records, func(i, j int) bool {
		return records[i].ReceivedAt.After(records[j].ReceivedAt)
	}) {
		return records
	}
	sorted := make([]models.TelemetryRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReceivedAt.After(sorted[j].ReceivedAt)
	})
	return sorted
}

// SortedAscending returns an oldest-first copy of records.
func SortedAscending(records []models.TelemetryRecord) []models.TelemetryRecord {
	sorted := make([]models.TelemetryRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReceivedAt.Before(sorted[j].ReceivedAt)
	})
	return sorted
}
