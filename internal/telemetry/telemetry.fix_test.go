package telemetry

import (
	"testing"
	"time"

	"github.com/boatmonitor/hub/internal/models"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 6, 1, hour, min, 0, 0, time.UTC)
}

func TestLatestFixSkipsSentinel(t *testing.T) {
	records := []models.TelemetryRecord{
		{ReceivedAt: at(10, 0), Latitude: 0, Longitude: 0},
		{ReceivedAt: at(9, 0), Latitude: 47.5, Longitude: 9.3},
	}
	fix, ok := LatestFix(records)
	if !ok {
		t.Fatalf("LatestFix: no fix")
	}
	if !fix.Record.ReceivedAt.Equal(at(9, 0)) {
		t.Errorf("fix at %v, want 09:00", fix.Record.ReceivedAt)
	}
	if fix.Coordinate != (models.Coordinate{Latitude: 47.5, Longitude: 9.3}) {
		t.Errorf("coordinate = %+v", fix.Coordinate)
	}
}

func TestLatestFixSortsUnorderedInput(t *testing.T) {
	records := []models.TelemetryRecord{
		{ReceivedAt: at(8, 0), Latitude: 47.1, Longitude: 9.1},
		{ReceivedAt: at(11, 0), Latitude: 0, Longitude: 0},
		{ReceivedAt: at(10, 0), Latitude: 47.3, Longitude: 9.2},
		{ReceivedAt: at(9, 0), Latitude: 47.2, Longitude: 9.15},
	}
	fix, ok := LatestFix(records)
	if !ok || !fix.Record.ReceivedAt.Equal(at(10, 0)) {
		t.Fatalf("fix = %+v ok=%v, want 10:00 record", fix.Record, ok)
	}
	if !records[0].ReceivedAt.Equal(at(8, 0)) {
		t.Errorf("input slice was reordered")
	}
}

func TestLatestFixAcceptsSingleZeroAxis(t *testing.T) {
	// on the equator or the prime meridian, but not both
	records := []models.TelemetryRecord{
		{ReceivedAt: at(10, 0), Latitude: 0, Longitude: 9.3},
	}
	if _, ok := LatestFix(records); !ok {
		t.Fatalf("record with only latitude 0 should count as a fix")
	}
}

func TestLatestFixNoValidFix(t *testing.T) {
	cases := [][]models.TelemetryRecord{
		nil,
		{{ReceivedAt: at(10, 0)}, {ReceivedAt: at(9, 0)}},
	}
	for _, records := range cases {
		fix, ok := LatestFix(records)
		if ok {
			t.Fatalf("LatestFix(%v) = %+v, want no fix", records, fix)
		}
		if fix.Coordinate != (models.Coordinate{}) || !fix.Record.ReceivedAt.IsZero() {
			t.Errorf("absent result should be empty, got %+v", fix)
		}
	}
}

func TestLatestFixNeverReturnsSentinel(t *testing.T) {
	var records []models.TelemetryRecord
	for i := 0; i < 50; i++ {
		rec := models.TelemetryRecord{ReceivedAt: at(0, 0).Add(time.Duration(i*7%50) * time.Minute)}
		if i%3 == 0 {
			rec.Latitude, rec.Longitude = 47+float64(i)/100, 9
		}
		records = append(records, rec)
	}
	fix, ok := LatestFix(records)
	if !ok {
		t.Fatalf("expected a fix")
	}
	if fix.Record.Latitude == 0 && fix.Record.Longitude == 0 {
		t.Fatalf("LatestFix returned the (0,0) sentinel")
	}
}
