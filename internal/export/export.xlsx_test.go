package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/boatmonitor/hub/internal/models"
	"github.com/xuri/excelize/v2"
)

func TestBuildHistoryXLSX(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	bucket := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	series := models.AlignedSeries{
		{
			Bucket: bucket,
			Count:  2,
			Device: map[string]float64{models.FieldTemperature: 18.5, models.FieldSatellites: 7},
			Weather: &models.WeatherSample{
				Timestamp: bucket, Temperature: 21, Humidity: 60, WindSpeed: 3.2, WindDirection: 180,
			},
		},
		{Bucket: bucket.Add(time.Hour), Count: 1, Device: map[string]float64{models.FieldTemperature: 19}},
	}
	samples := []models.WeatherSample{{Timestamp: bucket, Temperature: 21}}

	data, err := BuildHistoryXLSX(series, samples, zurich)
	if err != nil {
		t.Fatalf("BuildHistoryXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(seriesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][0] != "2024-07-01 10:00:00" || rows[1][1] != "2024-07-01 12:00:00" {
		t.Errorf("timestamps = %v %v", rows[1][0], rows[1][1])
	}
	if rows[1][2] != "2" {
		t.Errorf("count = %v", rows[1][2])
	}
	if len(rows[2]) != 3+len(models.NumericFields) {
		t.Errorf("row without weather has %d cells", len(rows[2]))
	}

	weather, err := f.GetRows(weatherSheet)
	if err != nil {
		t.Fatalf("GetRows weather: %v", err)
	}
	if len(weather) != 2 {
		t.Errorf("weather rows = %d", len(weather))
	}
}
