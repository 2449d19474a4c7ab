// FilePath: internal/export/export.xlsx.go
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/boatmonitor/hub/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	seriesSheet  = "aligned"
	weatherSheet = "weather"
	timeLayout   = "2006-01-02 15:04:05"
)

var weatherHeader = []string{"temperature_2m", "relative_humidity_2m", "wind_speed_10m", "wind_direction_10m"}

// BuildHistoryXLSX renders the aligned series and the raw weather samples.
// Timestamps are written in UTC and in the display location.
func BuildHistoryXLSX(series models.AlignedSeries, samples []models.WeatherSample, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", seriesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(weatherSheet); err != nil {
		return nil, err
	}

	header := []interface{}{"bucket_utc", "bucket_local", "count"}
	for _, field := range models.NumericFields {
		header = append(header, field)
	}
	header = append(header, "weather_at_utc")
	for _, name := range weatherHeader {
		header = append(header, name)
	}
	if err := f.SetSheetRow(seriesSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range series {
		values := []interface{}{
			row.Bucket.UTC().Format(timeLayout),
			row.Bucket.In(loc).Format(timeLayout),
			row.Count,
		}
		for _, field := range models.NumericFields {
			values = append(values, row.Device[field])
		}
		if row.Weather != nil {
			values = append(values,
				row.Weather.Timestamp.UTC().Format(timeLayout),
				row.Weather.Temperature,
				row.Weather.Humidity,
				row.Weather.WindSpeed,
				row.Weather.WindDirection,
			)
		}
		if err := f.SetSheetRow(seriesSheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return nil, err
		}
	}

	weatherRow := []interface{}{"timestamp_utc", "timestamp_local"}
	for _, name := range weatherHeader {
		weatherRow = append(weatherRow, name)
	}
	if err := f.SetSheetRow(weatherSheet, "A1", &weatherRow); err != nil {
		return nil, err
	}
	for i, s := range samples {
		values := []interface{}{
			s.Timestamp.UTC().Format(timeLayout),
			s.Timestamp.In(loc).Format(timeLayout),
			s.Temperature,
			s.Humidity,
			s.WindSpeed,
			s.WindDirection,
		}
		if err := f.SetSheetRow(weatherSheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
