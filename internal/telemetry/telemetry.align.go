// FilePath: internal/telemetry/telemetry.align.go
package telemetry

import (
	"sort"
	"time"

	"github.com/boatmonitor/hub/internal/models"
)

// Resample groups records into left-closed buckets [b, b+width) aligned to
// width in UTC and averages every numeric field per bucket. Empty buckets
// are omitted. Bucket is always the aligned start; FirstAt carries the
// earliest record time that fell into it.
func Resample(records []models.TelemetryRecord, width time.Duration) models.AlignedSeries {
	if len(records) == 0 || width <= 0 {
		return models.AlignedSeries{}
	}

	type acc struct {
		count int
		first time.Time
		sums  [6]float64
	}
	buckets := make(map[time.Time]*acc)
	for _, rec := range records {
		t := rec.ReceivedAt.UTC()
		key := t.Truncate(width)
		a, ok := buckets[key]
		if !ok {
			a = &acc{first: t}
			buckets[key] = a
		}
		if t.Before(a.first) {
			a.first = t
		}
		a.count++
		for j, v := range numericValues(rec) {
			a.sums[j] += v
		}
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	series := make(models.AlignedSeries, 0, len(keys))
	for _, k := range keys {
		a := buckets[k]
		device := make(map[string]float64, len(models.NumericFields))
		for j, field := range models.NumericFields {
			device[field] = a.sums[j] / float64(a.count)
		}
		series = append(series, models.AlignedRow{Bucket: k, FirstAt: a.first, Count: a.count, Device: device})
	}
	return series
}

// numericValues must follow the order of models.NumericFields.
func numericValues(rec models.TelemetryRecord) [6]float64 {
	return [6]float64{
		rec.Latitude,
		rec.Longitude,
		rec.Temperature,
		rec.Humidity,
		rec.BatteryVoltage,
		float64(rec.SatelliteCount),
	}
}

// MergeOptions tunes MergeNearest.
type MergeOptions struct {
	// MaxTolerance, when positive, leaves rows without weather if the
	// nearest sample is further away. Zero means always take the nearest.
	MaxTolerance time.Duration
}

// MergeNearest attaches to every row the weather sample closest in time,
// preferring the earlier sample on ties. Rows are never dropped.
func MergeNearest(series models.AlignedSeries, samples []models.WeatherSample, opts MergeOptions) models.AlignedSeries {
	sorted := make([]models.WeatherSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	out := make(models.AlignedSeries, len(series))
	for i, row := range series {
		out[i] = row
		out[i].Weather = nil
		out[i].WeatherAt = nil

		best, ok := nearest(sorted, row.Bucket)
		if !ok {
			continue
		}
		if opts.MaxTolerance > 0 && absDuration(best.Timestamp.Sub(row.Bucket)) > opts.MaxTolerance {
			continue
		}
		sample := best
		at := best.Timestamp
		out[i].Weather = &sample
		out[i].WeatherAt = &at
	}
	return out
}

// nearest expects samples sorted ascending.
func nearest(samples []models.WeatherSample, t time.Time) (models.WeatherSample, bool) {
	if len(samples) == 0 {
		return models.WeatherSample{}, false
	}
	// first sample at or after t
	idx := sort.Search(len(samples), func(i int) bool { return !samples[i].Timestamp.Before(t) })
	switch {
	case idx == 0:
		return samples[0], true
	case idx == len(samples):
		return samples[len(samples)-1], true
	}
	before, after := samples[idx-1], samples[idx]
	if after.Timestamp.Sub(t) < t.Sub(before.Timestamp) {
		return after, true
	}
	return before, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
