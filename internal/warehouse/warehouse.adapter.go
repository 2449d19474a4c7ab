// FilePath: internal/warehouse/warehouse.adapter.go
package warehouse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/boatmonitor/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Column names of the warehouse telemetry table.
const (
	ColReceivedAt       = "received_at"
	ColLatitude         = "latitude"
	ColLongitude        = "longitude"
	ColTemperature      = "temperature"
	ColHumidity         = "humidity"
	ColBatteryVoltage   = "batteryVoltage"
	ColReedSwitchStatus = "reedSwitchStatus"
	ColSatellites       = "satellites"
	ColGatewayCount     = "count_gw"
)

// GatewayColumn returns the indexed column name of a gateway field,
// e.g. GatewayColumn("snr", 2) == "snr_gw_2".
func GatewayColumn(field string, i int) string {
	return fmt.Sprintf("%s_gw_%d", field, i)
}

// Row is one row of a tabular query result keyed by column name.
type Row map[string]interface{}

// AdaptRows converts warehouse rows into telemetry records. Rows without a
// usable received_at are dropped with a warning; everything else is passed
// through, including (0,0) positions.
func AdaptRows(rows []Row) []models.TelemetryRecord {
	records := make([]models.TelemetryRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := AdaptRow(row)
		if err != nil {
			nuts.L.Warnf("[WarehouseAdapter] Dropping row %d: %v", i, err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// AdaptRow converts a single row and folds its indexed gateway columns.
func AdaptRow(row Row) (models.TelemetryRecord, error) {
	receivedAt, err := toTime(row[ColReceivedAt])
	if err != nil {
		return models.TelemetryRecord{}, fmt.Errorf("%s: %w", ColReceivedAt, err)
	}

	rec := models.TelemetryRecord{ReceivedAt: receivedAt}
	numeric := []struct {
		col string
		dst *float64
	}{
		{ColLatitude, &rec.Latitude},
		{ColLongitude, &rec.Longitude},
		{ColTemperature, &rec.Temperature},
		{ColHumidity, &rec.Humidity},
		{ColBatteryVoltage, &rec.BatteryVoltage},
	}
	for _, n := range numeric {
		v, _, err := toFloat(row[n.col])
		if err != nil {
			return models.TelemetryRecord{}, fmt.Errorf("%s: %w", n.col, err)
		}
		*n.dst = v
	}
	sats, _, err := toFloat(row[ColSatellites])
	if err != nil {
		return models.TelemetryRecord{}, fmt.Errorf("%s: %w", ColSatellites, err)
	}
	rec.SatelliteCount = int(sats)
	rec.ReedSwitchStatus = toText(row[ColReedSwitchStatus])

	links, err := foldGateways(row)
	if err != nil {
		return models.TelemetryRecord{}, err
	}
	rec.GatewayLinks = links
	return rec, nil
}

func foldGateways(row Row) ([]models.GatewayLink, error) {
	count, ok, err := toFloat(row[ColGatewayCount])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ColGatewayCount, err)
	}
	if !ok || !(count > 0) {
		return nil, nil
	}
	// count_gw is data, not schema: never look past the columns present.
	limit := highestGatewayIndex(row)
	if count < float64(limit) {
		limit = int(count)
	}

	var links []models.GatewayLink
	for i := 1; i <= limit; i++ {
		lat, latOK, err := toFloat(row[GatewayColumn("latitude", i)])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", GatewayColumn("latitude", i), err)
		}
		lon, lonOK, err := toFloat(row[GatewayColumn("longitude", i)])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", GatewayColumn("longitude", i), err)
		}
		if !latOK || !lonOK {
			continue
		}
		snr, _, err := toFloat(row[GatewayColumn("snr", i)])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", GatewayColumn("snr", i), err)
		}
		rssi, _, err := toFloat(row[GatewayColumn("rssi", i)])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", GatewayColumn("rssi", i), err)
		}
		links = append(links, models.GatewayLink{
			GatewayID: toText(row[GatewayColumn("id", i)]),
			Latitude:  &lat,
			Longitude: &lon,
			SNR:       snr,
			RSSI:      rssi,
		})
	}
	return links, nil
}

// toFloat reports false for SQL NULL. lib/pq hands NUMERIC columns over as []byte.
// highestGatewayIndex is the largest i with a latitude_gw_i column in row.
func highestGatewayIndex(row Row) int {
	const prefix = "latitude_gw_"
	highest := 0
	for key := range row {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if i, err := strconv.Atoi(key[len(prefix):]); err == nil && i > highest {
			highest = i
		}
	}
	return highest
}

func toFloat(v interface{}) (float64, bool, error) {
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return t, true, nil
	case float32:
		return float64(t), true, nil
	case int64:
		return float64(t), true, nil
	case int32:
		return float64(t), true, nil
	case int:
		return float64(t), true, nil
	case []byte:
		return parseFloat(string(t))
	case string:
		return parseFloat(t)
	default:
		return 0, false, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func parseFloat(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}

func toText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func toTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	case nil:
		return time.Time{}, fmt.Errorf("missing timestamp")
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

// parseTime treats zone-less timestamps as UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}
