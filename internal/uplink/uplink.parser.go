// FilePath: internal/uplink/uplink.parser.go
package uplink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/boatmonitor/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Decoded payload keys produced by the tracker's payload formatter.
const (
	keyBatteryVoltage   = "batteryVoltage"
	keyHumidity         = "humidity"
	keyLatitude         = "latitude"
	keyLongitude        = "longitude"
	keyReedSwitchStatus = "reedSwitchStatus"
	keySatellites       = "satellites"
	keyTemperature      = "temperature"
)

// LineError describes one input line that did not produce a record.
type LineError struct {
	Line int   `json:"line"`
	Err  error `json:"-"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ParseResult holds the records decoded from a blob and the lines that failed.
// len(Records)+len(Failures) equals the number of non-empty lines.
type ParseResult struct {
	Records  []models.TelemetryRecord
	Failures []LineError
}

// storedUplink is the storage integration envelope ({"result": {...}}).
type storedUplink struct {
	Result *uplinkEvent `json:"result"`
}

type uplinkEvent struct {
	ReceivedAt    string         `json:"received_at"`
	UplinkMessage *uplinkMessage `json:"uplink_message"`
}

type uplinkMessage struct {
	DecodedPayload map[string]json.RawMessage `json:"decoded_payload"`
	RxMetadata     []rxMetadata               `json:"rx_metadata"`
}

type rxMetadata struct {
	GatewayIDs struct {
		GatewayID string `json:"gateway_id"`
	} `json:"gateway_ids"`
	RSSI     float64 `json:"rssi"`
	SNR      float64 `json:"snr"`
	Location *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"location"`
}

// ParseUplinks decodes a newline-delimited stream of stored uplinks.
// Bad lines are logged and skipped; order of the input is kept.
func ParseUplinks(blob []byte) ParseResult {
	var result ParseResult
	lineNo := 0
	for _, line := range bytes.Split(blob, []byte("\n")) {
		lineNo++
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rec, err := ParseUplink(line)
		if err != nil {
			nuts.L.Warnf("[UplinkParser] Skipping line %d: %v", lineNo, err)
			result.Failures = append(result.Failures, LineError{Line: lineNo, Err: err})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result
}

// ParseUplink decodes a single uplink. It accepts the storage envelope
// {"result": {...}} as well as a bare uplink event as published over MQTT.
func ParseUplink(line []byte) (models.TelemetryRecord, error) {
	var envelope storedUplink
	if err := json.Unmarshal(line, &envelope); err != nil {
		return models.TelemetryRecord{}, fmt.Errorf("invalid json: %w", err)
	}
	event := envelope.Result
	if event == nil {
		event = &uplinkEvent{}
		if err := json.Unmarshal(line, event); err != nil {
			return models.TelemetryRecord{}, fmt.Errorf("invalid json: %w", err)
		}
	}
	return event.toRecord()
}

func (e *uplinkEvent) toRecord() (models.TelemetryRecord, error) {
	if e.ReceivedAt == "" {
		return models.TelemetryRecord{}, fmt.Errorf("missing received_at")
	}
	receivedAt, err := time.Parse(time.RFC3339Nano, e.ReceivedAt)
	if err != nil {
		return models.TelemetryRecord{}, fmt.Errorf("invalid received_at %q: %w", e.ReceivedAt, err)
	}
	if e.UplinkMessage == nil || e.UplinkMessage.DecodedPayload == nil {
		return models.TelemetryRecord{}, fmt.Errorf("missing uplink_message.decoded_payload")
	}
	p := payload(e.UplinkMessage.DecodedPayload)

	rec := models.TelemetryRecord{ReceivedAt: receivedAt.UTC()}
	if rec.BatteryVoltage, err = p.float(keyBatteryVoltage); err != nil {
		return models.TelemetryRecord{}, err
	}
	if rec.Humidity, err = p.float(keyHumidity); err != nil {
		return models.TelemetryRecord{}, err
	}
	if rec.Latitude, err = p.float(keyLatitude); err != nil {
		return models.TelemetryRecord{}, err
	}
	if rec.Longitude, err = p.float(keyLongitude); err != nil {
		return models.TelemetryRecord{}, err
	}
	if rec.ReedSwitchStatus, err = p.text(keyReedSwitchStatus); err != nil {
		return models.TelemetryRecord{}, err
	}
	sats, err := p.float(keySatellites)
	if err != nil {
		return models.TelemetryRecord{}, err
	}
	rec.SatelliteCount = int(sats)
	if rec.Temperature, err = p.float(keyTemperature); err != nil {
		return models.TelemetryRecord{}, err
	}

	for _, md := range e.UplinkMessage.RxMetadata {
		link := models.GatewayLink{
			GatewayID: md.GatewayIDs.GatewayID,
			SNR:       md.SNR,
			RSSI:      md.RSSI,
		}
		if md.Location != nil {
			link.Latitude = md.Location.Latitude
			link.Longitude = md.Location.Longitude
		}
		rec.GatewayLinks = append(rec.GatewayLinks, link)
	}
	return rec, nil
}

type payload map[string]json.RawMessage

func (p payload) raw(key string) (json.RawMessage, error) {
	v, ok := p[key]
	if !ok || string(v) == "null" {
		return nil, fmt.Errorf("missing decoded field %s", key)
	}
	return v, nil
}

func (p payload) float(key string) (float64, error) {
	v, err := p.raw(key)
	if err != nil {
		return 0, err
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, nil
	}
	// some formatters emit numbers as strings
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("decoded field %s is not numeric: %s", key, string(v))
}

func (p payload) text(key string) (string, error) {
	v, err := p.raw(key)
	if err != nil {
		return "", err
	}
	var value interface{}
	if err := json.Unmarshal(v, &value); err != nil {
		return "", fmt.Errorf("decoded field %s: %w", key, err)
	}
	switch t := value.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("decoded field %s has unsupported type", key)
	}
}
