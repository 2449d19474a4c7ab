package uplink

import (
	"strings"
	"testing"
	"time"
)

const goodLine = `{"result":{"received_at":"2024-06-01T10:00:05.123456789Z","uplink_message":{"decoded_payload":{"batteryVoltage":3.61,"humidity":71.5,"latitude":47.5,"longitude":9.3,"reedSwitchStatus":"closed","satellites":7,"temperature":18.25},"rx_metadata":[{"gateway_ids":{"gateway_id":"gw-harbour"},"rssi":-112,"snr":-14.5,"location":{"latitude":47.51,"longitude":9.31}},{"gateway_ids":{"gateway_id":"gw-hill"},"rssi":-118,"snr":-19}]}}}`

func TestParseUplinksCountsEveryNonEmptyLine(t *testing.T) {
	missingField := `{"result":{"received_at":"2024-06-01T11:00:00Z","uplink_message":{"decoded_payload":{"humidity":70,"latitude":0,"longitude":0,"reedSwitchStatus":"open","satellites":0,"temperature":18}}}}`
	blob := strings.Join([]string{
		goodLine,
		"",
		"not json at all",
		"   ",
		missingField,
		`{"result":{"received_at":"yesterday","uplink_message":{"decoded_payload":{}}}}`,
		goodLine,
	}, "\n")

	res := ParseUplinks([]byte(blob))

	if got, want := len(res.Records), 2; got != want {
		t.Fatalf("records = %d, want %d", got, want)
	}
	if got, want := len(res.Failures), 3; got != want {
		t.Fatalf("failures = %d, want %d", got, want)
	}
	if got, want := len(res.Records)+len(res.Failures), 5; got != want {
		t.Errorf("records+failures = %d, want %d non-empty lines", got, want)
	}
	if res.Failures[0].Line != 3 {
		t.Errorf("first failure line = %d, want 3", res.Failures[0].Line)
	}
	if !strings.Contains(res.Failures[1].Error(), "batteryVoltage") {
		t.Errorf("missing field failure = %q, want mention of batteryVoltage", res.Failures[1].Error())
	}
}

func TestParseUplinkFields(t *testing.T) {
	rec, err := ParseUplink([]byte(goodLine))
	if err != nil {
		t.Fatalf("ParseUplink: %v", err)
	}
	want := time.Date(2024, 6, 1, 10, 0, 5, 123456789, time.UTC)
	if !rec.ReceivedAt.Equal(want) || rec.ReceivedAt.Location() != time.UTC {
		t.Errorf("received_at = %v, want %v UTC", rec.ReceivedAt, want)
	}
	if rec.BatteryVoltage != 3.61 || rec.Humidity != 71.5 || rec.Temperature != 18.25 {
		t.Errorf("unexpected measurements: %+v", rec)
	}
	if rec.SatelliteCount != 7 || rec.ReedSwitchStatus != "closed" {
		t.Errorf("satellites/reed = %d/%q", rec.SatelliteCount, rec.ReedSwitchStatus)
	}
	if len(rec.GatewayLinks) != 2 {
		t.Fatalf("gateway links = %d, want 2", len(rec.GatewayLinks))
	}
	if _, ok := rec.GatewayLinks[0].Position(); !ok {
		t.Errorf("first gateway should have a position")
	}
	if _, ok := rec.GatewayLinks[1].Position(); ok {
		t.Errorf("second gateway has no location and should not report a position")
	}
}

func TestParseUplinkAcceptsBareEventAndLooseTypes(t *testing.T) {
	line := `{"received_at":"2024-06-01T10:00:00+02:00","uplink_message":{"decoded_payload":{"batteryVoltage":"3.5","humidity":60,"latitude":47.1,"longitude":8.9,"reedSwitchStatus":true,"satellites":4.0,"temperature":20}}}`
	rec, err := ParseUplink([]byte(line))
	if err != nil {
		t.Fatalf("ParseUplink: %v", err)
	}
	if rec.ReceivedAt.Hour() != 8 {
		t.Errorf("received_at hour = %d, want 8 (UTC)", rec.ReceivedAt.Hour())
	}
	if rec.BatteryVoltage != 3.5 {
		t.Errorf("battery = %v, want 3.5", rec.BatteryVoltage)
	}
	if rec.ReedSwitchStatus != "true" {
		t.Errorf("reed switch = %q, want \"true\"", rec.ReedSwitchStatus)
	}
}

func TestParseUplinkRejectsNullField(t *testing.T) {
	line := `{"result":{"received_at":"2024-06-01T10:00:00Z","uplink_message":{"decoded_payload":{"batteryVoltage":3.5,"humidity":60,"latitude":null,"longitude":8.9,"reedSwitchStatus":"open","satellites":4,"temperature":20}}}}`
	if _, err := ParseUplink([]byte(line)); err == nil {
		t.Fatalf("expected error for null latitude")
	}
}
