package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boatmonitor/hub/internal/models"
)

const uplinkMessage = `{"end_device_ids":{"device_id":"boat-1"},"received_at":"2024-06-01T10:00:05Z","uplink_message":{"decoded_payload":{"batteryVoltage":3.61,"humidity":71.5,"latitude":47.5,"longitude":9.3,"reedSwitchStatus":"closed","satellites":7,"temperature":18.25},"rx_metadata":[{"gateway_ids":{"gateway_id":"gw-harbour"},"rssi":-112,"snr":-14.5}]}}`

type fakeSubscriber struct {
	topic   string
	qos     byte
	handler func(topic string, payload []byte)
	closed  bool
}

func (f *fakeSubscriber) Subscribe(topic string, qos byte, handler func(string, []byte)) error {
	f.topic, f.qos, f.handler = topic, qos, handler
	return nil
}

func (f *fakeSubscriber) Close() { f.closed = true }

type fakeArchiver struct {
	mu      sync.Mutex
	records []models.TelemetryRecord
	err     error
}

func (f *fakeArchiver) InsertRecords(_ context.Context, recs []models.TelemetryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, recs...)
	return nil
}

func TestTopic(t *testing.T) {
	if got := Topic("boat-monitor", "ttn"); got != "v3/boat-monitor@ttn/devices/+/up" {
		t.Errorf("Topic = %s", got)
	}
	if got := Topic("boat-monitor", ""); got != "v3/boat-monitor@ttn/devices/+/up" {
		t.Errorf("Topic with default tenant = %s", got)
	}
	if got := DeviceID("v3/boat-monitor@ttn/devices/boat-1/up"); got != "boat-1" {
		t.Errorf("DeviceID = %s", got)
	}
	if got := DeviceID("garbage"); got != "" {
		t.Errorf("DeviceID of garbage = %s", got)
	}
}

func TestHandleArchivesParsedUplinks(t *testing.T) {
	sub := &fakeSubscriber{}
	store := &fakeArchiver{}
	svc := New(sub, store, Config{ApplicationID: "boat-monitor", Tenant: "ttn", QoS: 1})

	archived := make(chan string, 1)
	svc.OnEvent(EventUplinkArchived, func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				archived <- id
			}
		}
	})

	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sub.qos != 1 || sub.topic != "v3/boat-monitor@ttn/devices/+/up" {
		t.Fatalf("subscribed to %s qos %d", sub.topic, sub.qos)
	}

	sub.handler("v3/boat-monitor@ttn/devices/boat-1/up", []byte(uplinkMessage))
	sub.handler("v3/boat-monitor@ttn/devices/boat-1/up", []byte(`{"broken":`))

	if len(store.records) != 1 {
		t.Fatalf("archived %d records, want 1", len(store.records))
	}
	if store.records[0].SatelliteCount != 7 || len(store.records[0].GatewayLinks) != 1 {
		t.Errorf("record = %+v", store.records[0])
	}

	select {
	case id := <-archived:
		if id != "boat-1" {
			t.Errorf("event device = %s", id)
		}
	case <-time.After(time.Second):
		t.Error("no archive event")
	}

	svc.Stop()
	if !sub.closed {
		t.Error("Stop did not close subscriber")
	}
}

func TestHandleInsertFailure(t *testing.T) {
	sub := &fakeSubscriber{}
	store := &fakeArchiver{err: errors.New("db down")}
	svc := New(sub, store, Config{ApplicationID: "boat-monitor"})
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sub.handler("v3/boat-monitor@ttn/devices/boat-1/up", []byte(uplinkMessage))
	if len(store.records) != 0 {
		t.Errorf("records stored despite error")
	}
}
