// FilePath: internal/ingest/ingest.go
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boatmonitor/hub/internal/models"
	"github.com/boatmonitor/hub/internal/uplink"
	nuts "github.com/vaudience/go-nuts"
)

// EventUplinkArchived is emitted with the stored record after each insert.
const EventUplinkArchived = "uplink.archived"

// EventUplinkRejected is emitted with the topic when a message cannot be parsed.
const EventUplinkRejected = "uplink.rejected"

// Subscriber delivers broker messages.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	Close()
}

// Archiver stores parsed uplinks.
type Archiver interface {
	InsertRecords(ctx context.Context, records []models.TelemetryRecord) error
}

// Config selects the application whose uplinks are archived.
type Config struct {
	ApplicationID string
	Tenant        string
	QoS           byte
	InsertTimeout time.Duration
}

// Service archives live uplinks from the device network broker.
type Service struct {
	sub    Subscriber
	store  Archiver
	config Config
	events *nuts.EventEmitter
}

func New(sub Subscriber, store Archiver, config Config) *Service {
	if config.InsertTimeout <= 0 {
		config.InsertTimeout = 10 * time.Second
	}
	return &Service{
		sub:    sub,
		store:  store,
		config: config,
		events: nuts.NewEventEmitter(),
	}
}

// Topic returns the uplink topic for all devices of an application.
func Topic(applicationID, tenant string) string {
	if tenant == "" {
		tenant = "ttn"
	}
	return fmt.Sprintf("v3/%s@%s/devices/+/up", applicationID, tenant)
}

// DeviceID extracts the device segment of an uplink topic.
func DeviceID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 5 && parts[2] == "devices" {
		return parts[3]
	}
	return ""
}

func (s *Service) Start() error {
	topic := Topic(s.config.ApplicationID, s.config.Tenant)
	nuts.L.Infof("[Ingest] Subscribing to %s", topic)
	if err := s.sub.Subscribe(topic, s.config.QoS, s.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

func (s *Service) Stop() {
	s.sub.Close()
}

// OnEvent registers a callback for archive events.
func (s *Service) OnEvent(event string, handler func(args ...interface{})) {
	s.events.On(event, "ingest_handler", handler)
}

func (s *Service) handle(topic string, payload []byte) {
	rec, err := uplink.ParseUplink(payload)
	if err != nil {
		nuts.L.Warnf("[Ingest] Skipping message on %s: %v", topic, err)
		s.events.Emit(EventUplinkRejected, topic)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.InsertTimeout)
	defer cancel()
	if err := s.store.InsertRecords(ctx, []models.TelemetryRecord{rec}); err != nil {
		nuts.L.Errorf("[Ingest] Failed to archive uplink from %s: %v", DeviceID(topic), err)
		return
	}
	s.events.Emit(EventUplinkArchived, DeviceID(topic), rec)
}
