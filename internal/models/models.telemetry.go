// FilePath: internal/models/models.telemetry.go
package models

import "time"

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TelemetryRecord is one decoded uplink or warehouse row.
// Latitude/Longitude of exactly (0,0) mean "no fix"; use Fix() instead of
// reading the fields directly.
type TelemetryRecord struct {
	ReceivedAt       time.Time     `json:"received_at" db:"received_at"`
	Latitude         float64       `json:"latitude" db:"latitude"`
	Longitude        float64       `json:"longitude" db:"longitude"`
	Temperature      float64       `json:"temperature" db:"temperature"`
	Humidity         float64       `json:"humidity" db:"humidity"`
	BatteryVoltage   float64       `json:"battery_voltage" db:"batteryVoltage"`
	ReedSwitchStatus string        `json:"reed_switch_status" db:"reedSwitchStatus"`
	SatelliteCount   int           `json:"satellite_count" db:"satellites"`
	GatewayLinks     []GatewayLink `json:"gateway_links,omitempty"`
}

// Fix returns the record position, or false when the record carries the
// (0,0) no-fix sentinel.
func (r TelemetryRecord) Fix() (Coordinate, bool) {
	if r.Latitude == 0 && r.Longitude == 0 {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}, true
}

// GatewayLink is a relay station that received the uplink.
// Coordinates are nil when the gateway did not report a location.
type GatewayLink struct {
	GatewayID string   `json:"gateway_id"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	SNR       float64  `json:"snr_db"`
	RSSI      float64  `json:"rssi_dbm"`
}

// Position returns the gateway location if both coordinates are known.
func (g GatewayLink) Position() (Coordinate, bool) {
	if g.Latitude == nil || g.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *g.Latitude, Longitude: *g.Longitude}, true
}

// LinkGeometry annotates a gateway link with its distance to the device
// and the line weight used to draw it.
type LinkGeometry struct {
	GatewayID  string     `json:"gateway_id"`
	Gateway    Coordinate `json:"gateway"`
	DistanceM  float64    `json:"distance_m"`
	LineWeight float64    `json:"line_weight"`
	SNR        float64    `json:"snr_db"`
	RSSI       float64    `json:"rssi_dbm"`
}
