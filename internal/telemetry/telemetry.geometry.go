// FilePath: internal/telemetry/telemetry.geometry.go
package telemetry

import (
	"math"

	"github.com/boatmonitor/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	earthRadiusM = 6371000.0

	// SNR domain mapped onto line widths: weak links draw thick.
	snrWeak        = -20.0
	snrStrong      = -10.0
	weightAtWeak   = 5.0
	weightAtStrong = 1.0
)

// GeometryOptions tunes LinkGeometries.
type GeometryOptions struct {
	// Unclamped keeps the raw linear weight for SNR outside [-20, -10] dB.
	Unclamped bool
}

// HaversineDistance is the spherical great-circle distance in meters.
func HaversineDistance(a, b models.Coordinate) float64 {
	phi1, phi2 := a.Latitude*math.Pi/180, b.Latitude*math.Pi/180
	dPhi, dLambda := (b.Latitude-a.Latitude)*math.Pi/180, (b.Longitude-a.Longitude)*math.Pi/180
	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// LineWeight maps SNR linearly from [-20, -10] dB onto [5, 1] px.
func LineWeight(snr float64, opts GeometryOptions) float64 {
	w := weightAtWeak + (snr-snrWeak)*(weightAtStrong-weightAtWeak)/(snrStrong-snrWeak)
	if opts.Unclamped {
		return w
	}
	return math.Max(weightAtStrong, math.Min(weightAtWeak, w))
}

// LinkGeometries annotates each located gateway of rec with its distance to
// the device and a line weight. Links without coordinates are skipped; a
// record without a fix has no geometry.
func LinkGeometries(rec models.TelemetryRecord, opts GeometryOptions) []models.LinkGeometry {
	device, ok := rec.Fix()
	if !ok {
		return nil
	}
	out := make([]models.LinkGeometry, 0, len(rec.GatewayLinks))
	for _, link := range rec.GatewayLinks {
		gw, ok := link.Position()
		if !ok {
			nuts.L.Warnf("[Geometry] Gateway %s has no location, skipped", link.GatewayID)
			continue
		}
		out = append(out, models.LinkGeometry{
			GatewayID:  link.GatewayID,
			Gateway:    gw,
			DistanceM:  HaversineDistance(device, gw),
			LineWeight: LineWeight(link.SNR, opts),
			SNR:        link.SNR,
			RSSI:       link.RSSI,
		})
	}
	return out
}
