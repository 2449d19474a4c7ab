// FilePath: api/resources/resources.go
package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/boatmonitor/hub/internal/dashboard"
	"github.com/boatmonitor/hub/internal/errors"
	"github.com/boatmonitor/hub/internal/models"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

// Dashboard is the view layer the handlers render.
type Dashboard interface {
	Live(ctx context.Context, window time.Duration) (*models.LiveView, error)
	History(ctx context.Context, q dashboard.HistoryQuery) (*models.HistoryView, error)
	ExportHistory(ctx context.Context, q dashboard.HistoryQuery) ([]byte, error)
	Recent(ctx context.Context, limit int) (*models.RecentView, error)
	Health(ctx context.Context) error
}

// Resources holds all HTTP resource handlers
type Resources struct {
	Telemetry   *TelemetryHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     http.Handler
}

// NewResources creates a new Resources instance
func NewResources(svc Dashboard, metrics http.Handler) *Resources {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	if metrics == nil {
		metrics = http.NotFoundHandler()
	}
	return &Resources{
		Telemetry:   &TelemetryHandlers{dashboard: svc, decoder: decoder},
		HealthCheck: healthCheck(svc),
		Metrics:     metrics,
	}
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", err.Error())
	} else {
		nuts.L.Warnf("[API] %s", err.Error())
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
