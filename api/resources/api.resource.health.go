// FilePath: api/resources/api.resource.health.go
package resources

import (
	"context"
	"net/http"
	"time"

	"github.com/boatmonitor/hub/api/middleware"
	"github.com/boatmonitor/hub/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

// @Summary Health check
// @Description Reports service version and warehouse reachability
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errors.APIError
// @Router /health [get]
func healthCheck(svc Dashboard) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := svc.Health(ctx); err != nil {
			apiErr := &errors.APIError{
				Type:    errors.ErrorTypeUnavailable,
				Message: "warehouse unreachable",
				Code:    http.StatusServiceUnavailable,
			}
			respondWithError(w, apiErr.WithRequestID(middleware.RequestIDFrom(r.Context())))
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": nuts.GetVersion(),
		})
	}
}
