// FilePath: api/resources/api.resource.telemetry.go
package resources

import (
	"net/http"
	"strconv"

	"github.com/boatmonitor/hub/api/middleware"
	"github.com/boatmonitor/hub/internal/dashboard"
	"github.com/boatmonitor/hub/internal/errors"
	"github.com/boatmonitor/hub/internal/models"
	"github.com/gorilla/schema"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TelemetryHandlers encapsulates the telemetry-related HTTP handlers
type TelemetryHandlers struct {
	dashboard Dashboard
	decoder   *schema.Decoder
}

// @Summary Live position and uplinks
// @Description Uplinks of the live window with the latest GPS fix and gateway links
// @Tags telemetry
// @Produce json
// @Param window query string false "Window, e.g. 1h"
// @Success 200 {object} models.LiveView
// @Failure 502 {object} errors.APIError
// @Router /live [get]
func (h *TelemetryHandlers) GetLive(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFrom(r.Context())

	var filters models.LiveFilters
	if err := h.decoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	if filters.Window.Duration < 0 {
		respondWithError(w, errors.NewValidationError("window must not be negative", nil).WithRequestID(requestID))
		return
	}

	view, err := h.dashboard.Live(r.Context(), filters.Window.Duration)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// @Summary Aligned history
// @Description Resampled warehouse history merged with the nearest weather sample
// @Tags telemetry
// @Produce json
// @Param start query string false "Start (RFC3339 or date)"
// @Param end query string false "End (RFC3339 or date)"
// @Param bucket query string false "Bucket width, e.g. 1h"
// @Success 200 {object} models.HistoryView
// @Failure 400 {object} errors.APIError
// @Failure 422 {object} errors.APIError
// @Router /history [get]
func (h *TelemetryHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFrom(r.Context())

	q, apiErr := h.historyQuery(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	view, err := h.dashboard.History(r.Context(), q)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// @Summary Aligned history workbook
// @Tags telemetry
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /history.xlsx [get]
func (h *TelemetryHandlers) GetHistoryXLSX(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFrom(r.Context())

	q, apiErr := h.historyQuery(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	data, err := h.dashboard.ExportHistory(r.Context(), q)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="history.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// @Summary Recent archived records
// @Tags telemetry
// @Produce json
// @Param limit query int false "Number of records (default 20)"
// @Success 200 {object} models.RecentView
// @Router /recent [get]
func (h *TelemetryHandlers) GetRecent(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFrom(r.Context())

	var filters models.RecentFilters
	if err := h.decoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	if filters.Limit < 0 {
		respondWithError(w, errors.NewValidationError("limit must not be negative", nil).WithRequestID(requestID))
		return
	}

	view, err := h.dashboard.Recent(r.Context(), filters.Limit)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (h *TelemetryHandlers) historyQuery(r *http.Request) (dashboard.HistoryQuery, *errors.APIError) {
	var filters models.HistoryFilters
	if err := h.decoder.Decode(&filters, r.URL.Query()); err != nil {
		return dashboard.HistoryQuery{}, errors.NewValidationError("invalid query parameters", err)
	}
	return dashboard.HistoryQuery{
		Start:  filters.Start.Time,
		End:    filters.End.Time,
		Bucket: filters.Bucket.Duration,
	}, nil
}
