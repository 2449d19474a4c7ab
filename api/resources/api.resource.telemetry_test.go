package resources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boatmonitor/hub/internal/dashboard"
	apierrors "github.com/boatmonitor/hub/internal/errors"
	"github.com/boatmonitor/hub/internal/models"
)

type fakeDashboard struct {
	window    time.Duration
	query     dashboard.HistoryQuery
	limit     int
	err       error
	healthErr error
}

func (f *fakeDashboard) Live(_ context.Context, window time.Duration) (*models.LiveView, error) {
	f.window = window
	if f.err != nil {
		return nil, f.err
	}
	return &models.LiveView{Window: window.String(), Records: []models.TelemetryRecord{}}, nil
}

func (f *fakeDashboard) History(_ context.Context, q dashboard.HistoryQuery) (*models.HistoryView, error) {
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	return &models.HistoryView{Start: q.Start, End: q.End, Series: models.AlignedSeries{}}, nil
}

func (f *fakeDashboard) ExportHistory(_ context.Context, q dashboard.HistoryQuery) ([]byte, error) {
	f.query = q
	return []byte("PK"), f.err
}

func (f *fakeDashboard) Recent(_ context.Context, limit int) (*models.RecentView, error) {
	f.limit = limit
	return &models.RecentView{Records: []models.TelemetryRecord{}}, f.err
}

func (f *fakeDashboard) Health(context.Context) error { return f.healthErr }

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var body apierrors.APIError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestGetLive(t *testing.T) {
	svc := &fakeDashboard{}
	res := NewResources(svc, nil)

	rec := httptest.NewRecorder()
	res.Telemetry.GetLive(rec, httptest.NewRequest(http.MethodGet, "/v1/live?window=30m", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.window != 30*time.Minute {
		t.Errorf("window = %v", svc.window)
	}

	rec = httptest.NewRecorder()
	res.Telemetry.GetLive(rec, httptest.NewRequest(http.MethodGet, "/v1/live?window=soon", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid window status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Type != apierrors.ErrorTypeValidation || body.RequestID == "" {
		t.Errorf("error body = %+v", body)
	}
}

func TestGetLiveUpstreamFailure(t *testing.T) {
	res := NewResources(&fakeDashboard{err: apierrors.NewUpstreamError("ttn down", nil)}, nil)
	rec := httptest.NewRecorder()
	res.Telemetry.GetLive(rec, httptest.NewRequest(http.MethodGet, "/v1/live", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestGetHistory(t *testing.T) {
	svc := &fakeDashboard{}
	res := NewResources(svc, nil)

	rec := httptest.NewRecorder()
	res.Telemetry.GetHistory(rec, httptest.NewRequest(http.MethodGet,
		"/v1/history?start=2024-07-01&end=2024-07-02T06:00:00Z&bucket=15m", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if !svc.query.Start.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)) ||
		!svc.query.End.Equal(time.Date(2024, 7, 2, 6, 0, 0, 0, time.UTC)) ||
		svc.query.Bucket != 15*time.Minute {
		t.Errorf("query = %+v", svc.query)
	}

	rec = httptest.NewRecorder()
	res.Telemetry.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	if rec.Code != http.StatusOK || !svc.query.Start.IsZero() {
		t.Errorf("defaults: status = %d query = %+v", rec.Code, svc.query)
	}
}

func TestGetHistorySampleMismatch(t *testing.T) {
	mismatch := &apierrors.SampleCountMismatchError{Variable: "temperature_2m", Expected: 24, Got: 20}
	res := NewResources(&fakeDashboard{err: mismatch}, nil)
	rec := httptest.NewRecorder()
	res.Telemetry.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if body := decodeError(t, rec); body.Type != apierrors.ErrorTypeSampleCountMismatch {
		t.Errorf("type = %s", body.Type)
	}
}

func TestGetHistoryXLSX(t *testing.T) {
	res := NewResources(&fakeDashboard{}, nil)
	rec := httptest.NewRecorder()
	res.Telemetry.GetHistoryXLSX(rec, httptest.NewRequest(http.MethodGet, "/v1/history.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != xlsxContentType || rec.Body.String() != "PK" {
		t.Errorf("content type %s body %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
}

func TestGetRecent(t *testing.T) {
	svc := &fakeDashboard{}
	res := NewResources(svc, nil)

	rec := httptest.NewRecorder()
	res.Telemetry.GetRecent(rec, httptest.NewRequest(http.MethodGet, "/v1/recent?limit=5", nil))
	if rec.Code != http.StatusOK || svc.limit != 5 {
		t.Errorf("status = %d limit = %d", rec.Code, svc.limit)
	}

	rec = httptest.NewRecorder()
	res.Telemetry.GetRecent(rec, httptest.NewRequest(http.MethodGet, "/v1/recent?limit=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	res := NewResources(&fakeDashboard{}, nil)
	rec := httptest.NewRecorder()
	res.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	res = NewResources(&fakeDashboard{healthErr: errors.New("down")}, nil)
	rec = httptest.NewRecorder()
	res.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
