package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	s := NewService(Config{MetricsEnabled: true})

	before := testutil.ToFloat64(uplinkLines.WithLabelValues(resultError))
	s.UplinkLines(4, 2)
	if got := testutil.ToFloat64(uplinkLines.WithLabelValues(resultError)) - before; got != 2 {
		t.Errorf("failed lines delta = %v, want 2", got)
	}

	before = testutil.ToFloat64(recordsDropped.WithLabelValues("warehouse"))
	s.RecordsDropped("warehouse", 0)
	s.RecordsDropped("warehouse", 3)
	if got := testutil.ToFloat64(recordsDropped.WithLabelValues("warehouse")) - before; got != 3 {
		t.Errorf("dropped delta = %v, want 3", got)
	}

	before = testutil.ToFloat64(upstreamRequests.WithLabelValues("weather", resultError))
	s.ObserveUpstream("weather", time.Now(), errors.New("boom"))
	if got := testutil.ToFloat64(upstreamRequests.WithLabelValues("weather", resultError)) - before; got != 1 {
		t.Errorf("upstream error delta = %v, want 1", got)
	}

	before = testutil.ToFloat64(cacheLookups.WithLabelValues("history", "hit"))
	s.CacheHit("history")
	if got := testutil.ToFloat64(cacheLookups.WithLabelValues("history", "hit")) - before; got != 1 {
		t.Errorf("cache hit delta = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	s := NewService(Config{MetricsEnabled: true})
	s.RecordEvent("uplink.archived", map[string]string{"device": "boat-1"})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "boat_hub_events_total") {
		t.Errorf("metrics output missing events counter")
	}

	disabled := NewService(Config{})
	rec = httptest.NewRecorder()
	disabled.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled status = %d, want 404", rec.Code)
	}
}
