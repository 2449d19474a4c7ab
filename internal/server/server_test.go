package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boatmonitor/hub/internal/config"
	"github.com/boatmonitor/hub/internal/dashboard"
	"github.com/boatmonitor/hub/internal/monitoring"
)

func TestInitCacheFallsBackToMemory(t *testing.T) {
	mon := monitoring.NewService(monitoring.Config{})
	c := initCache(context.Background(), config.RedisConfig{Enabled: false}, mon)

	var got int
	err := c.GetOrCompute(context.Background(), "k", time.Minute, &got, func(context.Context) (interface{}, error) {
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Fatalf("got %d, err %v", got, err)
	}
}

func TestBuildHandlerCORSAndRequestID(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{AllowedOrigins: []string{"https://boat.example"}}}
	s := New(cfg)
	s.monitoring = monitoring.NewService(monitoring.Config{MetricsEnabled: true})
	s.dashboard = dashboard.New(nil, nil, nil, dashboard.Config{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Origin", "https://boat.example")
	rec := httptest.NewRecorder()
	s.buildHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://boat.example" {
		t.Errorf("CORS header = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}
}
