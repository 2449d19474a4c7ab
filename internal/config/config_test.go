package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("BOAT_DATABASE__WAREHOUSE__HOST", "warehouse.local")
	t.Setenv("BOAT_TTN__APPLICATION_ID", "lora-test-sli1")
	t.Setenv("BOAT_TTN__API_KEY", "NNSXS.secret")
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)
	t.Setenv("BOAT_ALIGNMENT__MAX_TOLERANCE", "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Warehouse.Host != "warehouse.local" || cfg.Database.Warehouse.Table != "lora_iot" {
		t.Errorf("warehouse = %+v", cfg.Database.Warehouse)
	}
	if cfg.TTN.ApplicationID != "lora-test-sli1" || cfg.TTN.Lookback != time.Hour {
		t.Errorf("ttn = %+v", cfg.TTN)
	}
	if cfg.Alignment.Bucket != time.Hour {
		t.Errorf("bucket = %v, want 1h", cfg.Alignment.Bucket)
	}
	if cfg.Alignment.MaxTolerance != 90*time.Minute {
		t.Errorf("max tolerance = %v, want 90m", cfg.Alignment.MaxTolerance)
	}
	if cfg.Geometry.Unclamped {
		t.Errorf("line weights should be clamped by default")
	}
}

func TestLoadMonitoringKeys(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Monitoring.MetricsEnabled {
		t.Errorf("metrics should be enabled by default")
	}
	for _, key := range viper.AllKeys() {
		if key == "monitoring.log_level" {
			t.Errorf("monitoring.log_level is registered but nothing applies it")
		}
	}
}

func TestLoadRequiresDeviceNetworkCredentials(t *testing.T) {
	viper.Reset()
	t.Setenv("BOAT_DATABASE__WAREHOUSE__HOST", "warehouse.local")
	t.Setenv("BOAT_TTN__APPLICATION_ID", "lora-test-sli1")
	t.Setenv("BOAT_TTN__API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error without ttn api key")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)
	t.Setenv("BOAT_DISPLAY__TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for unknown timezone")
	}
}
