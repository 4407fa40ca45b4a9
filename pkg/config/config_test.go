package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AFORO_CONFIG", "")
	t.Setenv("AFORO_SPIKE_TOLERANCE", "")
	t.Setenv("AFORO_SPIKE_WINDOW_MINUTES", "")
	t.Setenv("AFORO_TIMEZONE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SpikeTolerance != 150 {
		t.Errorf("SpikeTolerance = %d, want 150", cfg.SpikeTolerance)
	}
	if cfg.SpikeWindowMinutes != 30 {
		t.Errorf("SpikeWindowMinutes = %d, want 30", cfg.SpikeWindowMinutes)
	}
	if cfg.AsyncWorkers != 2 || cfg.AsyncQueueSize != 500 {
		t.Errorf("async pool = %d/%d, want 2/500", cfg.AsyncWorkers, cfg.AsyncQueueSize)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aforo.yaml")
	contents := `
spiketolerance: 80
spikewindowminutes: 10
timezone: America/Bogota
excludedvehicles:
  - BUS-077
  - TRAM-2
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AFORO_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SpikeTolerance != 80 || cfg.SpikeWindowMinutes != 10 {
		t.Errorf("spike config = %d/%d, want 80/10", cfg.SpikeTolerance, cfg.SpikeWindowMinutes)
	}
	if cfg.Timezone != "America/Bogota" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if len(cfg.ExcludedVehicles) != 2 {
		t.Errorf("ExcludedVehicles = %v", cfg.ExcludedVehicles)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("AFORO_CONFIG", "")
	t.Setenv("AFORO_SPIKE_TOLERANCE", "200")
	t.Setenv("AFORO_EXCLUDED_VEHICLES", "bus-001, BUS-002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SpikeTolerance != 200 {
		t.Errorf("SpikeTolerance = %d, want 200", cfg.SpikeTolerance)
	}
	if !cfg.IsExcluded("BUS-001") {
		t.Errorf("BUS-001 should be excluded")
	}
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("AFORO_CONFIG", "")
	t.Setenv("AFORO_TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestIsExcludedCaseInsensitive(t *testing.T) {
	cfg := &Config{ExcludedVehicles: []string{"Bus-077", " tram-2 "}}

	if !cfg.IsExcluded("BUS-077") {
		t.Errorf("BUS-077 should match Bus-077")
	}
	if !cfg.IsExcluded("TRAM-2") {
		t.Errorf("TRAM-2 should match padded tram-2")
	}
	if cfg.IsExcluded("BUS-078") {
		t.Errorf("BUS-078 should not be excluded")
	}
}
