package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/visionqa/internal/metrics"
)

func setup(t *testing.T) {
	t.Helper()

	viper.Reset()
	SetDefaults()
	t.Cleanup(viper.Reset)
}

func TestDefaults(t *testing.T) {
	setup(t)

	if got := GetResultsDir(); got != "results" {
		t.Errorf("expected results, got %s", got)
	}
	if got := GetVisionModel(); got != "llava:7b" {
		t.Errorf("expected llava:7b, got %s", got)
	}
	if got := GetVisionProvider(); got != "ollama" {
		t.Errorf("expected ollama, got %s", got)
	}
	if got := GetConcurrency(); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if got := GetInputsDir(); got != "demo" {
		t.Errorf("expected demo, got %s", got)
	}
	if GetLogJSON() || GetLogDebug() || GetJSONFormat() {
		t.Error("boolean settings should default to false")
	}

	policy, err := GetSeverityPolicy()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy != metrics.DashboardPolicy {
		t.Errorf("expected dashboard policy, got %+v", policy)
	}

	catalogPolicy, err := GetCatalogPolicy()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if catalogPolicy != metrics.CatalogPolicy {
		t.Errorf("expected catalog policy, got %+v", catalogPolicy)
	}
}

func TestGetCaptureConfig(t *testing.T) {
	tests := []struct {
		name    string
		set     map[string]any
		want    time.Duration
		wantErr bool
	}{
		{name: "default", want: 60 * time.Second},
		{name: "duration string", set: map[string]any{"capture.timeout": "90s"}, want: 90 * time.Second},
		{name: "headless string", set: map[string]any{"capture.headless": "false"}, want: 60 * time.Second},
		{name: "invalid duration", set: map[string]any{"capture.timeout": "soon"}, wantErr: true},
		{name: "too short", set: map[string]any{"capture.timeout": "10ms"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			for k, v := range tt.set {
				viper.Set(k, v)
			}

			cfg, err := GetCaptureConfig()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Timeout != tt.want {
				t.Errorf("expected timeout %s, got %s", tt.want, cfg.Timeout)
			}
			if cfg.Width != 1280 || cfg.Height != 800 {
				t.Errorf("unexpected viewport %dx%d", cfg.Width, cfg.Height)
			}
			if _, forced := tt.set["capture.headless"]; forced == cfg.Headless {
				t.Errorf("unexpected headless %v", cfg.Headless)
			}
		})
	}
}

func TestSeverityPolicyOverrides(t *testing.T) {
	setup(t)

	viper.Set("severity.low_max", 1)
	viper.Set("severity.medium_max", 3)

	policy, err := GetSeverityPolicy()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.Classify(2) != metrics.SeverityMedium || policy.Classify(4) != metrics.SeverityHigh {
		t.Errorf("overrides not applied: %+v", policy)
	}

	viper.Set("severity.medium_max", 0)
	if _, err := GetSeverityPolicy(); err == nil {
		t.Error("expected error for unordered thresholds")
	}
}

func TestConcurrencyFloor(t *testing.T) {
	setup(t)

	viper.Set("pipeline.concurrency", 0)
	if got := GetConcurrency(); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}
