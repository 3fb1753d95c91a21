package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opscart/tariff-optimizer/pkg/optimizer"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.StorageEnabled {
		t.Error("storage should be disabled by default")
	}
	if cfg.CatalogueSource != "file" {
		t.Errorf("CatalogueSource = %s, want file", cfg.CatalogueSource)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
	if cfg.DefaultPeriodDays != 30 {
		t.Errorf("DefaultPeriodDays = %d, want 30", cfg.DefaultPeriodDays)
	}
	if cfg.SafetyMargin != 0 {
		t.Errorf("SafetyMargin = %f, want 0", cfg.SafetyMargin)
	}
	if cfg.Increments["3.0TD"] != 1 {
		t.Errorf("3.0TD increment = %f, want 1", cfg.Increments["3.0TD"])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_ENABLED", "true")
	t.Setenv("DATABASE_URL", "postgres://localhost/tariffs")
	t.Setenv("CATALOGUE_SOURCE", "postgres")
	t.Setenv("CATALOGUE_CACHE_TTL", "90s")
	t.Setenv("SAFETY_MARGIN", "0.1")
	t.Setenv("DEMAND_LOOKBACK_DAYS", "14")
	t.Setenv("HIGH_DAILY_KWH", "not-a-number")

	cfg := NewConfig()

	if !cfg.StorageEnabled {
		t.Error("STORAGE_ENABLED=true not applied")
	}
	if cfg.CatalogueSource != "postgres" {
		t.Errorf("CatalogueSource = %s, want postgres", cfg.CatalogueSource)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v, want 90s", cfg.CacheTTL)
	}
	if cfg.SafetyMargin != 0.1 {
		t.Errorf("SafetyMargin = %f, want 0.1", cfg.SafetyMargin)
	}
	if cfg.DemandLookback() != 14*24*time.Hour {
		t.Errorf("DemandLookback = %v, want 336h", cfg.DemandLookback())
	}
	if cfg.HighDailyKWh != 50 {
		t.Errorf("malformed value should keep default, got %f", cfg.HighDailyKWh)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should be valid: %v", err)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariff-sim.yaml")
	doc := `
catalogue_path: /etc/tariffs.yaml
cache_ttl: 5m
safety_margin: 0.05
increments:
  2.0TD: 0.5
  6.1TD: 2
log_level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.CataloguePath != "/etc/tariffs.yaml" {
		t.Errorf("CataloguePath = %s", cfg.CataloguePath)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.SafetyMargin != 0.05 {
		t.Errorf("SafetyMargin = %f, want 0.05", cfg.SafetyMargin)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.CatalogueSource != "file" {
		t.Errorf("absent key should keep default, got %s", cfg.CatalogueSource)
	}
	if cfg.Increments["2.0TD"] != 0.5 || cfg.Increments["6.1TD"] != 2 {
		t.Errorf("file increments not applied: %v", cfg.Increments)
	}
	if cfg.Increments["3.0TD"] != 1 {
		t.Errorf("default increments should be merged, got %v", cfg.Increments)
	}
}

func TestLoadFileIncrementsIgnoreCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariff-sim.yaml")
	if err := os.WriteFile(path, []byte("increments:\n  3.0td: 0.5\n  6.x: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if len(cfg.Increments) != 3 {
		t.Errorf("case variants should collapse into one key, got %v", cfg.Increments)
	}
	if cfg.Increments["3.0TD"] != 0.5 {
		t.Errorf("file value should replace the default, got %v", cfg.Increments)
	}

	o := optimizer.New(cfg.OptimizerRules())
	for i := 0; i < 100; i++ {
		if step := o.Increment("3.0TD"); step != 0.5 {
			t.Fatalf("Increment(3.0TD) = %f, want 0.5", step)
		}
		if step := o.Increment("6.1TD"); step != 2 {
			t.Fatalf("Increment(6.1TD) = %f, want 2", step)
		}
	}
}

func TestLoadFileErrors(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("safety_margin: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	before := len(cfg.Increments)
	if err := cfg.LoadFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
	if len(cfg.Increments) != before {
		t.Error("failed load should keep increments")
	}
}

func TestLoadUsesConfigFileEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariff-sim.yaml")
	if err := os.WriteFile(path, []byte("output_format: xml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigFileEnv, path)

	if _, err := Load(); err == nil {
		t.Error("Load should validate the overlaid config")
	}
}

func TestPresets(t *testing.T) {
	cfg := NewConfig()
	cfg.UseBufferedPreset()
	if cfg.SafetyMargin != 0.05 {
		t.Errorf("buffered SafetyMargin = %f, want 0.05", cfg.SafetyMargin)
	}
	if cfg.HighDailyKWh != 80 {
		t.Errorf("buffered HighDailyKWh = %f, want 80", cfg.HighDailyKWh)
	}

	cfg.UseStrictPreset()
	if cfg.SafetyMargin != 0 {
		t.Errorf("strict SafetyMargin = %f, want 0", cfg.SafetyMargin)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"storage without url", func(c *Config) { c.StorageEnabled = true; c.DatabaseURL = "" }, true},
		{"unknown catalogue", func(c *Config) { c.CatalogueSource = "ftp" }, true},
		{"file without path", func(c *Config) { c.CataloguePath = "" }, true},
		{"postgres without storage", func(c *Config) { c.CatalogueSource = "postgres" }, true},
		{"static catalogue", func(c *Config) { c.CatalogueSource = "static"; c.CataloguePath = "" }, false},
		{"negative ttl", func(c *Config) { c.CacheTTL = -time.Second }, true},
		{"zero lookback", func(c *Config) { c.DemandLookbackDays = 0 }, true},
		{"bad statistic", func(c *Config) { c.DemandStatistic = "mean" }, true},
		{"p99 statistic", func(c *Config) { c.DemandStatistic = "p99" }, false},
		{"zero period days", func(c *Config) { c.DefaultPeriodDays = 0 }, true},
		{"negative margin", func(c *Config) { c.SafetyMargin = -0.1 }, true},
		{"margin of one", func(c *Config) { c.SafetyMargin = 1 }, true},
		{"zero increment", func(c *Config) { c.DefaultIncrement = 0 }, true},
		{"zero class increment", func(c *Config) { c.Increments = map[string]float64{"3.0TD": 0} }, true},
		{"multiplier below one", func(c *Config) { c.OverrunPenaltyMultiplier = 0.5 }, true},
		{"negative threshold", func(c *Config) { c.CapacitorBankCost = -1 }, true},
		{"low above high", func(c *Config) { c.LowDailyKWh = 60 }, true},
		{"bad output format", func(c *Config) { c.OutputFormat = "xml" }, true},
		{"json output", func(c *Config) { c.OutputFormat = "json" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilders(t *testing.T) {
	cfg := NewConfig()
	cfg.SafetyMargin = 0.05
	cfg.CapacitorBankCost = 900
	cfg.PrometheusURL = "http://prom:9090"

	rules := cfg.OptimizerRules()
	if rules.SafetyMargin != 0.05 || rules.DefaultIncrement != cfg.DefaultIncrement {
		t.Errorf("unexpected rules: %+v", rules)
	}
	rules.Increments["3.0TD"] = 7
	if cfg.Increments["3.0TD"] == 7 {
		t.Error("OptimizerRules should copy the increments table")
	}

	th := cfg.Thresholds()
	if th.CapacitorBankCost != 900 || th.MonthlyPowerCost != cfg.MonthlyPowerCostThreshold {
		t.Errorf("unexpected thresholds: %+v", th)
	}

	cat := cfg.CatalogueConfig()
	if cat.Source != "file" || cat.Path != cfg.CataloguePath || cat.CacheTTL != cfg.CacheTTL {
		t.Errorf("unexpected catalogue config: %+v", cat)
	}

	ds := cfg.DataSourceConfig()
	if ds.PrometheusURL != "http://prom:9090" || ds.Metric != cfg.DemandMetric {
		t.Errorf("unexpected datasource config: %+v", ds)
	}
}
