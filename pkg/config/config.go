package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/opscart/tariff-optimizer/pkg/datasource"
	"github.com/opscart/tariff-optimizer/pkg/optimizer"
	"github.com/opscart/tariff-optimizer/pkg/pricing"
	"github.com/opscart/tariff-optimizer/pkg/recommender"
)

// ConfigFileEnv names the environment variable holding an optional YAML file
// that overrides the environment.
const ConfigFileEnv = "TARIFF_SIM_CONFIG"

// Config holds application configuration
type Config struct {
	// Storage
	StorageEnabled bool   `yaml:"storage_enabled"`
	DatabaseURL    string `yaml:"database_url"`

	// Catalogue
	CatalogueSource string        `yaml:"catalogue_source"` // file, postgres, static
	CataloguePath   string        `yaml:"catalogue_path"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`

	// Demand from Prometheus; empty URL disables it
	PrometheusURL      string `yaml:"prometheus_url"`
	DemandMetric       string `yaml:"demand_metric"`
	DemandLookbackDays int    `yaml:"demand_lookback_days"`
	DemandStatistic    string `yaml:"demand_statistic"` // peak, p99

	// Normalization
	DefaultPeriodDays int `yaml:"default_period_days"`

	// Power optimization
	SafetyMargin             float64            `yaml:"safety_margin"` // e.g., 0.05 = 5% headroom over demand
	DefaultIncrement         float64            `yaml:"default_increment"`
	Increments               map[string]float64 `yaml:"increments"`
	OverrunPenaltyMultiplier float64            `yaml:"overrun_penalty_multiplier"`

	// Detection thresholds
	HighDailyKWh              float64 `yaml:"high_daily_kwh"`
	LowDailyKWh               float64 `yaml:"low_daily_kwh"`
	MonthlyPowerCostThreshold float64 `yaml:"monthly_power_cost_threshold"`
	CapacitorBankCost         float64 `yaml:"capacitor_bank_cost"`

	// Server
	ListenAddr string `yaml:"listen_addr"`

	// Output
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`
	LogPretty    bool   `yaml:"log_pretty"`
	Verbose      bool   `yaml:"verbose"`
}

// NewConfig creates a new configuration from environment variables and defaults
func NewConfig() *Config {
	return &Config{
		StorageEnabled: getEnvBool("STORAGE_ENABLED", false),
		DatabaseURL:    getEnv("DATABASE_URL", "host=localhost port=5432 user=tariff password=devpassword dbname=tariffsim sslmode=disable"),

		CatalogueSource: getEnv("CATALOGUE_SOURCE", "file"),
		CataloguePath:   getEnv("CATALOGUE_PATH", "catalogue.yaml"),
		CacheTTL:        getEnvDuration("CATALOGUE_CACHE_TTL", 10*time.Minute),

		PrometheusURL:      getEnv("PROMETHEUS_URL", ""),
		DemandMetric:       getEnv("DEMAND_METRIC", datasource.DefaultMetric),
		DemandLookbackDays: getEnvInt("DEMAND_LOOKBACK_DAYS", 30),
		DemandStatistic:    getEnv("DEMAND_STATISTIC", "peak"),

		DefaultPeriodDays: getEnvInt("DEFAULT_PERIOD_DAYS", 30),

		SafetyMargin:             getEnvFloat("SAFETY_MARGIN", 0),
		DefaultIncrement:         getEnvFloat("DEFAULT_INCREMENT_KW", optimizer.DefaultIncrement),
		Increments:               optimizer.CanonicalIncrements(optimizer.DefaultRules().Increments),
		OverrunPenaltyMultiplier: getEnvFloat("OVERRUN_PENALTY_MULTIPLIER", 2.0),

		HighDailyKWh:              getEnvFloat("HIGH_DAILY_KWH", 50),
		LowDailyKWh:               getEnvFloat("LOW_DAILY_KWH", 1),
		MonthlyPowerCostThreshold: getEnvFloat("MONTHLY_POWER_COST_THRESHOLD", 100),
		CapacitorBankCost:         getEnvFloat("CAPACITOR_BANK_COST", 0),

		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		OutputFormat: getEnv("OUTPUT_FORMAT", "text"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvBool("LOG_PRETTY", false),
		Verbose:      getEnvBool("VERBOSE", false),
	}
}

// Load reads .env, the environment and the optional YAML file, then
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := NewConfig()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays a YAML document. Keys absent from the file keep their
// current values; an increments table is merged key by key, with class keys
// compared case-insensitively.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	base := c.Increments
	c.Increments = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		c.Increments = base
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	merged := optimizer.CanonicalIncrements(base)
	for k, v := range optimizer.CanonicalIncrements(c.Increments) {
		merged[k] = v
	}
	c.Increments = merged
	return nil
}

// UseStrictPreset contracts exactly at measured demand
func (c *Config) UseStrictPreset() {
	c.SafetyMargin = 0
	c.DemandStatistic = "peak"
}

// UseBufferedPreset keeps 5% headroom and only flags larger consumers
func (c *Config) UseBufferedPreset() {
	c.SafetyMargin = 0.05
	c.DemandStatistic = "peak"
	c.HighDailyKWh = 80
	c.MonthlyPowerCostThreshold = 150
}

func (c *Config) OptimizerRules() optimizer.Rules {
	return optimizer.Rules{
		SafetyMargin:     c.SafetyMargin,
		DefaultIncrement: c.DefaultIncrement,
		Increments:       optimizer.CanonicalIncrements(c.Increments),
	}
}

func (c *Config) Thresholds() recommender.Thresholds {
	return recommender.Thresholds{
		HighDailyKWh:             c.HighDailyKWh,
		LowDailyKWh:              c.LowDailyKWh,
		MonthlyPowerCost:         c.MonthlyPowerCostThreshold,
		OverrunPenaltyMultiplier: c.OverrunPenaltyMultiplier,
		CapacitorBankCost:        c.CapacitorBankCost,
	}
}

func (c *Config) CatalogueConfig() *pricing.Config {
	return &pricing.Config{
		Source:   c.CatalogueSource,
		Path:     c.CataloguePath,
		CacheTTL: c.CacheTTL,
	}
}

func (c *Config) DataSourceConfig() datasource.Config {
	return datasource.Config{
		PrometheusURL: c.PrometheusURL,
		Metric:        c.DemandMetric,
		Timeout:       30 * time.Second,
	}
}

// DemandLookback is the window read from Prometheus.
func (c *Config) DemandLookback() time.Duration {
	return time.Duration(c.DemandLookbackDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.StorageEnabled && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when storage is enabled")
	}
	switch c.CatalogueSource {
	case "file":
		if c.CataloguePath == "" {
			return fmt.Errorf("CATALOGUE_PATH must be set for the file catalogue")
		}
	case "postgres":
		if !c.StorageEnabled {
			return fmt.Errorf("postgres catalogue requires STORAGE_ENABLED=true")
		}
	case "static":
	default:
		return fmt.Errorf("unknown catalogue source: %s", c.CatalogueSource)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("catalogue cache TTL must not be negative")
	}
	if c.DemandLookbackDays < 1 {
		return fmt.Errorf("demand lookback must be at least 1 day")
	}
	if c.DemandStatistic != "peak" && c.DemandStatistic != "p99" {
		return fmt.Errorf("demand statistic must be peak or p99, got %s", c.DemandStatistic)
	}
	if c.DefaultPeriodDays < 1 {
		return fmt.Errorf("default period days must be positive")
	}
	if c.SafetyMargin < 0 || c.SafetyMargin >= 1 {
		return fmt.Errorf("safety margin must be in [0, 1)")
	}
	if c.DefaultIncrement <= 0 {
		return fmt.Errorf("default increment must be positive")
	}
	for class, step := range c.Increments {
		if step <= 0 {
			return fmt.Errorf("increment for %s must be positive", class)
		}
	}
	if c.OverrunPenaltyMultiplier < 1 {
		return fmt.Errorf("overrun penalty multiplier must be >= 1.0")
	}
	if c.HighDailyKWh < 0 || c.LowDailyKWh < 0 || c.MonthlyPowerCostThreshold < 0 || c.CapacitorBankCost < 0 {
		return fmt.Errorf("detection thresholds must not be negative")
	}
	if c.HighDailyKWh > 0 && c.LowDailyKWh >= c.HighDailyKWh {
		return fmt.Errorf("low daily kWh threshold must be below the high threshold")
	}
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("output format must be text or json, got %s", c.OutputFormat)
	}
	return nil
}
