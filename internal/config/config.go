// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

// BookingConfig carries the allocation-policy knobs. Money amounts are
// integer cents; points are integers.
type BookingConfig struct {
	// PointsPerCent converts a held money amount into loyalty points when a
	// confirmed booking is cancelled (no-cash-refund policy).
	PointsPerCent int64 `yaml:"points_per_cent"`
	// RecycledPricePercent is the points price of a recycled seat, as a
	// percentage of the modality's money price.
	RecycledPricePercent int64 `yaml:"recycled_price_percent"`
	// GenerationHorizonDays is how far ahead the proposal generator creates
	// unassigned class slots.
	GenerationHorizonDays int `yaml:"generation_horizon_days"`
	// ClassDurationMinutes is the fixed class length for generated
	// proposals. ClassDuration is derived from it after loading.
	ClassDurationMinutes int64         `yaml:"class_duration_minutes"`
	ClassDuration        time.Duration `yaml:"-"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Booking BookingConfig `yaml:"booking"`

	Jobs struct {
		OverlapAuditCron   string `yaml:"overlap_audit_cron"`
		ReconciliationCron string `yaml:"reconciliation_cron"`
		GenerationCron     string `yaml:"generation_cron"`
	} `yaml:"jobs"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Booking.PointsPerCent == 0 {
		c.Booking.PointsPerCent = 1
	}
	if c.Booking.RecycledPricePercent == 0 {
		c.Booking.RecycledPricePercent = 50
	}
	if c.Booking.GenerationHorizonDays == 0 {
		c.Booking.GenerationHorizonDays = 14
	}
	if c.Booking.ClassDurationMinutes == 0 {
		c.Booking.ClassDurationMinutes = 60
	}
	c.Booking.ClassDuration = time.Duration(c.Booking.ClassDurationMinutes) * time.Minute
	if c.Jobs.OverlapAuditCron == "" {
		c.Jobs.OverlapAuditCron = "*/15 * * * *"
	}
	if c.Jobs.ReconciliationCron == "" {
		c.Jobs.ReconciliationCron = "30 4 * * *"
	}
	if c.Jobs.GenerationCron == "" {
		c.Jobs.GenerationCron = "0 3 * * *"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}
	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Filename == "" {
		return fmt.Errorf("database filename is required for sqlite")
	}
	if c.Booking.PointsPerCent < 0 {
		return fmt.Errorf("points_per_cent must not be negative")
	}
	if c.Booking.RecycledPricePercent < 0 || c.Booking.RecycledPricePercent > 100 {
		return fmt.Errorf("recycled_price_percent must be between 0 and 100")
	}
	if c.Booking.ClassDurationMinutes < 0 {
		return fmt.Errorf("class_duration_minutes must not be negative")
	}
	return nil
}
