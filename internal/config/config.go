package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Engine    EngineConfig    `yaml:"engine"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// EngineConfig tunes the fatigue and recovery computation. Zero values are
// replaced by defaults in Load so a config file can omit the section.
type EngineConfig struct {
	// RecoveryRatePerDay is the fatigue fraction recovered per 24 hours
	// (0.15 = 15 percentage points per day).
	RecoveryRatePerDay float64 `yaml:"recovery_rate_per_day"`
	// ReadyThreshold and DontTrainThreshold are the classification band
	// boundaries (defaults 40 and 80).
	ReadyThreshold     float64 `yaml:"ready_threshold"`
	DontTrainThreshold float64 `yaml:"dont_train_threshold"`
	// DefaultBaseline seeds a muscle's learned max before any workout has
	// been observed for it.
	DefaultBaseline float64 `yaml:"default_baseline"`
	// MuscleNamePolicy is "strict" (unknown muscle names in catalog data
	// are an error) or "lenient" (dropped with a warning).
	MuscleNamePolicy string `yaml:"muscle_name_policy"`
}

type CatalogConfig struct {
	// Path to a catalog YAML file. Empty means the embedded default catalog.
	Path string `yaml:"path"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix REPSTRAIN_ and underscore-separated
// paths:
//
//	REPSTRAIN_SERVER_HOST, REPSTRAIN_SERVER_PORT,
//	REPSTRAIN_DB_HOST, REPSTRAIN_DB_PORT, REPSTRAIN_DB_NAME,
//	REPSTRAIN_DB_USER, REPSTRAIN_DB_PASSWORD, REPSTRAIN_DB_SSLMODE,
//	REPSTRAIN_AUTH_API_KEY, REPSTRAIN_CATALOG_PATH
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyEngineDefaults(&cfg.Engine)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPSTRAIN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPSTRAIN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPSTRAIN_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("REPSTRAIN_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REPSTRAIN_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REPSTRAIN_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("REPSTRAIN_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REPSTRAIN_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REPSTRAIN_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REPSTRAIN_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
}

func applyEngineDefaults(e *EngineConfig) {
	if e.RecoveryRatePerDay == 0 {
		e.RecoveryRatePerDay = 0.15
	}
	if e.ReadyThreshold == 0 {
		e.ReadyThreshold = 40
	}
	if e.DontTrainThreshold == 0 {
		e.DontTrainThreshold = 80
	}
	if e.DefaultBaseline == 0 {
		e.DefaultBaseline = 10000
	}
	if e.MuscleNamePolicy == "" {
		e.MuscleNamePolicy = "strict"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Engine.RecoveryRatePerDay < 0 || c.Engine.RecoveryRatePerDay > 1 {
		return fmt.Errorf("engine.recovery_rate_per_day must be in (0, 1]")
	}
	if c.Engine.ReadyThreshold <= 0 || c.Engine.ReadyThreshold >= c.Engine.DontTrainThreshold {
		return fmt.Errorf("engine thresholds must satisfy 0 < ready < dont_train")
	}
	if c.Engine.DefaultBaseline <= 0 {
		return fmt.Errorf("engine.default_baseline must be positive")
	}
	if p := c.Engine.MuscleNamePolicy; p != "strict" && p != "lenient" {
		return fmt.Errorf("engine.muscle_name_policy must be \"strict\" or \"lenient\"")
	}
	return nil
}
