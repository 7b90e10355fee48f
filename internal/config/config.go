package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"appbuilder/internal/canvas"
	"appbuilder/internal/domain"
	"appbuilder/internal/storage"
)

// DefaultFile is the config file looked up when no --config flag is given.
const DefaultFile = "appbuilder.yaml"

// Config holds all appbuilder configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Canvas  CanvasConfig  `yaml:"canvas"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects where application definitions live.
type StorageConfig struct {
	Driver   string `yaml:"driver"`   // sqlite, postgres, mysql, mongo
	DSN      string `yaml:"dsn"`      // driver DSN or mongo URI; sqlite defaults to <data_dir>/appbuilder.db
	Database string `yaml:"database"` // mongo database name
	DataDir  string `yaml:"data_dir"`
}

// CanvasConfig configures drop placement.
type CanvasConfig struct {
	SnapToGrid bool `yaml:"snap_to_grid"`
	GridSize   int  `yaml:"grid_size"`
	OriginLeft int  `yaml:"origin_left"`
	OriginTop  int  `yaml:"origin_top"`
}

// HistoryConfig configures canvas snapshots.
type HistoryConfig struct {
	Enabled         bool   `yaml:"enabled"`
	MaxEntries      int    `yaml:"max_entries"`
	Retention       string `yaml:"retention"`
	CompactSchedule string `yaml:"compact_schedule"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Storage: StorageConfig{
			Driver:  storage.DriverSQLite,
			DataDir: filepath.Join(homeDir, ".local", "share", "appbuilder"),
		},
		Canvas: CanvasConfig{
			SnapToGrid: false,
			GridSize:   canvas.GridSize,
			OriginLeft: canvas.DefaultOrigin.X,
			OriginTop:  canvas.DefaultOrigin.Y,
		},
		History: HistoryConfig{
			Enabled:         true,
			MaxEntries:      40,
			Retention:       "720h",
			CompactSchedule: "@every 10m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("APPBUILDER_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("APPBUILDER_DB_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("APPBUILDER_DB_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("APPBUILDER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("APPBUILDER_SNAP_TO_GRID"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Canvas.SnapToGrid = b
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case storage.DriverSQLite:
	case storage.DriverPostgres, storage.DriverMySQL, storage.DriverMongo:
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage.dsn is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Canvas.GridSize <= 0 {
		return fmt.Errorf("config: canvas.grid_size must be positive, got %d", c.Canvas.GridSize)
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("config: history.max_entries must not be negative")
	}
	if c.History.Retention != "" {
		if _, err := time.ParseDuration(c.History.Retention); err != nil {
			return fmt.Errorf("config: history.retention: %w", err)
		}
	}
	if c.History.CompactSchedule != "" {
		if _, err := cron.ParseStandard(c.History.CompactSchedule); err != nil {
			return fmt.Errorf("config: history.compact_schedule: %w", err)
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: unknown logging format %q", c.Logging.Format)
	}
	return nil
}

// SQLitePath returns the sqlite database path.
func (c *Config) SQLitePath() string {
	if c.Storage.DSN != "" {
		return c.Storage.DSN
	}
	return filepath.Join(c.Storage.DataDir, "appbuilder.db")
}

// CanvasOptions converts the canvas section into placement options.
func (c *Config) CanvasOptions(types canvas.TypeLookup) canvas.Options {
	return canvas.Options{
		SnapToGrid: c.Canvas.SnapToGrid,
		GridSize:   c.Canvas.GridSize,
		Origin:     &domain.Point{X: c.Canvas.OriginLeft, Y: c.Canvas.OriginTop},
		Types:      types,
	}
}

// RetentionDuration returns the history retention; zero disables time-based pruning.
func (c *Config) RetentionDuration() time.Duration {
	d, err := time.ParseDuration(c.History.Retention)
	if err != nil {
		return 0
	}
	return d
}
