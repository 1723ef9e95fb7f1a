package startup

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. INGEST_UPLOAD_DIR or
// INGEST_WATCH_STABILITY_THRESHOLD.
const EnvPrefix = "INGEST"

// Defaults.
const (
	DefaultUploadDir          = "./uploads"
	DefaultThumbnailDir       = "./thumbnails"
	DefaultDatabasePath       = "./data/ingest.db"
	DefaultOpsAddr            = ":9090"
	DefaultStatsInterval      = time.Minute
	DefaultLogLevel           = "info"
	DefaultLogMaxSizeMB       = 100
	DefaultLogMaxBackups      = 7
	DefaultLogMaxAgeDays      = 28
	DefaultScanMaxWorkers     = 8
	DefaultStabilityThreshold = 2 * time.Second
	DefaultPollInterval       = 100 * time.Millisecond
	DefaultMaxConcurrent      = 16
	DefaultThumbnailSize      = 150
	DefaultReclaimInterval    = time.Hour
	DefaultReclaimMinAge      = 10 * time.Minute
)

// Config holds the process configuration.
type Config struct {
	UploadDir    string `mapstructure:"upload_dir"`
	ThumbnailDir string `mapstructure:"thumbnail_dir"`
	DatabasePath string `mapstructure:"database_path"`

	Ops        OpsConfig        `mapstructure:"ops"`
	Log        LoggingConfig    `mapstructure:"log"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Thumbnails ThumbnailsConfig `mapstructure:"thumbnails"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string
}

// OpsConfig configures the metrics and health endpoint.
type OpsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr"`
	LogHealthChecks bool          `mapstructure:"log_health_checks"`
	StatsInterval   time.Duration `mapstructure:"stats_interval"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ScanConfig configures the initial scan.
type ScanConfig struct {
	MaxWorkers int `mapstructure:"max_workers"`
}

// WatchConfig configures the live watcher.
type WatchConfig struct {
	StabilityThreshold time.Duration `mapstructure:"stability_threshold"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	MaxConcurrent      int           `mapstructure:"max_concurrent"`
}

// ThumbnailsConfig configures thumbnail derivation and reclamation.
type ThumbnailsConfig struct {
	Size            int           `mapstructure:"size"`
	UseVips         bool          `mapstructure:"use_vips"`
	ReclaimOrphans  bool          `mapstructure:"reclaim_orphans"`
	ReclaimInterval time.Duration `mapstructure:"reclaim_interval"`
	ReclaimMinAge   time.Duration `mapstructure:"reclaim_min_age"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upload_dir", DefaultUploadDir)
	v.SetDefault("thumbnail_dir", DefaultThumbnailDir)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("ops.enabled", true)
	v.SetDefault("ops.addr", DefaultOpsAddr)
	v.SetDefault("ops.log_health_checks", false)
	v.SetDefault("ops.stats_interval", DefaultStatsInterval)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", DefaultLogMaxSizeMB)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age_days", DefaultLogMaxAgeDays)
	v.SetDefault("log.compress", true)

	v.SetDefault("scan.max_workers", DefaultScanMaxWorkers)

	v.SetDefault("watch.stability_threshold", DefaultStabilityThreshold)
	v.SetDefault("watch.poll_interval", DefaultPollInterval)
	v.SetDefault("watch.max_concurrent", DefaultMaxConcurrent)

	v.SetDefault("thumbnails.size", DefaultThumbnailSize)
	v.SetDefault("thumbnails.use_vips", false)
	v.SetDefault("thumbnails.reclaim_orphans", false)
	v.SetDefault("thumbnails.reclaim_interval", DefaultReclaimInterval)
	v.SetDefault("thumbnails.reclaim_min_age", DefaultReclaimMinAge)
}

// LoadConfig reads configuration from defaults, the optional file at path
// (yaml, toml or json, detected from the extension) and INGEST_*
// environment variables, in increasing precedence. Paths in the result are
// absolute.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) resolvePaths() error {
	for _, p := range []struct {
		name string
		dst  *string
	}{
		{"upload_dir", &c.UploadDir},
		{"thumbnail_dir", &c.ThumbnailDir},
		{"database_path", &c.DatabasePath},
	} {
		abs, err := filepath.Abs(*p.dst)
		if err != nil {
			return fmt.Errorf("failed to resolve %s %q: %w", p.name, *p.dst, err)
		}
		*p.dst = abs
	}

	if c.Log.File != "" {
		abs, err := filepath.Abs(c.Log.File)
		if err != nil {
			return fmt.Errorf("failed to resolve log.file %q: %w", c.Log.File, err)
		}
		c.Log.File = abs
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.UploadDir == c.ThumbnailDir {
		errs = append(errs, errors.New("upload_dir and thumbnail_dir must differ"))
	}
	if c.Scan.MaxWorkers < 0 {
		errs = append(errs, fmt.Errorf("scan.max_workers must not be negative, got %d", c.Scan.MaxWorkers))
	}
	if c.Watch.StabilityThreshold <= 0 {
		errs = append(errs, fmt.Errorf("watch.stability_threshold must be positive, got %v", c.Watch.StabilityThreshold))
	}
	if c.Watch.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("watch.poll_interval must be positive, got %v", c.Watch.PollInterval))
	}
	if c.Watch.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("watch.max_concurrent must not be negative, got %d", c.Watch.MaxConcurrent))
	}
	if c.Thumbnails.Size <= 0 {
		errs = append(errs, fmt.Errorf("thumbnails.size must be positive, got %d", c.Thumbnails.Size))
	}
	if c.Thumbnails.ReclaimOrphans && c.Thumbnails.ReclaimInterval <= 0 {
		errs = append(errs, fmt.Errorf("thumbnails.reclaim_interval must be positive, got %v", c.Thumbnails.ReclaimInterval))
	}
	if c.Ops.Enabled && c.Ops.Addr == "" {
		errs = append(errs, errors.New("ops.addr is required when ops.enabled is set"))
	}

	return errors.Join(errs...)
}
