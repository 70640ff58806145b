package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Journal JournalConfig `yaml:"journal" mapstructure:"journal"`
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Risk    RiskConfig    `yaml:"risk" mapstructure:"risk"`
	Raster  RasterConfig  `yaml:"raster" mapstructure:"raster"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the PostGIS backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
	RegionTable string `yaml:"region_table" mapstructure:"region_table"`
	WaterTable  string `yaml:"water_table" mapstructure:"water_table"`
}

// JournalConfig configures the local run journal.
type JournalConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DatasetConfig configures event dataset loading.
type DatasetConfig struct {
	Source string `yaml:"source" mapstructure:"source"`
}

// RiskConfig configures event and region risk scoring.
type RiskConfig struct {
	MinSamplesPerProvince int `yaml:"min_samples_per_province" mapstructure:"min_samples_per_province"`
}

// RasterConfig configures water-index extraction.
type RasterConfig struct {
	MNDWIThreshold float64 `yaml:"mndwi_threshold" mapstructure:"mndwi_threshold"`
	MinAreaSqKM    float64 `yaml:"min_area_sq_km" mapstructure:"min_area_sq_km"`
}

// GeocodeConfig configures province centroid jitter.
type GeocodeConfig struct {
	JitterSeed int64 `yaml:"jitter_seed" mapstructure:"jitter_seed"`
}

// OutputConfig configures run artifacts.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port         int `yaml:"port" mapstructure:"port"`
	CacheTTLSecs int `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	LookbackDays int `yaml:"lookback_days" mapstructure:"lookback_days"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FLOODWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.schema", "public")
	v.SetDefault("store.region_table", "flood_risk_events")
	v.SetDefault("store.water_table", "water_polygons")
	v.SetDefault("journal.path", "floodwatch.db")
	v.SetDefault("risk.min_samples_per_province", 300)
	v.SetDefault("raster.mndwi_threshold", 0.2)
	v.SetDefault("raster.min_area_sq_km", 0.01)
	v.SetDefault("geocode.jitter_seed", 1)
	v.SetDefault("output.dir", "data/output")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cache_ttl_secs", 900)
	v.SetDefault("server.lookback_days", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required for the given command mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	needsDB := func() {
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	}

	switch mode {
	case "run":
		needsDB()
		if c.Risk.MinSamplesPerProvince < 1 {
			problems = append(problems, "risk.min_samples_per_province must be >= 1")
		}
	case "extract":
		needsDB()
		if c.Raster.MinAreaSqKM < 0 {
			problems = append(problems, "raster.min_area_sq_km must be >= 0")
		}
	case "serve":
		needsDB()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.CacheTTLSecs <= 0 {
			problems = append(problems, "server.cache_ttl_secs must be > 0")
		}
	case "migrate", "export":
		needsDB()
	case "runs":
		// journal only
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
