// Package config loads simulator settings from an optional YAML file,
// FLEETSIM_* environment variables and built-in defaults, in that order of
// precedence from last to first.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/fleetsim/internal/logging"
	"github.com/signalsfoundry/fleetsim/internal/observability"
	"github.com/signalsfoundry/fleetsim/internal/sim/session"
)

// EnvPrefix namespaces environment overrides: FLEETSIM_SESSION_DECIDEEVERYCYCLES
// overrides session.decideEveryCycles.
const EnvPrefix = "FLEETSIM"

// Config is the decoded settings tree.
type Config struct {
	Scenario string        `mapstructure:"scenario"`
	Log      LogConfig     `mapstructure:"log"`
	Session  SessionConfig `mapstructure:"session"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Tracing  TracingConfig `mapstructure:"tracing"`
	Storage  StorageConfig `mapstructure:"storage"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SessionConfig struct {
	UnitDuration      time.Duration `mapstructure:"unitDuration"`
	DecideEveryCycles int64         `mapstructure:"decideEveryCycles"`
	MaxTimePerCycle   int64         `mapstructure:"maxTimePerCycle"`
	FastMotionUnits   int64         `mapstructure:"fastMotionUnits"`
	ObjectCapacity    int           `mapstructure:"objectCapacity"`
	QueueCapacity     int           `mapstructure:"queueCapacity"`
	// Seed fixes the random seed; zero seeds from the wall clock.
	Seed uint32 `mapstructure:"seed"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"serviceName"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sampleRatio"`
}

// StorageConfig points at the SQLite file holding replays and results.
// An empty path disables storage.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	def := session.DefaultConfig()

	v.SetDefault("scenario", "scenarios/skirmish.yaml")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("session.unitDuration", def.UnitDuration)
	v.SetDefault("session.decideEveryCycles", def.DecideEveryCycles)
	v.SetDefault("session.maxTimePerCycle", def.MaxTimePerCycle)
	v.SetDefault("session.fastMotionUnits", def.FastMotionUnits)
	v.SetDefault("session.objectCapacity", def.ObjectCapacity)
	v.SetDefault("session.queueCapacity", def.QueueCapacity)
	v.SetDefault("session.seed", 0)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9464")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.serviceName", observability.DefaultServiceName)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sampleRatio", 1.0)

	v.SetDefault("storage.path", "")
}

// Load reads path when non-empty, applies environment overrides and
// validates the session section.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.SessionSettings().Validate(); err != nil {
		return nil, err
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return nil, errors.New("tracing.sampleRatio must be within [0, 1]")
	}
	return &cfg, nil
}

// SessionSettings converts the session section for session.WithConfig.
func (c *Config) SessionSettings() session.Config {
	s := c.Session
	return session.Config{
		UnitDuration:      s.UnitDuration,
		DecideEveryCycles: s.DecideEveryCycles,
		MaxTimePerCycle:   s.MaxTimePerCycle,
		FastMotionUnits:   s.FastMotionUnits,
		ObjectCapacity:    s.ObjectCapacity,
		QueueCapacity:     s.QueueCapacity,
	}
}

// TracingSettings converts the tracing section for observability.InitTracing.
func (c *Config) TracingSettings() observability.TracingConfig {
	return observability.TracingConfig(c.Tracing)
}

// LoggerSettings converts the log section for logging.New.
func (c *Config) LoggerSettings() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
