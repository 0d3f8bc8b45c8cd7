package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Overrides the sources listed in content.yaml, in fallback order.
	AudioSources  []string `env:"AUDIO_SOURCES" envSeparator:","`
	ParticleCount int      `env:"PARTICLE_COUNT" envDefault:"50"`

	SessionIdleTTL       time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	SessionMax           int           `env:"SESSION_MAX" envDefault:"10000"`

	DiagDSN       string `env:"DIAG_DSN" envDefault:":memory:"`
	DiagRetention int    `env:"DIAG_RETENTION" envDefault:"500"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ParticleCount < 0 {
		return Config{}, fmt.Errorf("PARTICLE_COUNT must not be negative, got %d", cfg.ParticleCount)
	}
	if cfg.SessionSweepInterval <= 0 {
		return Config{}, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", cfg.SessionSweepInterval)
	}
	if cfg.SessionMax <= 0 {
		return Config{}, fmt.Errorf("SESSION_MAX must be positive, got %d", cfg.SessionMax)
	}
	return cfg, nil
}

// applyAdminDefaults fills in development credentials the way the admin login
// always has; they are logged loudly in debug mode.
func (cfg *Config) applyAdminDefaults(log *zap.Logger, debug bool) {
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
		if debug {
			log.Warn("using default admin username, set ADMIN_USERNAME")
		}
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin123"
		if debug {
			log.Warn("using default admin password, set ADMIN_PASSWORD")
		}
	}
}

func newLogger(cfg Config, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if !debug {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}
