package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
	Solver   SolverConfig   `yaml:"solver"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type SolverConfig struct {
	// Parallelism bounds the hull-reduction worker count; 0 means one
	// worker per CPU.
	Parallelism int `yaml:"parallelism"`
	// MaxUnits caps the number of units a single API request may carry;
	// 0 disables the cap.
	MaxUnits int `yaml:"max_units"`
}

type WorkerConfig struct {
	TickIntervalMs int `yaml:"tick_interval_ms"`
	JobTimeoutMs   int `yaml:"job_timeout_ms"`
	BatchSize      int `yaml:"batch_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Worker.TickIntervalMs) * time.Millisecond
}

func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.Worker.JobTimeoutMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Worker: WorkerConfig{
			TickIntervalMs: 5000,
			JobTimeoutMs:   300000,
			BatchSize:      10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("QINI_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("QINI_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("QINI_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("QINI_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("QINI_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("QINI_SOLVER_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Solver.Parallelism = n
		}
	}
	if v := os.Getenv("QINI_MAX_UNITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Solver.MaxUnits = n
		}
	}
	if v := os.Getenv("QINI_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.TickIntervalMs = n
		}
	}
	if v := os.Getenv("QINI_JOB_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.JobTimeoutMs = n
		}
	}
	if v := os.Getenv("QINI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
