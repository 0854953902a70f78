// Copyright 2026 The taskmill Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"strconv"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/taskmill/taskmill/internal/types"
)

// Worker defaults
const (
	DefaultWorkerNamespace    = "default"
	DefaultMaxConcurrent      = 100
	DefaultWorkerDrainTimeout = 10 * time.Minute
	DefaultForcedStopTimeout  = 30 * time.Second
)

// Config holds the complete application configuration
type Config struct {
	Service string       `json:"service_name" env:"APP_NAME" envDefault:"taskmill"`
	Version string       `json:"version"      env:"VERSION"  envDefault:"v0.1.0"`
	Mode    types.Mode   `json:"mode"         env:"MODE"     envDefault:"debug"`
	NATS    NATSConfig   `json:"nats"         envPrefix:"NATS_"`
	Worker  WorkerConfig `json:"worker"       envPrefix:"WORKER_"`
	Logger  LoggerConfig `json:"logger"       envPrefix:"LOG_"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	Namespace     string        `json:"namespace"      env:"NAMESPACE"`
	MaxConcurrent int           `json:"max_concurrent" env:"MAX_CONCURRENT"`
	// DrainTimeout bounds how long a graceful stop waits for in-flight
	// activities before the process gives up.
	DrainTimeout time.Duration `json:"drain_timeout" env:"DRAIN_TIMEOUT"`
	// ForcedStopTimeout bounds how long a forced stop waits for interrupted
	// activities to unwind.
	ForcedStopTimeout time.Duration `json:"forced_stop_timeout" env:"FORCED_STOP_TIMEOUT"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string `json:"level"  env:"LEVEL"  envDefault:"info"`   // debug|info|warn|error
	Output string `json:"output" env:"OUTPUT" envDefault:"stdout"` // stdout|stderr
}

func LoadConfig() (*Config, error) {
	cfg := Config{
		NATS: NATSConfig{
			Host:          DefaultNATSHost,
			Port:          DefaultNATSPort,
			MaxReconnects: DefaultMaxReconnects,
			ReconnectWait: DefaultReconnectWait,
			DrainTimeout:  DefaultDrainTimeout,
			PingInterval:  DefaultPingInterval,
			MaxPingsOut:   DefaultMaxPingsOut,
			ClientName:    "taskmill",
		},
		Worker: WorkerConfig{
			Namespace:         DefaultWorkerNamespace,
			MaxConcurrent:     DefaultMaxConcurrent,
			DrainTimeout:      DefaultWorkerDrainTimeout,
			ForcedStopTimeout: DefaultForcedStopTimeout,
		},
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	if cfg.NATS.URL == "" {
		cfg.NATS.URL = fmt.Sprintf("nats://%s:%s", cfg.NATS.Host, cfg.NATS.Port)
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Service == "" {
		return fmt.Errorf("service name is required")
	}
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.NATS.Host == "" {
		return fmt.Errorf("NATS host is required")
	}
	if c.NATS.Port == "" {
		return fmt.Errorf("NATS port is required")
	}
	if _, err := strconv.Atoi(c.NATS.Port); err != nil {
		return fmt.Errorf("invalid NATS port %q", c.NATS.Port)
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS URL is required")
	}
	if c.NATS.MaxReconnects < -1 {
		return fmt.Errorf("NATS max reconnects must be >= -1")
	}
	if c.NATS.ReconnectWait <= 0 {
		return fmt.Errorf("NATS reconnect wait must be positive")
	}
	if c.NATS.DrainTimeout <= 0 {
		return fmt.Errorf("NATS drain timeout must be positive")
	}
	if c.Worker.Namespace == "" {
		return fmt.Errorf("worker namespace is required")
	}
	if c.Worker.MaxConcurrent <= 0 {
		return fmt.Errorf("worker max concurrent must be positive")
	}
	if c.Worker.DrainTimeout <= 0 {
		return fmt.Errorf("worker drain timeout must be positive")
	}
	return nil
}

func (c *Config) ServiceName() string {
	return c.Service
}

func (c *Config) GetVersion() string {
	return c.Version
}
