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
	"strings"
	"testing"
	"time"

	"github.com/taskmill/taskmill/internal/types"
)

func validConfig() *Config {
	return &Config{
		Service: "test-service",
		Version: "v1.0.0",
		Mode:    types.ModeDebug,
		NATS: NATSConfig{
			Host:          "localhost",
			Port:          "4222",
			URL:           "nats://localhost:4222",
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
			DrainTimeout:  30 * time.Second,
			PingInterval:  2 * time.Minute,
			MaxPingsOut:   2,
			ClientName:    "test-client",
		},
		Worker: WorkerConfig{
			Namespace:         "default",
			MaxConcurrent:     100,
			DrainTimeout:      10 * time.Minute,
			ForcedStopTimeout: 30 * time.Second,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.Service = "" },
			wantErr: true,
			errMsg:  "service name is required",
		},
		{
			name:    "missing version",
			mutate:  func(c *Config) { c.Version = "" },
			wantErr: true,
			errMsg:  "version is required",
		},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "verbose" },
			wantErr: true,
			errMsg:  "invalid mode",
		},
		{
			name:    "missing NATS host",
			mutate:  func(c *Config) { c.NATS.Host = "" },
			wantErr: true,
			errMsg:  "NATS host is required",
		},
		{
			name:    "invalid NATS port",
			mutate:  func(c *Config) { c.NATS.Port = "invalid" },
			wantErr: true,
			errMsg:  "invalid NATS port",
		},
		{
			name:    "missing NATS URL",
			mutate:  func(c *Config) { c.NATS.URL = "" },
			wantErr: true,
			errMsg:  "NATS URL is required",
		},
		{
			name:    "invalid NATS max reconnects",
			mutate:  func(c *Config) { c.NATS.MaxReconnects = -2 },
			wantErr: true,
			errMsg:  "NATS max reconnects must be >= -1",
		},
		{
			name:    "invalid NATS reconnect wait",
			mutate:  func(c *Config) { c.NATS.ReconnectWait = 0 },
			wantErr: true,
			errMsg:  "NATS reconnect wait must be positive",
		},
		{
			name:    "missing worker namespace",
			mutate:  func(c *Config) { c.Worker.Namespace = "" },
			wantErr: true,
			errMsg:  "worker namespace is required",
		},
		{
			name:    "invalid worker max concurrent",
			mutate:  func(c *Config) { c.Worker.MaxConcurrent = 0 },
			wantErr: true,
			errMsg:  "worker max concurrent must be positive",
		},
		{
			name:    "invalid worker drain timeout",
			mutate:  func(c *Config) { c.Worker.DrainTimeout = -1 * time.Second },
			wantErr: true,
			errMsg:  "worker drain timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Validate() expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Service != "taskmill" {
		t.Errorf("Service = %q, want %q", cfg.Service, "taskmill")
	}
	if cfg.Mode != types.ModeDebug {
		t.Errorf("Mode = %q, want %q", cfg.Mode, types.ModeDebug)
	}
	if cfg.NATS.URL == "" {
		t.Error("NATS URL should be derived from host and port")
	}
	if cfg.Worker.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("Worker.MaxConcurrent = %d, want %d", cfg.Worker.MaxConcurrent, DefaultMaxConcurrent)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}
