// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_Validate(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		mutate  func(cfg *EmulatorConfig)
		wantErr bool
	}{
		{
			name:    "Default Config",
			mutate:  func(cfg *EmulatorConfig) {},
			wantErr: false,
		},
		{
			name:    "HTTPS base_url",
			mutate:  func(cfg *EmulatorConfig) { cfg.Device.BaseURL = "https://rover.local:8443" },
			wantErr: false,
		},
		{
			name:    "Missing Version",
			mutate:  func(cfg *EmulatorConfig) { cfg.Version = "" },
			wantErr: true,
		},
		{
			name:    "Invalid Scheme",
			mutate:  func(cfg *EmulatorConfig) { cfg.Device.BaseURL = "ws://rover" },
			wantErr: true,
		},
		{
			name:    "Empty Namespace",
			mutate:  func(cfg *EmulatorConfig) { cfg.Device.Namespace = "//" },
			wantErr: true,
		},
		{
			name:    "Invalid Latency",
			mutate:  func(cfg *EmulatorConfig) { cfg.Device.MaxLatency = "três segundos" },
			wantErr: true,
		},
		{
			name:    "Negative Latency",
			mutate:  func(cfg *EmulatorConfig) { cfg.Device.MaxLatency = "-1s" },
			wantErr: true,
		},
		{
			name:    "Zero Step",
			mutate:  func(cfg *EmulatorConfig) { cfg.Device.MaxStep = 0 },
			wantErr: true,
		},
		{
			name:    "Datadog sem endereço",
			mutate:  func(cfg *EmulatorConfig) { cfg.Metrics.Datadog.Enabled = true },
			wantErr: true,
		},
		{
			name:    "Log level inválido",
			mutate:  func(cfg *EmulatorConfig) { cfg.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := validator.Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("Nil Config", func(t *testing.T) {
		assert.Error(t, validator.Validate(nil))
	})
}
