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
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "http://rover"
	DefaultNamespace  = "api"
	DefaultMaxLatency = "3000ms"
	DefaultMaxStep    = 100
	DefaultListen     = ":8080"
)

// EmulatorConfig representa a estrutura raiz do arquivo YAML do emulador.
type EmulatorConfig struct {
	Version string      `yaml:"version" validate:"required"`
	Device  DeviceConf  `yaml:"device" validate:"required"`
	Server  ServerConf  `yaml:"server"`
	Logging LoggingConf `yaml:"logging"`
	Metrics MetricsConf `yaml:"metrics"`
}

// DeviceConf descreve o rover simulado: onde ele responde e como se comporta.
type DeviceConf struct {
	BaseURL        string `yaml:"base_url" env:"ROVER_BASE_URL" validate:"required,url"`
	Namespace      string `yaml:"namespace" env:"ROVER_NAMESPACE" validate:"required"`
	MaxLatency     string `yaml:"max_latency" env:"ROVER_MAX_LATENCY" validate:"required"` // Ex: "3000ms", "3s"
	LatencyEnabled bool   `yaml:"latency_enabled" env:"ROVER_LATENCY_ENABLED"`
	MaxStep        int    `yaml:"max_step" validate:"gt=0"`
	Seed           uint64 `yaml:"seed" env:"ROVER_SEED"` // 0 = semente aleatória
}

type ServerConf struct {
	Listen string `yaml:"listen" env:"ROVER_LISTEN" validate:"required"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled" env:"ROVER_LOG_ENABLED"`
	Level   string `yaml:"level" env:"ROVER_LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool     `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string   `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

// Default retorna a configuração embutida, usada quando nenhuma fonte é informada
// e como base para o unmarshal (campos ausentes no YAML mantêm o default).
func Default() *EmulatorConfig {
	return &EmulatorConfig{
		Version: "1.0",
		Device: DeviceConf{
			BaseURL:        DefaultBaseURL,
			Namespace:      DefaultNamespace,
			MaxLatency:     DefaultMaxLatency,
			LatencyEnabled: true,
			MaxStep:        DefaultMaxStep,
		},
		Server: ServerConf{Listen: DefaultListen},
		Logging: LoggingConf{
			Enabled: true,
			Level:   "info",
			Format:  "json",
		},
		Metrics: MetricsConf{
			Datadog: DatadogConf{Namespace: "rover."},
		},
	}
}

// LatencyBound devolve o limite superior (exclusivo) do atraso das rotas de leitura.
func (d DeviceConf) LatencyBound() time.Duration {
	dur, err := time.ParseDuration(d.MaxLatency)
	if err != nil {
		return 3 * time.Second
	}
	return dur
}

// Prefix retorna "{base_url}/{namespace}" sem barras duplicadas.
func (d DeviceConf) Prefix() string {
	return strings.TrimRight(d.BaseURL, "/") + "/" + strings.Trim(d.Namespace, "/")
}
