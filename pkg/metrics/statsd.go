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


package metrics

import (
	"fmt"
	"math"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/raywall/rover-emulator/pkg/config"
)

// Discard é o Provider usado quando o Datadog está desligado.
type Discard struct{}

func (Discard) Count(string, float64, []string) error     { return nil }
func (Discard) Gauge(string, float64, []string) error     { return nil }
func (Discard) Histogram(string, float64, []string) error { return nil }

// StatsdProvider envia as métricas do rover para o agente do Datadog.
// Toda métrica carrega as tags do dispositivo (prefixo e namespace).
type StatsdProvider struct {
	client statsd.ClientInterface
	tags   []string
}

// NewStatsdProvider embrulha um cliente já criado (útil com statsd.NoOpClient em testes).
func NewStatsdProvider(client statsd.ClientInterface, device config.DeviceConf) *StatsdProvider {
	return &StatsdProvider{client: client, tags: deviceTags(device)}
}

func (d *StatsdProvider) Count(name string, value float64, tags []string) error {
	return d.client.Count(name, int64(math.Round(value)), d.with(tags), 1)
}

func (d *StatsdProvider) Gauge(name string, value float64, tags []string) error {
	return d.client.Gauge(name, value, d.with(tags), 1)
}

func (d *StatsdProvider) Histogram(name string, value float64, tags []string) error {
	return d.client.Histogram(name, value, d.with(tags), 1)
}

// Close envia o que estiver pendente e fecha o socket.
func (d *StatsdProvider) Close() error {
	return d.client.Close()
}

func (d *StatsdProvider) with(tags []string) []string {
	if len(tags) == 0 {
		return d.tags
	}
	out := make([]string, 0, len(d.tags)+len(tags))
	out = append(out, d.tags...)
	return append(out, tags...)
}

func deviceTags(device config.DeviceConf) []string {
	var tags []string
	if device.BaseURL != "" {
		tags = append(tags, "rover_prefix:"+device.Prefix())
	}
	if device.Namespace != "" {
		tags = append(tags, "rover_namespace:"+device.Namespace)
	}
	return tags
}

// Setup escolhe o backend a partir das seções metrics e device do YAML.
func Setup(cfg config.MetricsConf, device config.DeviceConf) (Provider, error) {
	if !cfg.Datadog.Enabled {
		return Discard{}, nil
	}

	opts := []statsd.Option{statsd.WithNamespace(cfg.Datadog.Namespace)}
	if len(cfg.Datadog.Tags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.Datadog.Tags))
	}

	client, err := statsd.New(cfg.Datadog.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no datadog statsd: %w", err)
	}
	return NewStatsdProvider(client, device), nil
}
