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
)

// Processor resolve IDs de métrica para suas definições e envia ao Provider.
type Processor struct {
	definitions map[string]MetricDefinition
	provider    Provider
}

// NewProcessor cria um processador linkando IDs aos seus tipos reais.
// Um provider nil vira um descarte silencioso.
func NewProcessor(defs map[string]MetricDefinition, provider Provider) *Processor {
	if provider == nil {
		provider = Discard{}
	}
	copied := make(map[string]MetricDefinition, len(defs))
	for id, d := range defs {
		copied[id] = d
	}
	return &Processor{
		definitions: copied,
		provider:    provider,
	}
}

// Emit registra um valor para a métrica identificada por id.
func (p *Processor) Emit(id string, value float64, tags ...string) error {
	def, exists := p.definitions[id]
	if !exists {
		return fmt.Errorf("métrica não definida: %s", id)
	}

	switch def.Type {
	case TypeCount:
		return p.provider.Count(def.Name, value, tags)
	case TypeGauge:
		return p.provider.Gauge(def.Name, value, tags)
	case TypeHistogram:
		return p.provider.Histogram(def.Name, value, tags)
	default:
		return fmt.Errorf("tipo de métrica desconhecido: %s", def.Type)
	}
}
