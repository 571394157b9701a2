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
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *EmulatorConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuração nula")
	}

	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Field(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *EmulatorConfig) error {
	// 1. base_url precisa ser http(s) com host, pois é o prefixo interceptado
	u, err := url.Parse(cfg.Device.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url inválida: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url deve usar http ou https, recebido '%s'", u.Scheme)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("base_url não pode conter query ou fragmento")
	}

	// 2. namespace vira um segmento de path
	ns := strings.Trim(cfg.Device.Namespace, "/")
	if ns == "" {
		return fmt.Errorf("namespace vazio após remover barras")
	}
	if strings.ContainsAny(ns, "?#{} ") {
		return fmt.Errorf("namespace contém caracteres inválidos: '%s'", cfg.Device.Namespace)
	}

	// 3. Latência precisa ser uma duração não negativa
	d, err := time.ParseDuration(cfg.Device.MaxLatency)
	if err != nil {
		return fmt.Errorf("max_latency inválida '%s': %w", cfg.Device.MaxLatency, err)
	}
	if d < 0 {
		return fmt.Errorf("max_latency não pode ser negativa: %s", d)
	}

	return nil
}
