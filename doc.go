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
//
// Package rover_emulator fornece um emulador da API HTTP do rover, usado no
// desenvolvimento e nos testes de front-ends sem o dispositivo físico.
//
// Visão Geral:
// As requisições do cliente são interceptadas em memória (ou servidas em uma
// porta real) e respondidas com valores sintéticos: confirmação de comandos,
// leituras ruidosas de sensores, odometria acumulada e latência de rede variável.
//
// Sub-Pacotes Principais:
//
// 1. pkg/intercept:
//   - Provider que implementa http.RoundTripper e http.Handler.
//   - Registro atômico de rotas via CreateServer e latência por rota.
//
// 2. pkg/rover:
//   - Tabela de rotas do rover (move, look, sense/*).
//   - Odômetro com estado próprio e aleatoriedade injetável.
//
// 3. pkg/bootstrap:
//   - Install/InstallAsync carregam a configuração em uma única tentativa.
//   - Environment.Initialize cria o rover uma única vez.
//
// 4. pkg/config, pkg/logger, pkg/metrics, pkg/transport:
//   - YAML multi-fonte (arquivo, http, S3, DynamoDB) com injeção de env/SSM/Secrets.
//   - zerolog, métricas Datadog e servidor HTTP com correlation id.
//
// Exemplo de Início Rápido:
//
//	package main
//
//	import (
//		"context"
//		"io"
//		"log"
//
//		"github.com/raywall/rover-emulator/pkg/bootstrap"
//		"github.com/raywall/rover-emulator/pkg/rover"
//	)
//
//	func main() {
//		// 1. Instala o provider com a configuração embutida
//		env, err := bootstrap.Install(context.Background(), "")
//		if err != nil {
//			log.Fatalf("Erro ao instalar emulador: %v", err)
//		}
//
//		// 2. Registra as rotas do rover
//		srv, err := env.Initialize()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// 3. Usa o client interceptado como se fosse o dispositivo
//		client := env.Provider.Client()
//		resp, err := client.Get(srv.URL(rover.RouteDistance))
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer resp.Body.Close()
//		body, _ := io.ReadAll(resp.Body)
//		log.Printf("distância: %s (%d)", body, resp.StatusCode)
//	}
package rover_emulator
