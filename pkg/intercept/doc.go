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
// Package intercept fornece um provider de interceptação HTTP em memória:
// requisições feitas por um *http.Client que usa o Provider como Transport
// são entregues a handlers registrados, sem tocar a rede.
//
// Visão Geral:
// O Provider mantém uma tabela de rotas (método + path) montada com
// gorilla/mux. Cada bloco de rotas é registrado via CreateServer, sob um
// prefixo "{URLPrefix}/{Namespace}", de forma atômica. Rotas podem declarar
// uma política de latência (Timing): o handler roda imediatamente e a
// resposta só é entregue depois do atraso sorteado, respeitando o contexto
// da requisição.
//
// O mesmo Provider também implementa http.Handler, permitindo servir a
// tabela de rotas em uma porta real (ex: para um front-end no navegador).
//
// Exemplo:
//
//	p := intercept.NewProvider()
//	_, err := p.CreateServer(intercept.ServerOptions{
//		URLPrefix: "http://rover",
//		Namespace: "api",
//		Routes: func(r *intercept.Registrar) {
//			r.Post("move", func(*http.Request) intercept.Response {
//				return intercept.NoContent(http.StatusNoContent)
//			})
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	resp, err := p.Client().Post("http://rover/api/move", "application/json", nil)
//
// Registrar a mesma rota duas vezes devolve ErrRouteExists; uma requisição
// sem rota correspondente devolve ErrNoRoute, a menos que um passthrough
// tenha sido configurado com WithPassthrough.
package intercept
