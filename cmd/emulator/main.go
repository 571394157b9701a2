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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

var cli struct {
	Serve    ServeCmd    `cmd:"" help:"Serve as rotas do rover simulado em uma porta HTTP real."`
	Probe    ProbeCmd    `cmd:"" help:"Executa o cenário completo em memória e imprime os resultados."`
	Lambda   LambdaCmd   `cmd:"" help:"Atende eventos do API Gateway como função Lambda."`
	Validate ValidateCmd `cmd:"" help:"Valida um arquivo de configuração do emulador."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&cli,
		kong.Name("emulator"),
		kong.Description("Emulador do rover: intercepta a API HTTP do dispositivo em memória ou em uma porta real."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	kctx.FatalIfErrorf(kctx.Run())
}
