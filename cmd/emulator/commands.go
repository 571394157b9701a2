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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/rover-emulator/pkg/bootstrap"
	"github.com/raywall/rover-emulator/pkg/config"
	"github.com/raywall/rover-emulator/pkg/intercept"
	"github.com/raywall/rover-emulator/pkg/rover"
	"github.com/raywall/rover-emulator/pkg/transport"
	"golang.org/x/sync/errgroup"
)

// Injetáveis para testes
var (
	serverStarter = transport.StartHTTPServer
	lambdaStarter = func(handler interface{}) { lambda.Start(handler) }
	sqsFactory    = func(ctx context.Context) (transport.SQSClient, error) {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return sqs.NewFromConfig(cfg), nil
	}
)

// ServeCmd sobe o provider atrás de um servidor HTTP real.
type ServeCmd struct {
	Config     string `help:"Fonte da configuração: arquivo, http(s)://, s3://bucket/key ou dynamodb://tabela/chave." env:"ROVER_CONFIG"`
	Listen     string `help:"Endereço de escuta (sobrepõe server.listen)."`
	ResetQueue string `help:"URL de uma fila SQS; cada mensagem reinicializa o rover." env:"ROVER_RESET_QUEUE"`

	logOut io.Writer `kong:"-"`
}

func (c *ServeCmd) Run(ctx context.Context) error {
	env, err := bootstrap.Install(ctx, c.Config, bootstrap.WithLogWriter(orStderr(c.logOut)))
	if err != nil {
		return err
	}
	defer env.Close()

	srv, err := env.Initialize()
	if err != nil {
		return err
	}

	addr := c.Listen
	if addr == "" {
		addr = env.Config.Server.Listen
	}

	// O cliente SQS é criado antes de qualquer goroutine: uma falha aqui não
	// deixa o servidor HTTP de pé.
	var listener *transport.SQSResetListener
	if c.ResetQueue != "" {
		client, err := sqsFactory(ctx)
		if err != nil {
			return fmt.Errorf("falha ao criar cliente SQS: %w", err)
		}
		listener = transport.NewSQSResetListener(client, c.ResetQueue, srv, env.Logger)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serverStarter(ctx, addr, env.Provider, env.Logger)
	})
	if listener != nil {
		g.Go(func() error {
			listener.Start(ctx)
			return nil
		})
	}

	return g.Wait()
}

// LambdaCmd atende eventos do API Gateway com a mesma tabela de rotas.
type LambdaCmd struct {
	Config string `help:"Fonte da configuração." env:"ROVER_CONFIG"`

	logOut io.Writer `kong:"-"`
}

func (c *LambdaCmd) Run(ctx context.Context) error {
	env, err := bootstrap.Install(ctx, c.Config, bootstrap.WithLogWriter(orStderr(c.logOut)))
	if err != nil {
		return err
	}
	if _, err := env.Initialize(); err != nil {
		return err
	}

	handler := transport.NewLambdaHandler(env.Provider, env.Logger)
	lambdaStarter(handler.Handle)
	return nil
}

// ProbeCmd exercita todas as rotas pelo RoundTripper, sem rede.
type ProbeCmd struct {
	Config    string `help:"Fonte da configuração." env:"ROVER_CONFIG"`
	Count     int    `help:"Quantidade de leituras de distância." default:"5"`
	Seed      uint64 `help:"Semente do gerador (0 mantém a da configuração)."`
	NoLatency bool   `help:"Desliga a latência simulada das leituras."`

	out    io.Writer `kong:"-"`
	logOut io.Writer `kong:"-"`
}

func (c *ProbeCmd) Run(ctx context.Context) error {
	var providerOpts []intercept.Option
	if c.NoLatency {
		providerOpts = append(providerOpts, intercept.WithSleeper(func(context.Context, time.Duration) error { return nil }))
	}

	env, err := bootstrap.Install(ctx, c.Config,
		bootstrap.WithLogWriter(orStderr(c.logOut)),
		bootstrap.WithProviderOptions(providerOpts...),
	)
	if err != nil {
		return err
	}
	defer env.Close()

	var roverOpts []rover.Option
	if c.Seed != 0 {
		roverOpts = append(roverOpts, rover.WithSeed(c.Seed))
	}
	srv, err := env.Initialize(roverOpts...)
	if err != nil {
		return err
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}
	p := &prober{ctx: ctx, client: env.Provider.Client(), srv: srv, out: out}

	fmt.Fprintf(out, "prefix %s\n", srv.Prefix())
	p.post(rover.RouteMove, `{"type":"Forward","speed":100}`)
	p.post(rover.RouteLook, `{"h":0,"v":0}`)
	p.get("obstacles", rover.RouteObstacles)
	p.get("lines", rover.RouteLines)
	for i := 0; i < c.Count; i++ {
		p.get("distance", rover.RouteDistance)
	}
	if p.err != nil {
		return p.err
	}

	snap := srv.Snapshot()
	fmt.Fprintf(out, "final distance=%d reads=%d\n", snap.Distance, snap.DistanceReads)
	return nil
}

// prober guarda o primeiro erro, no estilo de bufio.Scanner.
type prober struct {
	ctx    context.Context
	client *http.Client
	srv    *rover.Server
	out    io.Writer
	err    error
}

func (p *prober) post(route, body string) {
	p.do(route, http.MethodPost, route, strings.NewReader(body))
}

func (p *prober) get(label, route string) {
	p.do(label, http.MethodGet, route, nil)
}

func (p *prober) do(label, method, route string, body io.Reader) {
	if p.err != nil {
		return
	}
	req, err := http.NewRequestWithContext(p.ctx, method, p.srv.URL(route), body)
	if err != nil {
		p.err = err
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.err = err
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.err = err
		return
	}
	if len(data) == 0 {
		fmt.Fprintf(p.out, "%s %d\n", label, resp.StatusCode)
		return
	}
	fmt.Fprintf(p.out, "%s %d %s\n", label, resp.StatusCode, strings.TrimSpace(string(data)))
}

// ValidateCmd carrega e valida uma configuração, sem subir nada.
type ValidateCmd struct {
	File string `arg:"" help:"Caminho do arquivo YAML ou URI (http(s), s3, dynamodb)."`

	out io.Writer `kong:"-"`
}

func (c *ValidateCmd) Run(ctx context.Context) error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}

	cfg, err := config.NewLoader().Load(ctx, c.File)
	if err != nil {
		return fmt.Errorf("configuração inválida: %w", err)
	}

	summary, _ := json.Marshal(map[string]interface{}{
		"prefix":      cfg.Device.Prefix(),
		"max_latency": cfg.Device.LatencyBound().String(),
		"max_step":    cfg.Device.MaxStep,
		"listen":      cfg.Server.Listen,
	})
	fmt.Fprintf(out, "configuração válida: %s\n", summary)
	return nil
}

func orStderr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}
