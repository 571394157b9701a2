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

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/raywall/rover-emulator/pkg/config"
	"github.com/raywall/rover-emulator/pkg/intercept"
	"github.com/raywall/rover-emulator/pkg/logger"
	"github.com/raywall/rover-emulator/pkg/metrics"
	"github.com/raywall/rover-emulator/pkg/rover"
	"github.com/rs/zerolog"
)

// ErrAlreadyInitialized é devolvido quando Initialize é chamado mais de uma vez.
var ErrAlreadyInitialized = errors.New("bootstrap: rover já inicializado neste ambiente")

// Environment agrupa tudo o que um teste (ou o CLI) precisa para falar com o
// rover simulado. É devolvido por Install e passado explicitamente.
type Environment struct {
	Provider *intercept.Provider
	Config   *config.EmulatorConfig
	Logger   zerolog.Logger
	Metrics  metrics.Provider

	processor *metrics.Processor

	mu     sync.Mutex
	server *rover.Server
}

// Result é a entrega única de InstallAsync.
type Result struct {
	Env *Environment
	Err error
}

type settings struct {
	loaderOpts   []config.LoaderOption
	providerOpts []intercept.Option
	logOut       io.Writer
	metrics      metrics.Provider
}

type Option func(*settings)

// WithLoaderOptions repassa opções ao config.Loader (clientes HTTP, S3, DynamoDB).
func WithLoaderOptions(opts ...config.LoaderOption) Option {
	return func(s *settings) { s.loaderOpts = append(s.loaderOpts, opts...) }
}

// WithProviderOptions repassa opções ao intercept.Provider (ex: WithSleeper).
func WithProviderOptions(opts ...intercept.Option) Option {
	return func(s *settings) { s.providerOpts = append(s.providerOpts, opts...) }
}

// WithLogWriter troca a saída dos logs (default: stdout).
func WithLogWriter(w io.Writer) Option {
	return func(s *settings) { s.logOut = w }
}

// WithMetricsProvider ignora a seção metrics do YAML e usa p.
func WithMetricsProvider(p metrics.Provider) Option {
	return func(s *settings) { s.metrics = p }
}

// Install carrega a configuração de source em uma única tentativa e monta o
// provider de interceptação. Só retorna quando o provider está pronto para uso.
//
// Fontes suportadas: "" (defaults), caminho local ou file://, http(s)://,
// s3://bucket/key e dynamodb://tabela/chave.
func Install(ctx context.Context, source string, opts ...Option) (*Environment, error) {
	s := &settings{logOut: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := config.NewLoader(s.loaderOpts...).Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: falha ao carregar provider de %q: %w", source, err)
	}

	log := logger.ConfigureWriter(cfg.Logging, s.logOut)

	mp := s.metrics
	if mp == nil {
		mp, err = metrics.Setup(cfg.Metrics, cfg.Device)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}
	proc := metrics.NewProcessor(metrics.DeviceDefinitions, mp)

	providerOpts := append([]intercept.Option{
		intercept.WithLogger(log),
		intercept.WithMetrics(proc),
	}, s.providerOpts...)

	log.Debug().Str("source", source).Msg("provider de interceptação instalado")

	return &Environment{
		Provider:  intercept.NewProvider(providerOpts...),
		Config:    cfg,
		Logger:    log,
		Metrics:   mp,
		processor: proc,
	}, nil
}

// InstallAsync executa Install em uma goroutine e entrega exatamente um Result.
func InstallAsync(ctx context.Context, source string, opts ...Option) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		env, err := Install(ctx, source, opts...)
		ch <- Result{Env: env, Err: err}
	}()
	return ch
}

// Initialize cria o rover simulado a partir da seção device da configuração.
// Opções extras são aplicadas depois das derivadas do YAML.
func (e *Environment) Initialize(opts ...rover.Option) (*rover.Server, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.server != nil {
		return nil, ErrAlreadyInitialized
	}

	base := []rover.Option{
		rover.WithDeviceConfig(e.Config.Device),
		rover.WithLogger(e.Logger),
		rover.WithMetrics(e.processor),
	}
	srv, err := rover.New(e.Provider, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	e.server = srv
	return srv, nil
}

// Server devolve o rover criado por Initialize, ou nil.
func (e *Environment) Server() *rover.Server {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.server
}

// Close libera o cliente de métricas, se houver.
func (e *Environment) Close() error {
	if c, ok := e.Metrics.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
