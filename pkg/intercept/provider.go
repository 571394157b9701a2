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

package intercept

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/raywall/rover-emulator/pkg/metrics"
	"github.com/rs/zerolog"
)

var (
	// ErrRouteExists indica uma tentativa de registrar o mesmo (origem, método, path) duas vezes.
	ErrRouteExists = errors.New("intercept: rota já registrada")
	// ErrNoRoute é devolvido pelo RoundTrip quando nenhuma rota casa e não há passthrough.
	ErrNoRoute = errors.New("intercept: nenhuma rota para a requisição")
)

// Sleeper aguarda d ou o cancelamento de ctx, o que vier primeiro.
type Sleeper func(ctx context.Context, d time.Duration) error

// Provider intercepta requisições HTTP e as entrega a handlers registrados
// em memória. Implementa http.RoundTripper (para clientes Go) e http.Handler
// (para servir a mesma tabela de rotas em uma porta real).
type Provider struct {
	mu     sync.RWMutex
	router *mux.Router
	routes map[string]*route
	// hosts guarda um router por origem; só o RoundTrip olha para ele
	hosts map[string]*mux.Router

	passthrough http.RoundTripper
	sleep       Sleeper
	logger      zerolog.Logger
	metrics     *metrics.Processor
}

type route struct {
	info    RouteInfo
	handler HandlerFunc
	timing  Timing
	http    http.Handler
}

type Option func(*Provider)

// WithPassthrough envia para rt as requisições que não casam com nenhuma rota.
func WithPassthrough(rt http.RoundTripper) Option {
	return func(p *Provider) { p.passthrough = rt }
}

// WithSleeper troca a espera da latência simulada (útil para testes determinísticos).
func WithSleeper(s Sleeper) Option {
	return func(p *Provider) { p.sleep = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

func WithMetrics(m *metrics.Processor) Option {
	return func(p *Provider) { p.metrics = m }
}

// NewProvider cria um provider vazio, sem rotas.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		router:  mux.NewRouter(),
		routes:  make(map[string]*route),
		hosts:   make(map[string]*mux.Router),
		sleep:   sleepContext,
		logger:  zerolog.Nop(),
		metrics: metrics.NewProcessor(metrics.DeviceDefinitions, nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client devolve um *http.Client cujo transporte é o próprio provider.
func (p *Provider) Client() *http.Client {
	return &http.Client{Transport: p}
}

// CreateServer registra um bloco de rotas sob {URLPrefix}/{Namespace}.
// O registro é atômico: se qualquer rota conflitar, nenhuma é adicionada.
func (p *Provider) CreateServer(opts ServerOptions) (*Server, error) {
	srv, err := newServer(opts)
	if err != nil {
		return nil, err
	}

	reg := &Registrar{server: srv}
	if opts.Routes != nil {
		opts.Routes(reg)
	}
	if reg.err != nil {
		return nil, reg.err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]struct{}, len(reg.routes))
	for _, rt := range reg.routes {
		key := rt.info.key()
		if _, dup := p.routes[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrRouteExists, key)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrRouteExists, key)
		}
		seen[key] = struct{}{}
	}

	host, ok := p.hosts[srv.origin]
	if !ok {
		host = mux.NewRouter()
		p.hosts[srv.origin] = host
	}

	for _, rt := range reg.routes {
		key := rt.info.key()
		rt.http = p.adapt(rt)
		p.routes[key] = rt
		rt.attach(p.router, key)
		rt.attach(host, key)
		srv.routes = append(srv.routes, rt.info)
	}

	p.logger.Debug().
		Str("prefix", srv.Prefix()).
		Int("routes", len(reg.routes)).
		Msg("rotas registradas")

	return srv, nil
}

// RoundTrip implementa http.RoundTripper.
func (p *Provider) RoundTrip(req *http.Request) (*http.Response, error) {
	rt, match, ok := p.match(req, true)
	if !ok {
		if p.passthrough != nil {
			return p.passthrough.RoundTrip(req)
		}
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, fmt.Errorf("%w: %s %s", ErrNoRoute, req.Method, req.URL)
	}
	if req.Body != nil {
		defer req.Body.Close()
	}

	rec, err := p.deliver(rt, mux.SetURLVars(req, match.Vars))
	if err != nil {
		return nil, err
	}

	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

// ServeHTTP implementa http.Handler. O host é ignorado: só método e path contam.
// Se dois servers usam o mesmo path em origens diferentes, vale o primeiro registrado.
func (p *Provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt, match, ok := p.match(r, false)
	if !ok {
		// O router gera 404 ou 405 conforme o caso
		p.mu.RLock()
		defer p.mu.RUnlock()
		p.router.ServeHTTP(w, r)
		return
	}

	rec, err := p.deliver(rt, mux.SetURLVars(r, match.Vars))
	if err != nil {
		// Cliente desistiu durante a latência simulada
		return
	}

	for k, v := range rec.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(rec.Code)
	_, _ = w.Write(rec.Body.Bytes())
}

// Routes lista as rotas registradas em todos os servers.
func (p *Provider) Routes() []RouteInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]RouteInfo, 0, len(p.routes))
	for _, rt := range p.routes {
		out = append(out, rt.info)
	}
	return out
}

// match procura a rota da requisição. Com byOrigin, só as rotas registradas
// sob a mesma origem (esquema, host e porta) da URL são candidatas.
func (p *Provider) match(req *http.Request, byOrigin bool) (*route, *mux.RouteMatch, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	router := p.router
	if byOrigin {
		host, ok := p.hosts[originOf(req.URL)]
		if !ok {
			return nil, nil, false
		}
		router = host
	}

	var match mux.RouteMatch
	if !router.Match(req, &match) || match.Route == nil {
		return nil, nil, false
	}
	rt, ok := p.routes[match.Route.GetName()]
	if !ok {
		return nil, nil, false
	}
	return rt, &match, true
}

// deliver executa o handler de forma síncrona (qualquer mutação de estado
// acontece aqui, na ordem de chegada) e só então aplica a latência da rota.
func (p *Provider) deliver(rt *route, req *http.Request) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	rt.http.ServeHTTP(rec, req)

	var delay time.Duration
	if rt.timing != nil {
		delay = rt.timing()
	}

	tag := "route:" + rt.info.Name
	_ = p.metrics.Emit(metrics.RouteRequests, 1, tag)
	_ = p.metrics.Emit(metrics.RouteLatency, float64(delay.Milliseconds()), tag)

	p.logger.Debug().
		Str("method", rt.info.Method).
		Str("route", rt.info.Name).
		Int("status", rec.Code).
		Int64("delay_ms", delay.Milliseconds()).
		Msg("requisição interceptada")

	if err := p.sleep(req.Context(), delay); err != nil {
		return nil, err
	}
	return rec, nil
}

func (rt *route) attach(r *mux.Router, name string) {
	r.NewRoute().
		Name(name).
		Path(rt.info.Path).
		Methods(rt.info.Method).
		Handler(rt.http)
}

func (p *Provider) adapt(rt *route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := rt.handler(r).Write(w); err != nil {
			p.logger.Error().Err(err).Str("route", rt.info.Name).Msg("erro ao escrever resposta")
		}
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
