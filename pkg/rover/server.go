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

package rover

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raywall/rover-emulator/pkg/config"
	"github.com/raywall/rover-emulator/pkg/intercept"
	"github.com/raywall/rover-emulator/pkg/metrics"
	"github.com/rs/zerolog"
)

// Rotas relativas ao namespace.
const (
	RouteMove      = "move"
	RouteLook      = "look"
	RouteObstacles = "sense/obstacles"
	RouteLines     = "sense/lines"
	RouteDistance  = "sense/distance"
)

// maxBodyBytes limita a leitura dos corpos de move/look.
const maxBodyBytes = 4 << 10

// Server é o rover simulado registrado em um intercept.Provider.
type Server struct {
	api   *intercept.Server
	state atomic.Pointer[session]
	// newRand produz a fonte de cada sessão; com semente fixa a sequência se repete
	newRand func() Rand

	baseURL        string
	namespace      string
	maxLatency     time.Duration
	latencyEnabled bool
	maxStep        int

	logger  zerolog.Logger
	metrics *metrics.Processor
}

// session é o estado mutável do rover. Reinit troca a sessão inteira de uma vez.
type session struct {
	odometer Odometer
	rng      *lockedRand

	cmdMu    sync.Mutex
	lastMove *MoveCommand
	lastLook *LookCommand
}

type Option func(*Server)

func WithBaseURL(u string) Option {
	return func(s *Server) { s.baseURL = u }
}

func WithNamespace(ns string) Option {
	return func(s *Server) { s.namespace = ns }
}

// WithRand injeta a fonte de aleatoriedade. A mesma fonte segue em uso
// depois de Reinit; para repetir a sequência use WithSeed.
func WithRand(r Rand) Option {
	return func(s *Server) { s.newRand = func() Rand { return r } }
}

// WithSeed usa NewRand(seed) a cada sessão. Semente 0 significa aleatória.
func WithSeed(seed uint64) Option {
	return func(s *Server) { s.newRand = func() Rand { return NewRand(seed) } }
}

// WithMaxLatency define o limite superior (exclusivo) do atraso das rotas sense/*.
func WithMaxLatency(d time.Duration) Option {
	return func(s *Server) { s.maxLatency = d }
}

// WithLatencyEnabled liga ou desliga o atraso simulado.
func WithLatencyEnabled(enabled bool) Option {
	return func(s *Server) { s.latencyEnabled = enabled }
}

// WithMaxStep define o limite (exclusivo) da magnitude de cada passo do odômetro.
func WithMaxStep(n int) Option {
	return func(s *Server) { s.maxStep = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithMetrics(m *metrics.Processor) Option {
	return func(s *Server) { s.metrics = m }
}

// WithDeviceConfig aplica a seção device do YAML.
func WithDeviceConfig(cfg config.DeviceConf) Option {
	return func(s *Server) {
		s.baseURL = cfg.BaseURL
		s.namespace = cfg.Namespace
		s.maxLatency = cfg.LatencyBound()
		s.latencyEnabled = cfg.LatencyEnabled
		if cfg.MaxStep > 0 {
			s.maxStep = cfg.MaxStep
		}
		WithSeed(cfg.Seed)(s)
	}
}

// New registra a tabela de rotas do rover no provider e devolve o server
// pronto para responder. O odômetro começa em zero.
func New(p *intercept.Provider, opts ...Option) (*Server, error) {
	if p == nil {
		return nil, errors.New("rover: provider nulo")
	}

	s := &Server{
		newRand:        func() Rand { return NewRand(0) },
		baseURL:        config.DefaultBaseURL,
		namespace:      config.DefaultNamespace,
		maxLatency:     3 * time.Second,
		latencyEnabled: true,
		maxStep:        config.DefaultMaxStep,
		logger:         zerolog.Nop(),
		metrics:        metrics.NewProcessor(metrics.DeviceDefinitions, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxStep <= 0 {
		return nil, fmt.Errorf("rover: max step deve ser positivo, recebido %d", s.maxStep)
	}
	s.state.Store(s.newSession())

	api, err := p.CreateServer(intercept.ServerOptions{
		URLPrefix: s.baseURL,
		Namespace: s.namespace,
		Routes:    s.routes,
	})
	if err != nil {
		return nil, fmt.Errorf("rover: falha ao registrar rotas: %w", err)
	}
	s.api = api

	s.logger.Info().
		Str("prefix", api.Prefix()).
		Dur("max_latency", s.maxLatency).
		Bool("latency_enabled", s.latencyEnabled).
		Msg("rover simulado pronto")

	return s, nil
}

func (s *Server) routes(r *intercept.Registrar) {
	sense := intercept.WithTiming(s.senseDelay)

	r.Post(RouteMove, s.handleMove)
	r.Get(RouteMove, s.handleMoveState)
	r.Post(RouteLook, s.handleLook)
	r.Get(RouteLook, s.handleLookState)

	r.Get(RouteObstacles, s.handleObstacles, sense)
	r.Get(RouteLines, s.handleLines, sense)
	r.Get(RouteDistance, s.handleDistance, sense)
}

// Prefix devolve "{base_url}/{namespace}".
func (s *Server) Prefix() string {
	return s.api.Prefix()
}

// URL monta a URL completa de uma rota, ex: URL(RouteDistance).
func (s *Server) URL(route string) string {
	return s.api.URL(route)
}

// Routes lista as rotas registradas por este server.
func (s *Server) Routes() []intercept.RouteInfo {
	return s.api.Routes()
}

// Snapshot copia o estado da sessão atual.
func (s *Server) Snapshot() Snapshot {
	st := s.state.Load()
	distance, reads := st.odometer.snapshot()
	snap := Snapshot{Distance: distance, DistanceReads: reads}

	st.cmdMu.Lock()
	defer st.cmdMu.Unlock()
	if st.lastMove != nil {
		m := *st.lastMove
		snap.LastMove = &m
	}
	if st.lastLook != nil {
		l := *st.lastLook
		snap.LastLook = &l
	}
	return snap
}

// Reinit reinicializa o rover sem mexer na tabela de rotas: uma sessão nova
// (odômetro em zero, sem comandos, fonte aleatória recriada) substitui a atual
// de forma atômica. Requisições em andamento terminam na sessão antiga.
func (s *Server) Reinit() error {
	old := s.state.Swap(s.newSession())
	distance, reads := old.odometer.snapshot()

	s.logger.Info().
		Int64("previous_distance", distance).
		Int64("previous_reads", reads).
		Msg("rover reinicializado")
	return nil
}

func (s *Server) newSession() *session {
	return &session{rng: &lockedRand{src: s.newRand()}}
}

// senseDelay sorteia o atraso de uma leitura em [0, maxLatency), em milissegundos.
func (s *Server) senseDelay() time.Duration {
	if !s.latencyEnabled {
		return 0
	}
	ms := int(s.maxLatency / time.Millisecond)
	if ms <= 0 {
		return 0
	}
	return time.Duration(s.state.Load().rng.IntN(ms)) * time.Millisecond
}

// distanceDelta sorteia sinal em {+1, -1} e magnitude em [0, maxStep).
func (s *Server) distanceDelta(rng *lockedRand) int64 {
	sign := int64(1)
	if !rng.Bool() {
		sign = -1
	}
	return sign * int64(rng.IntN(s.maxStep))
}

func (s *Server) readPair() Pair {
	rng := s.state.Load().rng
	return Pair{rng.Bool(), rng.Bool()}
}

// --- Handlers ---

func (s *Server) handleMove(r *http.Request) intercept.Response {
	var cmd MoveCommand
	if decodeBody(r, &cmd) && cmd.Type.valid() {
		st := s.state.Load()
		st.cmdMu.Lock()
		st.lastMove = &cmd
		st.cmdMu.Unlock()
		s.logger.Debug().Str("type", string(cmd.Type)).Uint8("speed", cmd.Speed).Msg("move")
	} else {
		s.logger.Debug().Msg("move com corpo ignorado")
	}
	return intercept.NoContent(http.StatusNoContent)
}

func (s *Server) handleMoveState(*http.Request) intercept.Response {
	st := s.state.Load()
	st.cmdMu.Lock()
	defer st.cmdMu.Unlock()
	if st.lastMove == nil {
		return intercept.NoContent(http.StatusNoContent)
	}
	return intercept.JSON(http.StatusOK, *st.lastMove)
}

func (s *Server) handleLook(r *http.Request) intercept.Response {
	var cmd LookCommand
	if decodeBody(r, &cmd) {
		st := s.state.Load()
		st.cmdMu.Lock()
		st.lastLook = &cmd
		st.cmdMu.Unlock()
		s.logger.Debug().Int16("h", cmd.H).Int16("v", cmd.V).Msg("look")
	} else {
		s.logger.Debug().Msg("look com corpo ignorado")
	}
	return intercept.NoContent(http.StatusNoContent)
}

func (s *Server) handleLookState(*http.Request) intercept.Response {
	st := s.state.Load()
	st.cmdMu.Lock()
	defer st.cmdMu.Unlock()
	if st.lastLook == nil {
		return intercept.NoContent(http.StatusNoContent)
	}
	return intercept.JSON(http.StatusOK, *st.lastLook)
}

func (s *Server) handleObstacles(*http.Request) intercept.Response {
	return intercept.JSON(http.StatusOK, s.readPair())
}

func (s *Server) handleLines(*http.Request) intercept.Response {
	return intercept.JSON(http.StatusOK, s.readPair())
}

func (s *Server) handleDistance(*http.Request) intercept.Response {
	st := s.state.Load()
	delta := s.distanceDelta(st.rng)
	distance := st.odometer.Advance(delta)

	_ = s.metrics.Emit(metrics.Distance, float64(distance))
	s.logger.Debug().
		Int64("delta", delta).
		Int64("distance", distance).
		Msg("distance")

	return intercept.JSON(http.StatusOK, distance)
}

// decodeBody tenta decodificar o corpo JSON; falhas nunca viram erro HTTP.
func decodeBody(r *http.Request, v interface{}) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// ParseDistance converte o corpo de sense/distance em inteiro.
func ParseDistance(body []byte) (int64, error) {
	var v json.Number
	if err := json.Unmarshal(body, &v); err != nil {
		return 0, fmt.Errorf("rover: distância inválida: %w", err)
	}
	return strconv.ParseInt(v.String(), 10, 64)
}
