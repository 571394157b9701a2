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
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Timing sorteia o atraso aplicado antes de entregar a resposta de uma rota.
type Timing func() time.Duration

// ServerOptions é o bloco de configuração aceito por Provider.CreateServer.
type ServerOptions struct {
	URLPrefix string
	Namespace string
	Routes    func(r *Registrar)
}

// RouteInfo descreve uma rota registrada.
type RouteInfo struct {
	Origin  string // ex: "http://rover"
	Method  string
	Name    string // path relativo ao namespace, ex: "sense/distance"
	Path    string // path absoluto, ex: "/api/sense/distance"
	Delayed bool
}

func (ri RouteInfo) key() string {
	return ri.Origin + " " + ri.Method + " " + ri.Path
}

// Server é o bloco de rotas registrado sob um prefixo.
type Server struct {
	urlPrefix string
	namespace string
	origin    string
	basePath  string
	routes    []RouteInfo
}

func newServer(opts ServerOptions) (*Server, error) {
	u, err := url.Parse(opts.URLPrefix)
	if err != nil {
		return nil, fmt.Errorf("intercept: urlPrefix inválido: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("intercept: urlPrefix precisa de esquema e host: %q", opts.URLPrefix)
	}

	return &Server{
		urlPrefix: strings.TrimRight(opts.URLPrefix, "/"),
		namespace: strings.Trim(opts.Namespace, "/"),
		origin:    originOf(u),
		basePath:  path.Join("/", u.Path, strings.Trim(opts.Namespace, "/")),
	}, nil
}

// Prefix devolve "{urlPrefix}/{namespace}".
func (s *Server) Prefix() string {
	if s.namespace == "" {
		return s.urlPrefix
	}
	return s.urlPrefix + "/" + s.namespace
}

// URL monta a URL completa de uma rota relativa ao namespace.
func (s *Server) URL(name string) string {
	return s.Prefix() + "/" + strings.TrimLeft(name, "/")
}

// Namespace devolve o namespace sem barras.
func (s *Server) Namespace() string {
	return s.namespace
}

// Routes lista as rotas deste server na ordem de registro.
func (s *Server) Routes() []RouteInfo {
	out := make([]RouteInfo, len(s.routes))
	copy(out, s.routes)
	return out
}

// Registrar coleta as rotas declaradas dentro de ServerOptions.Routes.
type Registrar struct {
	server *Server
	routes []*route
	err    error
}

// RouteOption ajusta uma rota no momento do registro.
type RouteOption func(*route)

// WithTiming define a política de latência da rota.
func WithTiming(t Timing) RouteOption {
	return func(rt *route) {
		rt.timing = t
		rt.info.Delayed = t != nil
	}
}

func (r *Registrar) Get(name string, h HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodGet, name, h, opts...)
}

func (r *Registrar) Post(name string, h HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPost, name, h, opts...)
}

// Handle registra uma rota para um método arbitrário. O primeiro erro é
// guardado e devolvido por CreateServer.
func (r *Registrar) Handle(method, name string, h HandlerFunc, opts ...RouteOption) {
	if r.err != nil {
		return
	}
	if h == nil {
		r.err = fmt.Errorf("intercept: handler nulo para %s %s", method, name)
		return
	}

	clean := strings.Trim(name, "/")
	rt := &route{
		info: RouteInfo{
			Origin: r.server.origin,
			Method: strings.ToUpper(method),
			Name:   clean,
			Path:   path.Join(r.server.basePath, clean),
		},
		handler: h,
	}
	for _, opt := range opts {
		opt(rt)
	}
	r.routes = append(r.routes, rt)
}

// originOf normaliza esquema e host. A porta padrão do esquema é omitida,
// então "http://rover:80" e "http://rover" são a mesma origem.
func originOf(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		return scheme + "://" + host
	}
	return scheme + "://" + net.JoinHostPort(host, port)
}
