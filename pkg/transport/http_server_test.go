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

package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raywall/rover-emulator/pkg/intercept"
	"github.com/raywall/rover-emulator/pkg/rover"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newRoverHandler(t *testing.T) (*intercept.Provider, *rover.Server) {
	t.Helper()
	p := intercept.NewProvider(intercept.WithSleeper(noSleep))
	s, err := rover.New(p, rover.WithRand(rover.NewRand(1)))
	require.NoError(t, err)
	return p, s
}

func TestObservabilityMiddleware(t *testing.T) {
	p, _ := newRoverHandler(t)
	var logs bytes.Buffer
	handler := ObservabilityMiddleware(zerolog.New(&logs), p)

	t.Run("Gera correlation id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/move", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(HeaderCorrelationID))
		assert.NotEmpty(t, rec.Header().Get(HeaderLatency))
	})

	t.Run("Propaga correlation id recebido", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sense/distance", nil)
		req.Header.Set(HeaderCorrelationID, "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "abc-123", rec.Header().Get(HeaderCorrelationID))
		assert.Contains(t, logs.String(), `"correlation_id":"abc-123"`)
		assert.Contains(t, logs.String(), `"path":"/api/sense/distance"`)
	})

	t.Run("Rota inexistente", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nada", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServe_Shutdown(t *testing.T) {
	p, s := newRoverHandler(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, p, zerolog.Nop()) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/api/sense/obstacles")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	client.CloseIdleConnections()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, strings.Split(strings.Trim(string(body), "[]\n"), ","), 2)
	assert.Equal(t, int64(0), s.Snapshot().DistanceReads)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("servidor não encerrou")
	}
}

func TestStartHTTPServer_InvalidAddr(t *testing.T) {
	err := StartHTTPServer(context.Background(), "endereço-inválido", http.NotFoundHandler(), zerolog.Nop())
	assert.Error(t, err)
}
