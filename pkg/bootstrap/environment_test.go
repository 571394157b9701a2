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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raywall/rover-emulator/pkg/intercept"
	"github.com/raywall/rover-emulator/pkg/rover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const emulatorYAML = `
version: "1.0"
device:
  base_url: "http://robo"
  namespace: "api"
  max_latency: "40ms"
  seed: 42
logging:
  enabled: true
  level: "info"
`

func noSleep(context.Context, time.Duration) error { return nil }

func quiet() Option { return WithLogWriter(io.Discard) }

func TestInstall_Defaults(t *testing.T) {
	env, err := Install(context.Background(), "", quiet())
	require.NoError(t, err)
	defer env.Close()

	require.NotNil(t, env.Provider)
	assert.Equal(t, "http://rover", env.Config.Device.BaseURL)
	assert.Nil(t, env.Server())
	assert.Empty(t, env.Provider.Routes())
}

func TestInstall_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emulator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(emulatorYAML), 0o600))

	var logs bytes.Buffer
	env, err := Install(context.Background(), path, WithLogWriter(&logs))
	require.NoError(t, err)

	srv, err := env.Initialize()
	require.NoError(t, err)
	assert.Equal(t, "http://robo/api", srv.Prefix())
	assert.Same(t, srv, env.Server())
	assert.Contains(t, logs.String(), "rover simulado pronto")
}

func TestInstall_Remote_SingleAttempt(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	env, err := Install(context.Background(), ts.URL+"/emulator.yaml", quiet())
	assert.Error(t, err)
	assert.Nil(t, env)
	assert.Contains(t, err.Error(), "bootstrap: falha ao carregar provider")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestInstall_Remote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(emulatorYAML))
	}))
	defer ts.Close()

	env, err := Install(context.Background(), ts.URL, quiet())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), env.Config.Device.Seed)
}

func TestInstallAsync(t *testing.T) {
	t.Run("Sucesso", func(t *testing.T) {
		res, ok := <-InstallAsync(context.Background(), "", quiet())
		require.True(t, ok)
		require.NoError(t, res.Err)
		assert.NotNil(t, res.Env)
	})

	t.Run("Falha entregue no canal", func(t *testing.T) {
		ch := InstallAsync(context.Background(), "/nao/existe.yaml", quiet())
		res := <-ch
		assert.Error(t, res.Err)
		assert.Nil(t, res.Env)

		// Exatamente um resultado
		_, ok := <-ch
		assert.False(t, ok)
	})
}

func TestEnvironment_Initialize_Twice(t *testing.T) {
	env, err := Install(context.Background(), "", quiet())
	require.NoError(t, err)

	_, err = env.Initialize()
	require.NoError(t, err)

	_, err = env.Initialize()
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	// Criar direto no mesmo provider também falha
	_, err = rover.New(env.Provider)
	assert.ErrorIs(t, err, intercept.ErrRouteExists)
}

// Cenário completo: instalar, inicializar e exercitar todas as rotas via RoundTripper.
func TestEndToEnd(t *testing.T) {
	env, err := Install(context.Background(), "", quiet(),
		WithProviderOptions(intercept.WithSleeper(noSleep)))
	require.NoError(t, err)

	srv, err := env.Initialize(rover.WithRand(rover.NewRand(8)))
	require.NoError(t, err)
	client := env.Provider.Client()

	for _, route := range []string{rover.RouteMove, rover.RouteLook} {
		resp, err := client.Post(srv.URL(route), "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, route)
		assert.Empty(t, body)
	}

	for _, route := range []string{rover.RouteObstacles, rover.RouteLines} {
		resp, err := client.Get(srv.URL(route))
		require.NoError(t, err)
		var pair []bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
		resp.Body.Close()
		assert.Len(t, pair, 2, route)
	}

	var last int64
	for i := 0; i < 20; i++ {
		resp, err := client.Get(srv.URL(rover.RouteDistance))
		require.NoError(t, err)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&last))
		resp.Body.Close()
	}
	assert.Equal(t, last, srv.Snapshot().Distance)
	assert.Equal(t, int64(20), srv.Snapshot().DistanceReads)
}
