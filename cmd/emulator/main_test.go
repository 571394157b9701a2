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
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/rover-emulator/pkg/transport"
	"github.com/rogpeppe/go-internal/testscript"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"emulator": main,
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
	})
}

// blockingSQS bloqueia no long polling até o contexto acabar
type blockingSQS struct{}

func (blockingSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingSQS) DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	return &sqs.DeleteMessageOutput{}, nil
}

func TestServeCmd(t *testing.T) {
	originalStarter, originalFactory := serverStarter, sqsFactory
	defer func() { serverStarter, sqsFactory = originalStarter, originalFactory }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gotAddr string
	var gotHandler http.Handler
	serverStarter = func(_ context.Context, addr string, h http.Handler, _ zerolog.Logger) error {
		gotAddr, gotHandler = addr, h
		cancel()
		return nil
	}
	sqsCalled := false
	sqsFactory = func(context.Context) (transport.SQSClient, error) {
		sqsCalled = true
		return blockingSQS{}, nil
	}

	cmd := &ServeCmd{ResetQueue: "https://sqs.local/reset", logOut: io.Discard}
	require.NoError(t, cmd.Run(ctx))

	assert.Equal(t, ":8080", gotAddr)
	assert.True(t, sqsCalled)
	require.NotNil(t, gotHandler)
}

func TestServeCmd_ListenOverride(t *testing.T) {
	original := serverStarter
	defer func() { serverStarter = original }()

	var gotAddr string
	serverStarter = func(_ context.Context, addr string, _ http.Handler, _ zerolog.Logger) error {
		gotAddr = addr
		return nil
	}

	cmd := &ServeCmd{Listen: "127.0.0.1:9999", logOut: io.Discard}
	require.NoError(t, cmd.Run(context.Background()))
	assert.Equal(t, "127.0.0.1:9999", gotAddr)
}

func TestServeCmd_SQSFactoryError(t *testing.T) {
	originalStarter, originalFactory := serverStarter, sqsFactory
	defer func() { serverStarter, sqsFactory = originalStarter, originalFactory }()

	var started atomic.Bool
	serverStarter = func(ctx context.Context, _ string, _ http.Handler, _ zerolog.Logger) error {
		started.Store(true)
		<-ctx.Done()
		return nil
	}
	sqsFactory = func(context.Context) (transport.SQSClient, error) {
		return nil, errors.New("sem credenciais aws")
	}

	cmd := &ServeCmd{ResetQueue: "https://sqs.local/reset", logOut: io.Discard}
	err := cmd.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "falha ao criar cliente SQS")

	// Nenhum servidor HTTP pode ter ficado de pé
	assert.False(t, started.Load())
}

func TestServeCmd_InvalidConfig(t *testing.T) {
	cmd := &ServeCmd{Config: "/nao/existe.yaml", logOut: io.Discard}
	assert.Error(t, cmd.Run(context.Background()))
}

func TestLambdaCmd(t *testing.T) {
	original := lambdaStarter
	defer func() { lambdaStarter = original }()

	var resp events.APIGatewayProxyResponse
	lambdaStarter = func(h interface{}) {
		handle := h.(func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error))
		var err error
		resp, err = handle(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/api/move",
			Body:       `{"type":"CCWSpin","speed":3}`,
		})
		require.NoError(t, err)
	}

	cmd := &LambdaCmd{logOut: io.Discard}
	require.NoError(t, cmd.Run(context.Background()))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestProbeCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := &ProbeCmd{Count: 3, Seed: 9, NoLatency: true, out: &out, logOut: io.Discard}
	require.NoError(t, cmd.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1+2+2+3+1)
	assert.Equal(t, "prefix http://rover/api", lines[0])
	assert.Equal(t, "move 204", lines[1])
	assert.Equal(t, "look 204", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "obstacles 200 ["))
	assert.True(t, strings.HasPrefix(lines[4], "lines 200 ["))
	assert.Contains(t, lines[8], "reads=3")
}

func TestValidateCmd(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "ok.yaml")
	require.NoError(t, os.WriteFile(good, []byte("version: \"1.0\"\ndevice:\n  namespace: v3\n"), 0o600))

	var out bytes.Buffer
	require.NoError(t, (&ValidateCmd{File: good, out: &out}).Run(context.Background()))
	assert.Contains(t, out.String(), `"prefix":"http://rover/v3"`)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("device:\n  base_url: ftp://rover\n"), 0o600))
	assert.Error(t, (&ValidateCmd{File: bad, out: io.Discard}).Run(context.Background()))
}
