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
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLambdaHandler(t *testing.T) {
	p, s := newRoverHandler(t)
	handler := NewLambdaHandler(p, zerolog.Nop())

	t.Run("Move", func(t *testing.T) {
		resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/api/move",
			Body:       `{"type":"Forward","speed":50}`,
			Headers:    map[string]string{"Content-Type": "application/json"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, resp.Body)
		assert.NotEmpty(t, resp.Headers[HeaderCorrelationID])
		require.NotNil(t, s.Snapshot().LastMove)
	})

	t.Run("Corpo em base64", func(t *testing.T) {
		resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod:      http.MethodPost,
			Path:            "/api/look",
			Body:            base64.StdEncoding.EncodeToString([]byte(`{"h":5,"v":-5}`)),
			IsBase64Encoded: true,
			Headers:         map[string]string{HeaderCorrelationID: "lambda-1"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "lambda-1", resp.Headers[HeaderCorrelationID])
		assert.Equal(t, int16(-5), s.Snapshot().LastLook.V)
	})

	t.Run("Distância", func(t *testing.T) {
		resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodGet,
			Path:       "/api/sense/distance",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	})

	t.Run("Base64 inválido", func(t *testing.T) {
		resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod:      http.MethodPost,
			Path:            "/api/move",
			Body:            "%%%",
			IsBase64Encoded: true,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
