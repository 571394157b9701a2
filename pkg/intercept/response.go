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
	"encoding/json"
	"net/http"
)

// Response é o que um HandlerFunc devolve: status, headers e body opcional.
type Response struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    interface{}       `json:"body,omitempty"`
	// raw indica que Body já é []byte e não deve passar pelo encoder JSON
	raw bool
}

// HandlerFunc produz a resposta de uma rota interceptada.
type HandlerFunc func(r *http.Request) Response

// NoContent constrói uma resposta sem corpo com o status informado.
func NoContent(status int) Response {
	return Response{Status: status}
}

// JSON constrói uma resposta com corpo codificado em JSON.
func JSON(status int, body interface{}) Response {
	return Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}
}

// Text constrói uma resposta text/plain.
func Text(status int, body string) Response {
	return Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:    []byte(body),
		raw:     true,
	}
}

// Write serializa a resposta em w.
func (resp Response) Write(w http.ResponseWriter) error {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(status)

	if resp.Body == nil || status == http.StatusNoContent || status == http.StatusNotModified {
		return nil
	}
	if resp.raw {
		_, err := w.Write(resp.Body.([]byte))
		return err
	}
	return json.NewEncoder(w).Encode(resp.Body)
}
