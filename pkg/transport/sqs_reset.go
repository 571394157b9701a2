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
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
)

// SQSClient define a interface necessária para o listener (permite Mocking)
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Reinitializer é implementado por *rover.Server.
type Reinitializer interface {
	Reinit() error
}

// ResetMessage é o corpo esperado na fila. Corpos que não são JSON contam
// como reset, para que um "send-message" manual funcione.
type ResetMessage struct {
	Action string `json:"action"`
}

// SQSResetListener consome uma fila SQS e reinicia o rover a cada mensagem de reset.
type SQSResetListener struct {
	client     SQSClient
	queueUrl   string
	target     Reinitializer
	logger     zerolog.Logger
	retryDelay time.Duration
	waitTime   int32
}

func NewSQSResetListener(client SQSClient, queueUrl string, target Reinitializer, logger zerolog.Logger) *SQSResetListener {
	return &SQSResetListener{
		client:     client,
		queueUrl:   queueUrl,
		target:     target,
		logger:     logger.With().Str("component", "sqs_reset").Logger(),
		retryDelay: 5 * time.Second,
		waitTime:   20, // Long polling
	}
}

// Start inicia o monitoramento (bloqueante) até ctx ser cancelado.
func (s *SQSResetListener) Start(ctx context.Context) {
	if s.queueUrl == "" {
		s.logger.Warn().Msg("URL da fila SQS não configurada. Reset remoto desativado.")
		return
	}

	s.logger.Info().Str("queue", s.queueUrl).Msg("Monitorando fila SQS para reset do rover")

	for {
		if ctx.Err() != nil {
			s.logger.Info().Msg("Parando monitoramento SQS")
			return
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueUrl),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     s.waitTime,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Dur("retry_in", s.retryDelay).Msg("Erro no SQS")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryDelay):
			}
			continue
		}

		for _, msg := range out.Messages {
			s.handle(ctx, aws.ToString(msg.Body), msg.ReceiptHandle)
		}
	}
}

func (s *SQSResetListener) handle(ctx context.Context, body string, receipt *string) {
	var m ResetMessage
	if err := json.Unmarshal([]byte(body), &m); err != nil || m.Action == "" {
		m.Action = "reset"
	}

	if m.Action == "reset" {
		if err := s.target.Reinit(); err != nil {
			s.logger.Error().Err(err).Msg("Falha ao reiniciar o rover")
		} else {
			s.logger.Info().Msg("Rover reiniciado via SQS")
		}
	} else {
		s.logger.Warn().Str("action", m.Action).Msg("Ação desconhecida, mensagem descartada")
	}

	_, _ = s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueUrl),
		ReceiptHandle: receipt,
	})
}
