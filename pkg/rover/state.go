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
	"math/rand/v2"
	"sync"
)

// Rand é a fonte de aleatoriedade do rover. *rand.Rand (math/rand/v2) satisfaz
// a interface; testes podem injetar uma sequência fixa.
type Rand interface {
	// IntN devolve um inteiro uniforme em [0, n). n > 0.
	IntN(n int) int
}

// NewRand cria uma fonte PCG determinística. Semente 0 significa aleatória.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// lockedRand serializa o acesso à fonte, que não é segura para uso concorrente.
type lockedRand struct {
	mu  sync.Mutex
	src Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

func (l *lockedRand) Bool() bool {
	return l.IntN(2) == 1
}

// Odometer guarda a distância acumulada do rover simulado. Só volta a zero
// quando o rover é reinicializado (nova sessão).
type Odometer struct {
	mu       sync.Mutex
	distance int64
	reads    int64
}

// Advance soma delta e devolve o novo total.
func (o *Odometer) Advance(delta int64) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.distance += delta
	o.reads++
	return o.distance
}

func (o *Odometer) snapshot() (distance, reads int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.distance, o.reads
}

// Pair é uma leitura dupla (esquerda, direita) de sensores booleanos.
type Pair [2]bool

// MoveType espelha os tipos de movimento aceitos pelo firmware.
type MoveType string

const (
	MoveForward  MoveType = "Forward"
	MoveBackward MoveType = "Backward"
	MoveCWSpin   MoveType = "CWSpin"
	MoveCCWSpin  MoveType = "CCWSpin"
)

func (t MoveType) valid() bool {
	switch t {
	case MoveForward, MoveBackward, MoveCWSpin, MoveCCWSpin:
		return true
	}
	return false
}

// MoveCommand é o último comando de movimento bem formado recebido.
type MoveCommand struct {
	Type  MoveType `json:"type"`
	Speed uint8    `json:"speed"`
}

// LookCommand é o último comando de câmera bem formado recebido.
type LookCommand struct {
	H int16 `json:"h"`
	V int16 `json:"v"`
}

// Snapshot é uma visão imutável do estado do rover, útil em asserções.
type Snapshot struct {
	Distance      int64
	DistanceReads int64
	LastMove      *MoveCommand
	LastLook      *LookCommand
}
