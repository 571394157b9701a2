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

package injector

import (
	"fmt"
	"reflect"
)

// InvalidTargetError é retornado quando Inject recebe algo que não é um
// ponteiro não nulo para struct.
type InvalidTargetError struct {
	Value reflect.Type
}

func (e *InvalidTargetError) Error() string {
	if e.Value == nil {
		return "injector: target must be a non-nil pointer to struct, got nil"
	}
	if e.Value.Kind() != reflect.Ptr {
		return fmt.Sprintf("injector: target must be a non-nil pointer to struct, got %s", e.Value.Kind())
	}
	return fmt.Sprintf("injector: target must be a non-nil pointer to struct, got pointer to %s", e.Value.Elem().Kind())
}

// FieldError é retornado quando o valor de uma variável de ambiente não pode
// ser convertido para o tipo do campo.
type FieldError struct {
	// FieldName é o nome do campo da struct (ex: "Seed").
	FieldName string
	// EnvVar é o nome da variável de ambiente (ex: "ROVER_SEED").
	EnvVar string
	// Value é o valor bruto que causou o erro.
	Value string
	// Err é o erro original (ex: *strconv.NumError).
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("injector: error setting field %s from env %s=%s: %v",
		e.FieldName, e.EnvVar, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// UnsupportedTypeError indica um campo com tag env cujo tipo não tem conversão.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("injector: unsupported type %s", e.Type)
}
