/*
 * Copyright 2022 Michael Graff.
 *
 * Licensed under the Apache License, Version 2.0 (the "License")
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package usertoken

import (
	"errors"
)

var (
	// ErrKeyParse is returned when PEM material is missing, unreadable,
	// or does not hold the expected half of an RSA key.
	ErrKeyParse = errors.New("key parse error")
	// ErrKeyMismatch is returned when the public and private keys loaded
	// together do not belong to the same RSA key pair.
	ErrKeyMismatch = errors.New("public and private keys do not form a pair")
	// ErrSigning is returned when a token could not be built or signed.
	ErrSigning = errors.New("token signing failed")
	// ErrExpiredToken is returned when a token is past its expiration,
	// including the allowed clock skew.
	ErrExpiredToken = errors.New("token expired")
	// ErrInvalidToken covers every other verification failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrKeySet is returned when the public key set cannot be produced.
	ErrKeySet = errors.New("key set generation failed")
	// ErrNoBearer is returned when an Authorization header does not carry
	// a bearer token.
	ErrNoBearer = errors.New("authorization header is not a bearer token")
)

// TokenError carries the kind of failure (one of the Err* values above),
// a message suitable for showing to a user, and the underlying cause.
// errors.Is matches both the kind and anything in the cause chain.
type TokenError struct {
	Kind    error
	Message string
	Err     error
}

func newError(kind error, message string, cause error) *TokenError {
	return &TokenError{
		Kind:    kind,
		Message: message,
		Err:     cause,
	}
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *TokenError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
