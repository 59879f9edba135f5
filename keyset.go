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
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"
)

// Publisher renders the public key as a JWK set for remote verifiers.
// Only the public half is ever read.
type Publisher struct {
	source PublicKeySource
	cfg    config
}

// NewPublisher creates a Publisher for the key from source.  Only the
// WithLogger option has any effect.
func NewPublisher(source PublicKeySource, opts ...Option) (*Publisher, error) {
	if source == nil {
		return nil, fmt.Errorf("key source must be provided")
	}
	return &Publisher{
		source: source,
		cfg:    newConfig(opts),
	}, nil
}

// KeySet returns a set with a single entry holding kty, kid, n and e.
func (p *Publisher) KeySet() (jwk.Set, error) {
	key, err := p.source.PublicKey()
	if err != nil {
		p.cfg.logger.Warn("cannot load public key", zap.Error(err))
		return nil, newError(ErrKeySet, "cannot create key set", err)
	}

	// Rebuild from the raw key so nothing but the public parameters
	// and the key id are carried over.
	var raw rsa.PublicKey
	if err := key.Raw(&raw); err != nil {
		return nil, newError(ErrKeySet, "cannot create key set", err)
	}
	pub, err := jwk.FromRaw(&raw)
	if err != nil {
		return nil, newError(ErrKeySet, "cannot create key set", err)
	}
	if err := pub.Set(jwk.KeyIDKey, key.KeyID()); err != nil {
		return nil, newError(ErrKeySet, "cannot create key set", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		return nil, newError(ErrKeySet, "cannot create key set", err)
	}
	return set, nil
}

// Publish returns the JSON form of KeySet.  The output is stable for an
// unchanged key.
func (p *Publisher) Publish() ([]byte, error) {
	set, err := p.KeySet()
	if err != nil {
		return nil, err
	}
	buf, err := json.Marshal(set)
	if err != nil {
		return nil, newError(ErrKeySet, "cannot serialize key set", err)
	}
	return buf, nil
}
