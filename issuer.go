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
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Issuer mints signed tokens for authenticated users.
//
// Once created, an Issuer is immutable and safe for concurrent use.
// Key material is fetched from the source on every Issue call.
type Issuer struct {
	source KeySource
	cfg    config
}

// NewIssuer creates an Issuer signing with keys from source.
func NewIssuer(source KeySource, opts ...Option) (*Issuer, error) {
	if source == nil {
		return nil, fmt.Errorf("key source must be provided")
	}
	cfg := newConfig(opts)
	if len(cfg.issuer) == 0 {
		return nil, fmt.Errorf("issuer must be provided")
	}
	if len(cfg.audience) == 0 {
		return nil, fmt.Errorf("audience must be provided")
	}
	if cfg.lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive")
	}
	if cfg.notBeforeLeeway < 0 {
		return nil, fmt.Errorf("not-before leeway must not be negative")
	}
	return &Issuer{
		source: source,
		cfg:    cfg,
	}, nil
}

// Issue builds the claim set for subject and returns it as a compact
// RS256 token.  The issuer and audience come from the Issuer's
// configuration, "iat" is now, "nbf" is back-dated by the not-before
// leeway, and "exp" is now plus the token lifetime.  Each token gets a
// fresh "jti".
//
// Any failure here is a server-side problem and is reported as
// ErrSigning.
func (iss *Issuer) Issue(subject Subject) (string, error) {
	logger := iss.cfg.logger.With(zap.String("userId", subject.ID))

	pair, err := iss.source.KeyPair()
	if err != nil {
		logger.Warn("cannot load signing key", zap.Error(err))
		return "", newError(ErrSigning, "cannot load signing key", err)
	}

	now := nowFromClock(iss.cfg.clock)
	tokenID := ulid.Make().String()

	t, err := jwt.NewBuilder().
		Issuer(iss.cfg.issuer).
		Audience([]string{iss.cfg.audience}).
		Expiration(now.Add(iss.cfg.lifetime)).
		JwtID(tokenID).
		IssuedAt(now).
		NotBefore(now.Add(-iss.cfg.notBeforeLeeway)).
		Claim(UserIDKey, subject.ID).
		Claim(EmailKey, subject.Email).
		Claim(RoleKey, subject.Role.String()).
		Build()
	if err != nil {
		return "", newError(ErrSigning, "cannot build token claims", err)
	}
	// "aud" goes out as a plain string while there is only one.
	t.Options().Enable(jwt.FlattenAudience)

	hdrs := jws.NewHeaders()
	if err := hdrs.Set(jws.KeyIDKey, pair.KeyID); err != nil {
		return "", newError(ErrSigning, "cannot set token header", err)
	}
	if err := hdrs.Set(jws.TypeKey, "JWT"); err != nil {
		return "", newError(ErrSigning, "cannot set token header", err)
	}

	signed, err := jwt.Sign(t, jwt.WithKey(jwa.RS256, pair.Private, jws.WithProtectedHeaders(hdrs)))
	if err != nil {
		logger.Warn("cannot sign token", zap.Error(err))
		return "", newError(ErrSigning, "cannot serialize token", err)
	}

	logger.Debug("issued token",
		zap.String("jti", tokenID),
		zap.String("kid", pair.KeyID),
		zap.Time("exp", t.Expiration()),
	)
	return string(signed), nil
}
