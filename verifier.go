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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
)

const (
	expiredMessage = "token expired, log in again to obtain a new one"
	invalidMessage = "invalid token, log in again"
)

// Verifier checks tokens produced by an Issuer.  It needs only the
// public key, so it can run on any service.
//
// Once created, a Verifier is immutable and safe for concurrent use.
type Verifier struct {
	source PublicKeySource
	cfg    config
}

// NewVerifier creates a Verifier checking signatures against the key
// from source.
func NewVerifier(source PublicKeySource, opts ...Option) (*Verifier, error) {
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
	if cfg.skew < 0 {
		return nil, fmt.Errorf("clock skew must not be negative")
	}
	return &Verifier{
		source: source,
		cfg:    cfg,
	}, nil
}

// Verify checks the signature and claims of a compact token and returns
// its claims.  Only RS256 is accepted, and the algorithm is checked
// before any signature work.  The token must carry "exp", must be inside
// its [nbf, exp] window widened by the clock skew on both sides, and
// must name the configured issuer and audience.
//
// A token past its expiration fails with ErrExpiredToken; any other
// problem with the token fails with ErrInvalidToken.  If the public key
// itself cannot be loaded the error is ErrKeyParse.
func (v *Verifier) Verify(token string) (*Claims, error) {
	if err := checkAlgorithm(token); err != nil {
		return nil, v.invalid(err)
	}

	pub, err := v.source.PublicKey()
	if err != nil {
		v.cfg.logger.Warn("cannot load verification key", zap.Error(err))
		return nil, err
	}

	t, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.RS256, pub),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, v.invalid(err)
	}

	err = jwt.Validate(t,
		jwt.WithResetValidators(true),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithValidator(jwt.ValidatorFunc(v.validateWindow)),
		jwt.WithIssuer(v.cfg.issuer),
		jwt.WithAudience(v.cfg.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			v.cfg.logger.Debug("rejected token", zap.String("reason", "expired"), zap.String("jti", t.JwtID()))
			return nil, newError(ErrExpiredToken, expiredMessage, err)
		}
		return nil, v.invalid(err)
	}

	claims, err := claimsFromToken(t)
	if err != nil {
		return nil, v.invalid(err)
	}
	return claims, nil
}

func (v *Verifier) invalid(cause error) error {
	v.cfg.logger.Debug("rejected token", zap.String("reason", "invalid"), zap.Error(cause))
	return newError(ErrInvalidToken, invalidMessage, cause)
}

// validateWindow accepts nbf-skew <= now <= exp+skew, at one second
// resolution.
func (v *Verifier) validateWindow(_ context.Context, t jwt.Token) jwt.ValidationError {
	now := nowFromClock(v.cfg.clock).Unix()
	skew := int64(v.cfg.skew / time.Second)

	exp := t.Expiration()
	if exp.IsZero() {
		return jwt.NewValidationError(fmt.Errorf(`%q not present`, jwt.ExpirationKey))
	}
	if now-skew > exp.Unix() {
		return jwt.ErrTokenExpired()
	}

	if nbf := t.NotBefore(); !nbf.IsZero() && now+skew < nbf.Unix() {
		return jwt.ErrTokenNotYetValid()
	}
	return nil
}

// checkAlgorithm rejects anything but a single RS256 signature in
// compact form without touching the key.
func checkAlgorithm(token string) error {
	if n := strings.Count(token, ".") + 1; n != 3 {
		return fmt.Errorf("token has %d segments, expected 3", n)
	}
	if strings.HasPrefix(strings.TrimSpace(token), "{") {
		return fmt.Errorf("token is not in compact form")
	}
	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return err
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return fmt.Errorf("expected exactly one signature, got %d", len(sigs))
	}
	if alg := sigs[0].ProtectedHeaders().Algorithm(); alg != jwa.RS256 {
		return fmt.Errorf("algorithm %q is not permitted", alg)
	}
	return nil
}
