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
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
)

const (
	// DefaultIssuer is stamped into "iss" and required on verification.
	DefaultIssuer = "UserMicroservice"
	// DefaultAudience is stamped into "aud" and required on verification.
	DefaultAudience = "OtherMicroservices"
	// DefaultTokenLifetime is the time between issue and expiration.
	DefaultTokenLifetime = 99999 * time.Minute
	// DefaultNotBeforeLeeway back-dates "nbf" at issue time.
	DefaultNotBeforeLeeway = 2 * time.Minute
	// DefaultClockSkew is tolerated on both "nbf" and "exp".
	DefaultClockSkew = 30 * time.Second
)

type config struct {
	issuer          string
	audience        string
	lifetime        time.Duration
	notBeforeLeeway time.Duration
	skew            time.Duration
	clock           jwt.Clock
	logger          *zap.Logger
}

func newConfig(opts []Option) config {
	c := config{
		issuer:          DefaultIssuer,
		audience:        DefaultAudience,
		lifetime:        DefaultTokenLifetime,
		notBeforeLeeway: DefaultNotBeforeLeeway,
		skew:            DefaultClockSkew,
		clock:           &TimeClock{},
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option specifies non-default overrides at
// creation time.
type Option func(*config)

// WithIssuer replaces the issuer name written to and required in tokens.
func WithIssuer(issuer string) Option {
	return func(c *config) {
		c.issuer = issuer
	}
}

// WithAudience replaces the audience written to and required in tokens.
func WithAudience(audience string) Option {
	return func(c *config) {
		c.audience = audience
	}
}

// WithTokenLifetime sets the time between the issued time and the
// expiry time.  It must be positive.
func WithTokenLifetime(d time.Duration) Option {
	return func(c *config) {
		c.lifetime = d
	}
}

// WithNotBeforeLeeway sets how far in the past "nbf" is placed when
// signing.
func WithNotBeforeLeeway(d time.Duration) Option {
	return func(c *config) {
		c.notBeforeLeeway = d
	}
}

// WithClockSkew sets the tolerance applied to both ends of the
// validity window when verifying.
func WithClockSkew(d time.Duration) Option {
	return func(c *config) {
		c.skew = d
	}
}

// WithClock overrides the source of "now", mostly for tests.
func WithClock(clock jwt.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLogger sets the logger.  The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
