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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/skandragon/usertoken"
)

type KeygenCmd struct {
	Dir   string `arg:"" optional:"" type:"path" default:"." help:"Directory to write publicKey.pem and privateKey.pem into."`
	Bits  int    `default:"2048" help:"RSA modulus size."`
	Force bool   `help:"Overwrite existing key files."`
}

func (c *KeygenCmd) Run(logger *zap.Logger, out io.Writer) error {
	pubPath := filepath.Join(c.Dir, "publicKey.pem")
	privPath := filepath.Join(c.Dir, "privateKey.pem")
	if !c.Force {
		for _, p := range []string{pubPath, privPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists, use --force to overwrite", p)
			}
		}
	}

	pub, priv, err := usertoken.GenerateKeyPEM(c.Bits)
	if err != nil {
		return err
	}
	if err := os.WriteFile(privPath, priv, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	logger.Info("generated key pair", zap.String("public", pubPath), zap.String("private", privPath), zap.Int("bits", c.Bits))
	fmt.Fprintf(out, "%s\n%s\n", pubPath, privPath)
	return nil
}

type IssueCmd struct {
	UserID   string        `name:"user-id" required:"" help:"User identifier."`
	Email    string        `required:"" help:"User email."`
	Role     string        `enum:"USER,ADMIN" default:"USER" help:"User role (${enum})."`
	Lifetime time.Duration `help:"Token lifetime, defaults to 99999m."`
}

func (c *IssueCmd) Run(keys *KeyFlags, logger *zap.Logger, out io.Writer) error {
	role, err := usertoken.ParseRole(c.Role)
	if err != nil {
		return err
	}

	opts := []usertoken.Option{usertoken.WithLogger(logger)}
	if c.Lifetime > 0 {
		opts = append(opts, usertoken.WithTokenLifetime(c.Lifetime))
	}
	issuer, err := usertoken.NewIssuer(keys.Source(), opts...)
	if err != nil {
		return err
	}

	token, err := issuer.Issue(usertoken.Subject{ID: c.UserID, Email: c.Email, Role: role})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

type VerifyCmd struct {
	Token  string `arg:"" help:"Compact token, or an Authorization header value with --header."`
	Header bool   `help:"Treat the argument as an Authorization header value."`
}

type claimsOutput struct {
	TokenID    string                 `json:"jti"`
	Issuer     string                 `json:"iss"`
	Audience   []string               `json:"aud"`
	IssuedAt   time.Time              `json:"iat"`
	NotBefore  time.Time              `json:"nbf"`
	Expiration time.Time              `json:"exp"`
	UserID     string                 `json:"userId"`
	Email      string                 `json:"email"`
	Role       string                 `json:"role"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

func (c *VerifyCmd) Run(keys *KeyFlags, logger *zap.Logger, out io.Writer) error {
	verifier, err := usertoken.NewVerifier(keys.Source(), usertoken.WithLogger(logger))
	if err != nil {
		return err
	}

	var claims *usertoken.Claims
	if c.Header {
		claims, err = verifier.VerifyBearer(c.Token)
	} else {
		claims, err = verifier.Verify(c.Token)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(claimsOutput{
		TokenID:    claims.TokenID,
		Issuer:     claims.Issuer,
		Audience:   claims.Audience,
		IssuedAt:   claims.IssuedAt,
		NotBefore:  claims.NotBefore,
		Expiration: claims.Expiration,
		UserID:     claims.UserID,
		Email:      claims.Email,
		Role:       claims.Role.String(),
		Extra:      claims.Extra,
	})
}

type JwksCmd struct{}

func (c *JwksCmd) Run(keys *KeyFlags, logger *zap.Logger, out io.Writer) error {
	publisher, err := usertoken.NewPublisher(keys.Source(), usertoken.WithLogger(logger))
	if err != nil {
		return err
	}
	doc, err := publisher.Publish()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(doc))
	return err
}
