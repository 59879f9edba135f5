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
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func decodeSegment(t *testing.T, token string, idx int) map[string]interface{} {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[idx])
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestNewIssuer(t *testing.T) {
	src := staticSource(t)
	tests := []struct {
		name         string
		source       KeySource
		opts         []Option
		wantErrorMsg string
	}{
		{"defaults", src, nil, ""},
		{"no source", nil, nil, "key source must be provided"},
		{"empty issuer", src, []Option{WithIssuer("")}, "issuer must be provided"},
		{"empty audience", src, []Option{WithAudience("")}, "audience must be provided"},
		{"zero lifetime", src, []Option{WithTokenLifetime(0)}, "token lifetime must be positive"},
		{"negative leeway", src, []Option{WithNotBeforeLeeway(-time.Second)}, "not-before leeway must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewIssuer(tt.source, tt.opts...)
			if tt.wantErrorMsg != "" {
				require.EqualError(t, err, tt.wantErrorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultIssuer, got.cfg.issuer)
			assert.Equal(t, DefaultAudience, got.cfg.audience)
			assert.Equal(t, 99999*time.Minute, got.cfg.lifetime)
			assert.Equal(t, 2*time.Minute, got.cfg.notBeforeLeeway)
		})
	}
}

func TestIssuer_Issue(t *testing.T) {
	issuer, err := NewIssuer(staticSource(t),
		WithClock(&TimeClock{1111}),
		WithLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)

	tests := []struct {
		name       string
		subject    Subject
		wantClaims string
	}{
		{
			"user",
			Subject{ID: "42", Email: "alice@example.com", Role: RoleUser},
			`{"iss":"UserMicroservice","aud":"OtherMicroservices","iat":1111,"nbf":991,"exp":6001051,
			  "userId":"42","email":"alice@example.com","role":"USER"}`,
		},
		{
			"admin",
			Subject{ID: "7", Email: "root@example.com", Role: RoleAdmin},
			`{"iss":"UserMicroservice","aud":"OtherMicroservices","iat":1111,"nbf":991,"exp":6001051,
			  "userId":"7","email":"root@example.com","role":"ADMIN"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := issuer.Issue(tt.subject)
			require.NoError(t, err)

			header := decodeSegment(t, token, 0)
			assert.Equal(t, "RS256", header["alg"])
			assert.Equal(t, "k1", header["kid"])
			assert.Equal(t, "JWT", header["typ"])

			claims := decodeSegment(t, token, 1)
			jti, ok := claims["jti"].(string)
			require.True(t, ok, "jti missing")
			assert.NotEmpty(t, jti)
			delete(claims, "jti")

			got, err := json.Marshal(claims)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantClaims, string(got))
		})
	}
}

func TestIssuer_UniqueTokenIDs(t *testing.T) {
	issuer, err := NewIssuer(staticSource(t))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		token, err := issuer.Issue(Subject{ID: "1", Email: "a@example.com", Role: RoleUser})
		require.NoError(t, err)
		jti := decodeSegment(t, token, 1)["jti"].(string)
		require.False(t, seen[jti], "duplicate jti %s", jti)
		seen[jti] = true
	}
}

func TestIssuer_KeyFailure(t *testing.T) {
	a, b := testKeys(t)
	tests := []struct {
		name    string
		source  KeySource
		wantErr []error
	}{
		{
			"no private key",
			&StaticSource{PublicKeyPEM: a.public},
			[]error{ErrSigning, ErrKeyParse},
		},
		{
			"mismatched pair",
			&StaticSource{PublicKeyPEM: a.public, PrivateKeyPEM: b.private},
			[]error{ErrSigning, ErrKeyParse, ErrKeyMismatch},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer, err := NewIssuer(tt.source)
			require.NoError(t, err)
			token, err := issuer.Issue(Subject{ID: "1"})
			for _, want := range tt.wantErr {
				require.ErrorIs(t, err, want)
			}
			assert.Empty(t, token)
		})
	}
}
