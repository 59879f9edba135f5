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
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Names of the subject claims carried next to the registered ones.
const (
	UserIDKey = "userId"
	EmailKey  = "email"
	RoleKey   = "role"
)

// Role is the closed set of user roles known to the user service.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Roles lists every valid Role.
var Roles = []Role{RoleUser, RoleAdmin}

// ParseRole maps a role name back to its Role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	return string(r)
}

// Subject is the authenticated user a token is issued for.
type Subject struct {
	ID    string
	Email string
	Role  Role
}

// Claims is the validated content of a token.
type Claims struct {
	TokenID    string
	Issuer     string
	Audience   []string
	IssuedAt   time.Time
	NotBefore  time.Time
	Expiration time.Time

	UserID string
	Email  string
	Role   Role

	// Extra holds any private claims other than the subject ones.
	Extra map[string]interface{}
}

// Subject returns the user the token was issued for.
func (c *Claims) Subject() Subject {
	return Subject{
		ID:    c.UserID,
		Email: c.Email,
		Role:  c.Role,
	}
}

func claimsFromToken(t jwt.Token) (*Claims, error) {
	c := &Claims{
		TokenID:    t.JwtID(),
		Issuer:     t.Issuer(),
		Audience:   t.Audience(),
		IssuedAt:   t.IssuedAt(),
		NotBefore:  t.NotBefore(),
		Expiration: t.Expiration(),
		Extra:      make(map[string]interface{}),
	}

	for k, v := range t.PrivateClaims() {
		switch k {
		case UserIDKey, EmailKey, RoleKey:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("claim %q is not a string", k)
			}
			switch k {
			case UserIDKey:
				c.UserID = s
			case EmailKey:
				c.Email = s
			case RoleKey:
				c.Role = Role(s)
			}
		default:
			c.Extra[k] = v
		}
	}
	return c, nil
}
