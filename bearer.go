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
	"strings"
)

const bearerPrefix = "Bearer "

// BearerToken extracts the token from an Authorization header value.
// The header must start with the exact prefix "Bearer " followed by a
// non-empty token.
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", newError(ErrInvalidToken, invalidMessage, ErrNoBearer)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if len(token) == 0 {
		return "", newError(ErrInvalidToken, invalidMessage, ErrNoBearer)
	}
	return token, nil
}

// VerifyBearer is BearerToken followed by Verify.
func (v *Verifier) VerifyBearer(header string) (*Claims, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return v.Verify(token)
}
