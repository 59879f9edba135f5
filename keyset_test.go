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
	"encoding/json"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	src := staticSource(t)
	publisher, err := NewPublisher(src)
	require.NoError(t, err)

	doc, err := publisher.Publish()
	require.NoError(t, err)

	var parsed struct {
		Keys []map[string]interface{} `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(doc, &parsed))
	require.Len(t, parsed.Keys, 1)

	entry := parsed.Keys[0]
	assert.Equal(t, "RSA", entry["kty"])
	assert.Equal(t, "k1", entry["kid"])
	assert.NotEmpty(t, entry["n"])
	assert.Equal(t, "AQAB", entry["e"])

	for field := range entry {
		assert.Contains(t, []string{"kty", "kid", "n", "e"}, field, "unexpected field in key set")
	}
	for _, private := range []string{"d", "p", "q", "dp", "dq", "qi"} {
		assert.NotContains(t, entry, private)
	}
}

func TestPublisher_Stable(t *testing.T) {
	a, _ := testKeys(t)
	publisher, err := NewPublisher(fileSource(t, a))
	require.NoError(t, err)

	first, err := publisher.Publish()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := publisher.Publish()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPublisher_MatchesIssuer(t *testing.T) {
	src := staticSource(t)
	publisher, err := NewPublisher(src)
	require.NoError(t, err)
	doc, err := publisher.Publish()
	require.NoError(t, err)

	token := issue(t, src, alice)

	// a third party holding nothing but the published document
	set, err := jwk.Parse(doc)
	require.NoError(t, err)
	tok, err := jwt.Parse([]byte(token), jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)))
	require.NoError(t, err)

	userID, ok := tok.Get(UserIDKey)
	require.True(t, ok)
	assert.Equal(t, alice.ID, userID)
}

func TestPublisher_PublicHalfOnly(t *testing.T) {
	a, _ := testKeys(t)
	// a source that has no private key at all still publishes
	publisher, err := NewPublisher(&StaticSource{PublicKeyPEM: a.public, KeyID: "custom"})
	require.NoError(t, err)
	set, err := publisher.KeySet()
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	key, ok := set.Key(0)
	require.True(t, ok)
	assert.Equal(t, "custom", key.KeyID())
}

func TestPublisher_KeyFailure(t *testing.T) {
	_, err := NewPublisher(nil)
	require.EqualError(t, err, "key source must be provided")

	publisher, err := NewPublisher(&FileSource{PublicKeyPath: "/does/not/exist.pem"})
	require.NoError(t, err)
	doc, err := publisher.Publish()
	require.ErrorIs(t, err, ErrKeySet)
	require.ErrorIs(t, err, ErrKeyParse)
	assert.Nil(t, doc)
}
