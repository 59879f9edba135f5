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
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultKeyID is the key identifier stamped on tokens and on the
// published key set.
const DefaultKeyID = "k1"

// KeyPair is the signing identity: both halves of one RSA key, tagged
// with the key id that ends up in token headers and the key set.
type KeyPair struct {
	KeyID   string
	Public  jwk.Key
	Private jwk.Key
}

// ParsePublicKeyPEM returns the RSA public key held in the first PEM
// block of data.  The block may be a bare public key, or a private key
// container from which the public half is taken.
func ParsePublicKeyPEM(data []byte) (jwk.Key, error) {
	key, err := parseRSAPEM(data)
	if err != nil {
		return nil, err
	}

	switch k := key.(type) {
	case jwk.RSAPublicKey:
		return k, nil
	case jwk.RSAPrivateKey:
		pub, err := k.PublicKey()
		if err != nil {
			return nil, newError(ErrKeyParse, "cannot extract public key from key pair", err)
		}
		return pub, nil
	default:
		return nil, newError(ErrKeyParse, fmt.Sprintf("unsupported PEM object %T", key), nil)
	}
}

// ParsePrivateKeyPEM returns the RSA private key held in the first PEM
// block of data, either a PKCS#1 key pair or a PKCS#8 private key.
func ParsePrivateKeyPEM(data []byte) (jwk.Key, error) {
	key, err := parseRSAPEM(data)
	if err != nil {
		return nil, err
	}

	priv, ok := key.(jwk.RSAPrivateKey)
	if !ok {
		return nil, newError(ErrKeyParse, "PEM content does not contain an RSA private key", nil)
	}
	return priv, nil
}

// keyBlockTypes are the PEM block types holding a bare public key or a
// key pair.  Certificates and everything else are refused.
var keyBlockTypes = map[string]bool{
	"PUBLIC KEY":      true,
	"RSA PUBLIC KEY":  true,
	"PRIVATE KEY":     true,
	"RSA PRIVATE KEY": true,
}

func parseRSAPEM(data []byte) (jwk.Key, error) {
	if len(data) == 0 {
		return nil, newError(ErrKeyParse, "PEM content is empty", nil)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, newError(ErrKeyParse, "cannot decode PEM content", nil)
	}
	if !keyBlockTypes[block.Type] {
		return nil, newError(ErrKeyParse, fmt.Sprintf("unsupported PEM object type %q", block.Type), nil)
	}

	key, err := jwk.ParseKey(data, jwk.WithPEM(true))
	if err != nil {
		return nil, newError(ErrKeyParse, "cannot parse PEM content", err)
	}

	if key.KeyType() != jwa.RSA {
		return nil, newError(ErrKeyParse, fmt.Sprintf("PEM content holds a %s key, not RSA", key.KeyType()), nil)
	}
	return key, nil
}

// NewKeyPair combines public and private under keyID.  The two halves
// must belong together; a token signed by a private key is useless to
// anyone holding a different public key.
func NewKeyPair(keyID string, public jwk.Key, private jwk.Key) (*KeyPair, error) {
	if len(keyID) == 0 {
		return nil, newError(ErrKeyParse, "key id must be provided", nil)
	}

	var pubRaw rsa.PublicKey
	if err := public.Raw(&pubRaw); err != nil {
		return nil, newError(ErrKeyParse, "public key is not an RSA public key", err)
	}
	var privRaw rsa.PrivateKey
	if err := private.Raw(&privRaw); err != nil {
		return nil, newError(ErrKeyParse, "private key is not an RSA private key", err)
	}
	if !privRaw.PublicKey.Equal(&pubRaw) {
		return nil, newError(ErrKeyParse, "cannot use key pair", ErrKeyMismatch)
	}

	for _, k := range []jwk.Key{public, private} {
		if err := k.Set(jwk.KeyIDKey, keyID); err != nil {
			return nil, newError(ErrKeyParse, "cannot set key id", err)
		}
	}

	return &KeyPair{
		KeyID:   keyID,
		Public:  public,
		Private: private,
	}, nil
}

// GenerateKeyPEM creates a new RSA key and returns it PEM encoded, the
// public half as PKIX ("PUBLIC KEY") and the private half as PKCS#8
// ("PRIVATE KEY").
func GenerateKeyPEM(bits int) (publicPEM []byte, privatePEM []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	return publicPEM, privatePEM, nil
}
