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
	"os"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// PublicKeySource supplies the key used to verify tokens and to build
// the published key set.  The returned key carries its key id.
type PublicKeySource interface {
	PublicKey() (jwk.Key, error)
}

// KeySource supplies the full signing identity.
type KeySource interface {
	PublicKeySource
	KeyPair() (*KeyPair, error)
}

// FileSource reads PEM files from disk on every call.  Nothing is
// cached, so a key file replaced on disk is picked up by the next
// operation.
//
// PrivateKeyPath may be left empty on services that only verify.
type FileSource struct {
	PublicKeyPath  string
	PrivateKeyPath string
	// KeyID defaults to DefaultKeyID.
	KeyID string
}

var (
	_ KeySource = (*FileSource)(nil)
	_ KeySource = (*StaticSource)(nil)
)

func (s *FileSource) keyID() string {
	if len(s.KeyID) == 0 {
		return DefaultKeyID
	}
	return s.KeyID
}

// PublicKey implements PublicKeySource.
func (s *FileSource) PublicKey() (jwk.Key, error) {
	data, err := readPEMFile("public", s.PublicKeyPath)
	if err != nil {
		return nil, err
	}
	return publicKeyWithID(data, s.keyID())
}

// KeyPair implements KeySource.
func (s *FileSource) KeyPair() (*KeyPair, error) {
	pubData, err := readPEMFile("public", s.PublicKeyPath)
	if err != nil {
		return nil, err
	}
	privData, err := readPEMFile("private", s.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	return loadKeyPair(s.keyID(), pubData, privData)
}

func readPEMFile(half string, path string) ([]byte, error) {
	if len(path) == 0 {
		return nil, newError(ErrKeyParse, fmt.Sprintf("%s key file not configured", half), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(ErrKeyParse, fmt.Sprintf("cannot read %s key file", half), err)
	}
	return data, nil
}

// StaticSource holds PEM material in memory, typically from an
// embedded resource.  It is still parsed on every call.
type StaticSource struct {
	PublicKeyPEM  []byte
	PrivateKeyPEM []byte
	// KeyID defaults to DefaultKeyID.
	KeyID string
}

func (s *StaticSource) keyID() string {
	if len(s.KeyID) == 0 {
		return DefaultKeyID
	}
	return s.KeyID
}

// PublicKey implements PublicKeySource.
func (s *StaticSource) PublicKey() (jwk.Key, error) {
	return publicKeyWithID(s.PublicKeyPEM, s.keyID())
}

// KeyPair implements KeySource.
func (s *StaticSource) KeyPair() (*KeyPair, error) {
	return loadKeyPair(s.keyID(), s.PublicKeyPEM, s.PrivateKeyPEM)
}

func publicKeyWithID(data []byte, keyID string) (jwk.Key, error) {
	pub, err := ParsePublicKeyPEM(data)
	if err != nil {
		return nil, err
	}
	if err := pub.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, newError(ErrKeyParse, "cannot set key id", err)
	}
	return pub, nil
}

func loadKeyPair(keyID string, pubData []byte, privData []byte) (*KeyPair, error) {
	pub, err := ParsePublicKeyPEM(pubData)
	if err != nil {
		return nil, err
	}
	priv, err := ParsePrivateKeyPEM(privData)
	if err != nil {
		return nil, err
	}
	return NewKeyPair(keyID, pub, priv)
}
