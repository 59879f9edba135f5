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
	"crypto/sha256"
	"sync"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// CachingSource reads the same files as a FileSource on every call,
// but only parses them again when their content changes.  A rotated
// key file is therefore still seen by the next call.
type CachingSource struct {
	files FileSource

	mu      sync.RWMutex
	pubSum  [sha256.Size]byte
	pub     jwk.Key
	pairSum [sha256.Size]byte
	pair    *KeyPair
}

var _ KeySource = (*CachingSource)(nil)

// NewCachingSource wraps the files named by src.
func NewCachingSource(src FileSource) *CachingSource {
	return &CachingSource{files: src}
}

// PublicKey implements PublicKeySource.
func (s *CachingSource) PublicKey() (jwk.Key, error) {
	data, err := readPEMFile("public", s.files.PublicKeyPath)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.pub != nil && s.pubSum == sha256.Sum256(data) {
		key := s.pub
		s.mu.RUnlock()
		return key, nil
	}
	s.mu.RUnlock()

	// Refreshes run one at a time and read the file while holding the
	// lock, so the last one to store also saw the newest content.
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err = readPEMFile("public", s.files.PublicKeyPath)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	if s.pub != nil && s.pubSum == sum {
		return s.pub, nil
	}

	key, err := publicKeyWithID(data, s.files.keyID())
	if err != nil {
		return nil, err
	}
	s.pub = key
	s.pubSum = sum
	return key, nil
}

// KeyPair implements KeySource.
func (s *CachingSource) KeyPair() (*KeyPair, error) {
	pubData, privData, err := s.readPair()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.pair != nil && s.pairSum == pairSum(pubData, privData) {
		pair := s.pair
		s.mu.RUnlock()
		return pair, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	pubData, privData, err = s.readPair()
	if err != nil {
		return nil, err
	}
	sum := pairSum(pubData, privData)
	if s.pair != nil && s.pairSum == sum {
		return s.pair, nil
	}

	pair, err := loadKeyPair(s.files.keyID(), pubData, privData)
	if err != nil {
		return nil, err
	}
	s.pair = pair
	s.pairSum = sum
	return pair, nil
}

func (s *CachingSource) readPair() ([]byte, []byte, error) {
	pubData, err := readPEMFile("public", s.files.PublicKeyPath)
	if err != nil {
		return nil, nil, err
	}
	privData, err := readPEMFile("private", s.files.PrivateKeyPath)
	if err != nil {
		return nil, nil, err
	}
	return pubData, privData, nil
}

func pairSum(pubData []byte, privData []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write(pubData)
	h.Write(privData)
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
