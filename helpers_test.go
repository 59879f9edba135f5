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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type pemPair struct {
	public  []byte
	private []byte
}

var (
	keysOnce  sync.Once
	keysA     pemPair
	keysB     pemPair
	keysError error
)

// testKeys returns two unrelated RSA key pairs, generated once per run.
func testKeys(t *testing.T) (pemPair, pemPair) {
	t.Helper()
	keysOnce.Do(func() {
		keysA.public, keysA.private, keysError = GenerateKeyPEM(2048)
		if keysError != nil {
			return
		}
		keysB.public, keysB.private, keysError = GenerateKeyPEM(2048)
	})
	require.NoError(t, keysError)
	return keysA, keysB
}

func writeFile(t *testing.T, dir string, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// fileSource writes keys to a temporary directory and returns a
// FileSource pointing at them.
func fileSource(t *testing.T, keys pemPair) *FileSource {
	t.Helper()
	dir := t.TempDir()
	return &FileSource{
		PublicKeyPath:  writeFile(t, dir, "publicKey.pem", keys.public),
		PrivateKeyPath: writeFile(t, dir, "privateKey.pem", keys.private),
	}
}

func staticSource(t *testing.T) *StaticSource {
	t.Helper()
	a, _ := testKeys(t)
	return &StaticSource{
		PublicKeyPEM:  a.public,
		PrivateKeyPEM: a.private,
	}
}
