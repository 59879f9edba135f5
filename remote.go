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
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// RemoteKeySource is the verifier-side view of a published key set.
// The set is fetched from url and refreshed in the background by a
// jwk.Cache.  Refreshing stops once the context given to
// NewRemoteKeySource is cancelled.
type RemoteKeySource struct {
	set   jwk.Set
	keyID string
}

var _ PublicKeySource = (*RemoteKeySource)(nil)

// NewRemoteKeySource registers url with a fresh cache and fetches it
// once, so that a bad URL is reported here rather than on the first
// token.  An empty keyID selects DefaultKeyID.
func NewRemoteKeySource(ctx context.Context, url string, keyID string, refresh time.Duration) (*RemoteKeySource, error) {
	if len(url) == 0 {
		return nil, fmt.Errorf("key set url must be provided")
	}
	if len(keyID) == 0 {
		keyID = DefaultKeyID
	}

	cache := jwk.NewCache(ctx)
	var opts []jwk.RegisterOption
	if refresh > 0 {
		opts = append(opts, jwk.WithMinRefreshInterval(refresh))
	}
	if err := cache.Register(url, opts...); err != nil {
		return nil, fmt.Errorf("failed to register key set url: %w", err)
	}
	if _, err := cache.Refresh(ctx, url); err != nil {
		return nil, newError(ErrKeyParse, "cannot fetch key set", err)
	}

	return &RemoteKeySource{
		set:   jwk.NewCachedSet(cache, url),
		keyID: keyID,
	}, nil
}

// PublicKey implements PublicKeySource.
func (s *RemoteKeySource) PublicKey() (jwk.Key, error) {
	key, found := s.set.LookupKeyID(s.keyID)
	if !found {
		return nil, newError(ErrKeyParse, fmt.Sprintf("key %q is not available from the key set", s.keyID), nil)
	}
	return key, nil
}
