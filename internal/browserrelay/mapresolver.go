// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package browserrelay

import (
	"context"
	"time"

	"github.com/mattmezza/monlight/internal/browserrelay/mapcache"
)

// mapCacheTTL bounds how long a map's raw content stays in mapcache
// before a fresh database read is forced.
const mapCacheTTL = 10 * time.Minute

// mapResolver ties the source_maps table to an optional shared cache and
// exposes the lookupMap closure RewriteStack needs, scoped to one
// (project, release) pair for the lifetime of a single request.
type mapResolver struct {
	store   *Store
	cache   mapcache.Cache
	project string
	release string
}

func newMapResolver(store *Store, cache mapcache.Cache, project, release string) *mapResolver {
	return &mapResolver{store: store, cache: cache, project: project, release: release}
}

func (r *mapResolver) lookup(fileURL string) (*parsedSourceMap, error) {
	ctx := context.Background()
	key := mapcache.Key(r.project, r.release, fileURL)

	if content, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		return parseSourceMap(content)
	}

	content, err := r.store.lookupSourceMap(r.project, r.release, fileURL)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, content, mapCacheTTL)
	return parseSourceMap(content)
}
