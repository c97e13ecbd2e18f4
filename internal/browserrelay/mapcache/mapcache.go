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

// Package mapcache caches raw (undecoded) source-map content keyed by
// (project, release, file_url), so a hot file referenced by many browser
// error reports doesn't hit SQLite on every stack rewrite. The adapter is
// selected by a string the way persistence.BuildPersister selects a
// commit adapter in the rate limiter: "memory" (default, in-process,
// dependency-free) or "redis" (shared across replicas of the relay).
package mapcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache fetches and stores raw map_content by a cache key. A miss is not
// an error: ok is false and the caller falls back to the database.
type Cache interface {
	Get(ctx context.Context, key string) (content string, ok bool, err error)
	Set(ctx context.Context, key, content string, ttl time.Duration) error
}

// Key builds the cache key for a (project, release, file_url) triple.
func Key(project, release, fileURL string) string {
	return fmt.Sprintf("sourcemap:%s:%s:%s", project, release, fileURL)
}

// MemoryCache is an in-process, per-relay-instance cache: no eviction
// beyond TTL, guarded by a single mutex since source-map lookups are not
// on a hot enough path to warrant sharding.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	content string
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		return "", false, nil
	}
	return e.content, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key, content string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{content: content, expires: time.Now().Add(ttl)}
	return nil
}

// RedisCache backs the cache with a shared Redis instance, so multiple
// Browser Relay replicas behind a load balancer reuse the same stored map
// content instead of each reading it from SQLite. Each lookup still parses
// the content it gets back.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, content string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, content, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Build selects a Cache implementation: "redis" requires addr to be
// non-empty and returns a client-backed cache; anything else (including
// "", "memory") returns the dependency-free in-process cache.
func Build(adapter, addr string) Cache {
	if adapter == "redis" && addr != "" {
		return NewRedisCache(redis.NewClient(&redis.Options{Addr: addr}))
	}
	return NewMemoryCache()
}
