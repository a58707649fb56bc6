// Copyright 2026 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

// KeyFunc builds a cache key from query parameters.
type KeyFunc func(params ...any) string

// QueryFunc loads the value from the source of truth.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// CachedQuery is a read-through cache of sonic encoded values. A nil cache
// makes every call go to the query.
type CachedQuery[T any] struct {
	cache     ICache
	keyFunc   KeyFunc
	queryFunc QueryFunc[T]
	ttl       time.Duration
	logPrefix string
}

type Option[T any] func(*CachedQuery[T])

func WithTTL[T any](ttl time.Duration) Option[T] {
	return func(q *CachedQuery[T]) { q.ttl = ttl }
}

func WithLogPrefix[T any](prefix string) Option[T] {
	return func(q *CachedQuery[T]) { q.logPrefix = prefix }
}

func NewCachedQuery[T any](c ICache, keyFunc KeyFunc, queryFunc QueryFunc[T], opts ...Option[T]) *CachedQuery[T] {
	q := &CachedQuery[T]{cache: c, keyFunc: keyFunc, queryFunc: queryFunc, ttl: defaultTTL}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Get returns the cached value or loads and caches it.
func (q *CachedQuery[T]) Get(ctx context.Context, params ...any) (T, error) {
	if v, err := q.Peek(ctx, params...); err == nil {
		return v, nil
	}
	var zero T
	if q.queryFunc == nil {
		return zero, ErrCacheMiss
	}
	v, err := q.queryFunc(ctx)
	if err != nil {
		return zero, err
	}
	q.Set(ctx, v, params...)
	return v, nil
}

// Peek reads only the cache. ErrCacheMiss covers a missing key, a disabled
// cache and an undecodable entry.
func (q *CachedQuery[T]) Peek(ctx context.Context, params ...any) (T, error) {
	var zero T
	if q.cache == nil {
		return zero, ErrCacheMiss
	}
	key := q.keyFunc(params...)
	raw, err := q.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warnw(q.logPrefix+" cache read failed", "key", key, "error", err)
		}
		return zero, ErrCacheMiss
	}
	var v T
	if err := sonic.Unmarshal(raw, &v); err != nil {
		logger.Warnw(q.logPrefix+" cache entry undecodable", "key", key, "error", err)
		return zero, ErrCacheMiss
	}
	return v, nil
}

// Set stores v. Cache failures are logged and otherwise ignored.
func (q *CachedQuery[T]) Set(ctx context.Context, v T, params ...any) {
	if q.cache == nil {
		return
	}
	key := q.keyFunc(params...)
	raw, err := sonic.Marshal(v)
	if err != nil {
		logger.Warnw(q.logPrefix+" cache encode failed", "key", key, "error", err)
		return
	}
	if err := q.cache.Set(ctx, key, raw, q.ttl).Err(); err != nil {
		logger.Warnw(q.logPrefix+" cache write failed", "key", key, "error", err)
	}
}

// Invalidate removes the cached value.
func (q *CachedQuery[T]) Invalidate(ctx context.Context, params ...any) error {
	if q.cache == nil {
		return nil
	}
	return q.cache.Del(ctx, q.keyFunc(params...)).Err()
}
