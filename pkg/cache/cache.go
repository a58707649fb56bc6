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
	"fmt"
	"strings"
	"time"

	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet provides the cache.
var ProviderSet = wire.NewSet(ProvideCache)

// ErrCacheMiss is returned when a key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// ICache is the subset of redis commands used by the engine. *redis.Client
// satisfies it.
type ICache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis is the [redis] section. An empty Addr disables caching.
type Redis struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"poolSize"`
	DialTimeout  int    `mapstructure:"dialTimeout"`  // seconds
	ReadTimeout  int    `mapstructure:"readTimeout"`  // seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // seconds
}

func (r *Redis) SetDefaults() {
	r.Addr = strings.TrimSpace(r.Addr)
	if r.PoolSize <= 0 {
		r.PoolSize = 20
	}
	if r.DialTimeout <= 0 {
		r.DialTimeout = 5
	}
	if r.ReadTimeout <= 0 {
		r.ReadTimeout = 3
	}
	if r.WriteTimeout <= 0 {
		r.WriteTimeout = 3
	}
}

// Enabled reports whether a redis address is configured.
func (r *Redis) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// NewRedisClient connects and pings redis.
func NewRedisClient(conf Redis) (*redis.Client, error) {
	conf.SetDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Addr,
		Password:     conf.Password,
		DB:           conf.DB,
		PoolSize:     conf.PoolSize,
		DialTimeout:  time.Duration(conf.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(conf.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(conf.WriteTimeout) * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(conf.DialTimeout)*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", conf.Addr, err)
	}
	return client, nil
}

// ProvideCache returns a nil ICache when redis is not configured; consumers
// must treat nil as "no cache".
func ProvideCache(conf *Redis) (ICache, func(), error) {
	if !conf.Enabled() {
		logger.Infow("redis not configured, progress cache disabled")
		return nil, func() {}, nil
	}
	client, err := NewRedisClient(*conf)
	if err != nil {
		return nil, nil, err
	}
	logger.Infow("redis connected", "addr", conf.Addr, "db", conf.DB)
	return client, func() { _ = client.Close() }, nil
}
