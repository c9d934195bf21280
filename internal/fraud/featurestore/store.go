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

// Package featurestore implements the atomic per-user feature snapshot
// store: a flat string->string map under key features:user:{user_id}, with
// a 48h TTL refreshed on every write.
package featurestore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL is the snapshot lifetime, refreshed on every write (spec.md §4.3).
const TTL = 48 * time.Hour

// keyFor builds the feature-store key for a user.
func keyFor(userID string) string {
	return fmt.Sprintf("features:user:%s", userID)
}

// snapshotScript writes every field of the snapshot and resets the TTL in a
// single EVAL, so no reader can observe a partial mix of old and new fields
// (spec.md §4.3's "atomic" requirement).
const snapshotScript = `
local key = KEYS[1]
local ttlSeconds = tonumber(ARGV[1])
for i = 2, #ARGV, 2 do
  redis.call('HSET', key, ARGV[i], ARGV[i+1])
end
redis.call('EXPIRE', key, ttlSeconds)
return 1
`

// Evaler is the minimal go-redis surface Store needs. Narrowing to this
// instead of *redis.Client, the same way the teacher's GoRedisEvaler narrows
// to Eval, lets store_test.go exercise WriteSnapshot/ReadSnapshot against a
// fake.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	HGetAll(ctx context.Context, key string) *redis.StringStringMapCmd
}

// Store is the Redis-hash realization of the feature store.
type Store struct {
	client Evaler
}

// New returns a feature store bound to client.
func New(client Evaler) *Store {
	return &Store{client: client}
}

// WriteSnapshot atomically overwrites the snapshot for userID with fields,
// resetting the TTL to 48h.
func (s *Store) WriteSnapshot(ctx context.Context, userID string, fields map[string]string) error {
	args := make([]interface{}, 0, 2+len(fields)*2)
	args = append(args, int(TTL.Seconds()))
	for k, v := range fields {
		args = append(args, k, v)
	}
	if _, err := s.client.Eval(ctx, snapshotScript, []string{keyFor(userID)}, args...).Result(); err != nil {
		return fmt.Errorf("write snapshot for user %s: %w", userID, err)
	}
	return nil
}

// ReadSnapshot reads the current snapshot for userID. ok is false if the
// key does not exist (spec.md's "missing user" path).
func (s *Store) ReadSnapshot(ctx context.Context, userID string) (fields map[string]string, ok bool, err error) {
	m, err := s.client.HGetAll(ctx, keyFor(userID)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot for user %s: %w", userID, err)
	}
	if len(m) == 0 {
		return nil, false, nil
	}
	return m, true, nil
}

// GetFloat reads a numeric field from a snapshot, returning def on absence
// or parse failure — the best-effort coercion the reason-code rules use.
func GetFloat(fields map[string]string, key string, def float64) float64 {
	v, ok := fields[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
