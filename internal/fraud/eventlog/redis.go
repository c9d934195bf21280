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

package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fraudguard/internal/fraud/schema"
)

// Streamer is the minimal go-redis surface RedisLog needs. Narrowing to this
// instead of *redis.Client, the same way the teacher's GoRedisEvaler narrows
// to Eval, lets redis_test.go exercise Append/ReadAfter against a fake.
type Streamer interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd
}

// RedisLog is the Redis Streams realization of Log: XADD with MAXLEN ~ on
// append, XREAD COUNT/BLOCK on tail.
type RedisLog struct {
	client Streamer
	stream string
}

// NewRedisLog returns a log bound to the given stream key.
func NewRedisLog(client Streamer, stream string) *RedisLog {
	return &RedisLog{client: client, stream: stream}
}

// Append publishes the event's flattened fields with an approximate ring
// cap (spec.md §4.2: maxlen=10000).
func (l *RedisLog) Append(ctx context.Context, e *schema.Event) (string, error) {
	args := &redis.XAddArgs{
		Stream: l.stream,
		MaxLen: MaxLen,
		Approx: true,
		Values: e.ToStringMap(),
	}
	id, err := l.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", l.stream, err)
	}
	return id, nil
}

// ReadAfter tails the stream for new entries after lastID.
func (l *RedisLog) ReadAfter(ctx context.Context, lastID string, maxCount int, blockMs int) ([]Record, error) {
	res, err := l.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{l.stream, lastID},
		Count:   int64(maxCount),
		Block:   time.Duration(blockMs) * time.Millisecond,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("xread %s: %w", l.stream, err)
	}

	var out []Record
	for _, stream := range res {
		for _, msg := range stream.Messages {
			fields := make(map[string]string, len(msg.Values))
			for k, v := range msg.Values {
				fields[k] = fmt.Sprintf("%v", v)
			}
			out = append(out, Record{ID: msg.ID, Fields: fields})
		}
	}
	return out, nil
}
