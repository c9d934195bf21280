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

package featurestore

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

type fakeEvaler struct {
	evalKeys []string
	evalArgs []interface{}
	evalErr  error

	hgetKey string
	hgetVal map[string]string
	hgetErr error
}

func (f *fakeEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.evalKeys = keys
	f.evalArgs = args
	cmd := redis.NewCmd(ctx)
	if f.evalErr != nil {
		cmd.SetErr(f.evalErr)
	} else {
		cmd.SetVal(int64(1))
	}
	return cmd
}

func (f *fakeEvaler) HGetAll(ctx context.Context, key string) *redis.StringStringMapCmd {
	f.hgetKey = key
	cmd := redis.NewStringStringMapCmd(ctx)
	if f.hgetErr != nil {
		cmd.SetErr(f.hgetErr)
	} else {
		cmd.SetVal(f.hgetVal)
	}
	return cmd
}

func TestWriteSnapshotSendsFieldsAndTTL(t *testing.T) {
	fake := &fakeEvaler{}
	s := New(fake)

	err := s.WriteSnapshot(context.Background(), "u1", map[string]string{"txns_last_5m": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.evalKeys) != 1 || fake.evalKeys[0] != keyFor("u1") {
		t.Fatalf("unexpected keys: %v", fake.evalKeys)
	}
	if fake.evalArgs[0] != int(TTL.Seconds()) {
		t.Fatalf("expected ttl arg %d, got %v", int(TTL.Seconds()), fake.evalArgs[0])
	}
}

func TestWriteSnapshotPropagatesError(t *testing.T) {
	fake := &fakeEvaler{evalErr: errors.New("boom")}
	s := New(fake)

	if err := s.WriteSnapshot(context.Background(), "u1", map[string]string{"a": "1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadSnapshotFound(t *testing.T) {
	fake := &fakeEvaler{hgetVal: map[string]string{"txns_last_5m": "1"}}
	s := New(fake)

	fields, ok, err := s.ReadSnapshot(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok")
	}
	if fields["txns_last_5m"] != "1" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if fake.hgetKey != keyFor("u1") {
		t.Fatalf("unexpected key: %v", fake.hgetKey)
	}
}

func TestReadSnapshotMissing(t *testing.T) {
	fake := &fakeEvaler{hgetVal: map[string]string{}}
	s := New(fake)

	_, ok, err := s.ReadSnapshot(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected not ok for empty snapshot")
	}
}

func TestReadSnapshotPropagatesError(t *testing.T) {
	fake := &fakeEvaler{hgetErr: errors.New("boom")}
	s := New(fake)

	if _, _, err := s.ReadSnapshot(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetFloatDefaultsOnMissingOrInvalid(t *testing.T) {
	fields := map[string]string{"amount_zscore": "1.5", "bad": "nope"}
	if v := GetFloat(fields, "amount_zscore", 0); v != 1.5 {
		t.Fatalf("got %v", v)
	}
	if v := GetFloat(fields, "missing", 9); v != 9 {
		t.Fatalf("expected default 9, got %v", v)
	}
	if v := GetFloat(fields, "bad", 3); v != 3 {
		t.Fatalf("expected default 3 for unparseable field, got %v", v)
	}
}
