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

// Package eventlog implements the bounded, append-only event log that
// decouples ingest from the featurizer. Redis Streams is the sole
// realization (spec.md §4.2).
package eventlog

import (
	"context"

	"fraudguard/internal/fraud/schema"
)

// MaxLen is the ring cap: after this many records, the log evicts the
// oldest entries (spec.md §4.2).
const MaxLen = 10_000

// Record is a single log entry: a monotonically-increasing id plus the
// flattened event fields.
type Record struct {
	ID     string
	Fields map[string]string
}

// Log is the append/tail contract every realization satisfies.
type Log interface {
	// Append publishes the event, returning the log-assigned record id.
	Append(ctx context.Context, e *schema.Event) (string, error)
	// ReadAfter returns up to maxCount records with id > lastID, blocking
	// up to blockMs milliseconds if none are yet available.
	ReadAfter(ctx context.Context, lastID string, maxCount int, blockMs int) ([]Record, error)
}

// ZeroCursor is the featurizer's cursor starting value: read from the
// beginning of whatever history the ring currently holds (spec.md §4.2, §9 —
// cursor is never persisted).
const ZeroCursor = "0"

// DecodeEvent reconstructs an Event from a log record, used by the
// featurizer's consumer loop. A poison-pill event returns an error that the
// caller should log-and-skip rather than propagate.
func DecodeEvent(r Record) (*schema.Event, error) {
	return schema.FromStringMap(r.Fields)
}
