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

package columnar

import (
	"os"
	"path/filepath"
	"testing"

	"fraudguard/internal/fraud/schema"
)

func sampleEvent(id, ts string) *schema.Event {
	return &schema.Event{
		EventID:    id,
		Ts:         ts,
		UserID:     "u1",
		Amount:     10,
		Currency:   "USD",
		Country:    "US",
		DeviceID:   "d1",
		IP:         "1.1.1.1",
		MerchantID: "m1",
	}
}

func TestEnqueueThenFlushWritesOneBlobAndClearsBuffer(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, nil)

	w.Enqueue(sampleEvent("e1", "2025-01-15T10:00:00Z"))
	w.Enqueue(sampleEvent("e2", "2025-01-15T10:05:00Z"))

	if got := w.Size(); got != 2 {
		t.Fatalf("size before flush = %d, want 2", got)
	}

	n, err := w.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n != 2 {
		t.Fatalf("flushed %d events, want 2", n)
	}
	if got := w.Size(); got != 0 {
		t.Fatalf("size after flush = %d, want 0", got)
	}

	partDir := filepath.Join(dir, "events", "dt=2025-01-15", "hour=10")
	entries, err := os.ReadDir(partDir)
	if err != nil {
		t.Fatalf("ReadDir %s: %v", partDir, err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one blob, got %d", len(entries))
	}
}

func TestFlushOnEmptyBufferIsNoop(t *testing.T) {
	w := New(t.TempDir(), nil)
	n, err := w.Flush()
	if err != nil || n != 0 {
		t.Fatalf("Flush on empty buffer = (%d, %v), want (0, nil)", n, err)
	}
}

func TestPartitionDerivedFromFirstEventInBatch(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, nil)
	// First event is in hour 23; second crosses into the next day/hour.
	w.Enqueue(sampleEvent("e1", "2025-01-15T23:59:00Z"))
	w.Enqueue(sampleEvent("e2", "2025-01-16T00:01:00Z"))

	if _, err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	partDir := filepath.Join(dir, "events", "dt=2025-01-15", "hour=23")
	if _, err := os.Stat(partDir); err != nil {
		t.Fatalf("expected blob under %s, got: %v", partDir, err)
	}
}
