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

// Package columnar buffers validated events in memory and flushes them as
// partitioned, snappy-compressed Parquet blobs.
package columnar

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"fraudguard/internal/fraud/schema"
)

// Row is the fixed Parquet schema: field-for-field with schema.Event.
type Row struct {
	EventID    string  `parquet:"event_id"`
	Ts         string  `parquet:"ts"`
	UserID     string  `parquet:"user_id"`
	Amount     float64 `parquet:"amount"`
	Currency   string  `parquet:"currency"`
	Country    string  `parquet:"country"`
	DeviceID   string  `parquet:"device_id"`
	IP         string  `parquet:"ip"`
	MerchantID string  `parquet:"merchant_id"`
	V1         float64 `parquet:"V1"`
	V2         float64 `parquet:"V2"`
	V3         float64 `parquet:"V3"`
	V4         float64 `parquet:"V4"`
	V5         float64 `parquet:"V5"`
	V6         float64 `parquet:"V6"`
	V7         float64 `parquet:"V7"`
	V8         float64 `parquet:"V8"`
	V9         float64 `parquet:"V9"`
	V10        float64 `parquet:"V10"`
	V11        float64 `parquet:"V11"`
	V12        float64 `parquet:"V12"`
	V13        float64 `parquet:"V13"`
	V14        float64 `parquet:"V14"`
	V15        float64 `parquet:"V15"`
	V16        float64 `parquet:"V16"`
	V17        float64 `parquet:"V17"`
	V18        float64 `parquet:"V18"`
	V19        float64 `parquet:"V19"`
	V20        float64 `parquet:"V20"`
	V21        float64 `parquet:"V21"`
	V22        float64 `parquet:"V22"`
	V23        float64 `parquet:"V23"`
	V24        float64 `parquet:"V24"`
	V25        float64 `parquet:"V25"`
	V26        float64 `parquet:"V26"`
	V27        float64 `parquet:"V27"`
	V28        float64 `parquet:"V28"`

	AmountNormalized float64 `parquet:"Amount_normalized"`
}

func rowFromEvent(e *schema.Event) Row {
	r := Row{
		EventID:    e.EventID,
		Ts:         e.Ts,
		UserID:     e.UserID,
		Amount:     e.Amount,
		Currency:   e.Currency,
		Country:    e.Country,
		DeviceID:   e.DeviceID,
		IP:         e.IP,
		MerchantID: e.MerchantID,
	}
	v := &r
	dst := []*float64{
		&v.V1, &v.V2, &v.V3, &v.V4, &v.V5, &v.V6, &v.V7, &v.V8, &v.V9, &v.V10,
		&v.V11, &v.V12, &v.V13, &v.V14, &v.V15, &v.V16, &v.V17, &v.V18, &v.V19, &v.V20,
		&v.V21, &v.V22, &v.V23, &v.V24, &v.V25, &v.V26, &v.V27, &v.V28,
	}
	for i := range dst {
		*dst[i] = e.Features[i]
	}
	v.AmountNormalized = e.Features[28]
	return r
}

// Writer is the buffered columnar sink described by the component design:
// enqueue never blocks on I/O, flush snapshots-then-clears the buffer under
// a mutex and writes outside the critical section, and a failed write is
// re-inserted at the head of the buffer (event order preserved) rather than
// dropped.
type Writer struct {
	mu     sync.Mutex
	buf    []*schema.Event
	base   string
	onFlush func(n int, err error)
}

// New creates a writer rooted at base (S3_BUCKET in spec.md's terms — here a
// filesystem path, since the object-store driver itself is out of scope).
// onFlush, if non-nil, is invoked for metrics after every flush that had
// events to write; a flush of an empty buffer does not invoke it.
func New(base string, onFlush func(n int, err error)) *Writer {
	return &Writer{base: base, onFlush: onFlush}
}

// Enqueue appends a validated event to the buffer. It never performs I/O.
func (w *Writer) Enqueue(e *schema.Event) {
	w.mu.Lock()
	w.buf = append(w.buf, e)
	w.mu.Unlock()
}

// Size returns the current buffered event count.
func (w *Writer) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf)
}

// Flush snapshots and clears the buffer, then writes the snapshot as one
// Parquet blob outside the lock. On write failure the snapshot is
// re-inserted at the head of whatever has accumulated since, preserving
// event order, and the error is returned.
func (w *Writer) Flush() (int, error) {
	w.mu.Lock()
	snapshot := w.buf
	w.buf = nil
	w.mu.Unlock()

	if len(snapshot) == 0 {
		return 0, nil
	}

	err := w.writeBlob(snapshot)
	if err != nil {
		w.mu.Lock()
		w.buf = append(snapshot, w.buf...)
		w.mu.Unlock()
	}
	if w.onFlush != nil {
		w.onFlush(len(snapshot), err)
	}
	if err != nil {
		return 0, err
	}
	return len(snapshot), nil
}

func (w *Writer) writeBlob(events []*schema.Event) error {
	// Partition derives from the first event in the batch (spec §3, §9: a
	// known, preserved simplification — not corrected here).
	t, err := schema.ParseTimestamp(events[0].Ts)
	if err != nil {
		return fmt.Errorf("partition timestamp: %w", err)
	}
	dir := filepath.Join(w.base, "events",
		fmt.Sprintf("dt=%s", t.Format("2006-01-02")),
		fmt.Sprintf("hour=%02d", t.Hour()),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	name := fmt.Sprintf("events-%s.parquet", randomHex8())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	rows := make([]Row, len(events))
	for i, e := range events {
		rows[i] = rowFromEvent(e)
	}

	pw := parquet.NewGenericWriter[Row](f, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

func randomHex8() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back to a
		// fixed value rather than panic mid-flush.
		return "00000000"
	}
	return hex.EncodeToString(b)
}

// StartBackgroundFlusher launches the time-driven flush trigger (spec §4.1):
// wake every interval and flush if the buffer is non-empty. It returns a
// stop function.
func (w *Writer) StartBackgroundFlusher(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if w.Size() > 0 {
					_, _ = w.Flush()
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
