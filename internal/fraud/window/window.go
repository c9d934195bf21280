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

// Package window implements the per-user sliding-window aggregation at the
// heart of the featurizer: retained event history, running totals, and the
// eleven derived behavioral features.
package window

import (
	"time"

	"fraudguard/internal/fraud/schema"
)

const (
	// W5m is the 5-minute velocity horizon.
	W5m = 300 * time.Second
	// W1h is the 1-hour horizon.
	W1h = 3600 * time.Second
	// W24h is the 24-hour horizon.
	W24h = 86400 * time.Second
	// Retention is how long an event is kept in the window at all.
	Retention = 48 * time.Hour
)

// retained is one kept event: only the fields the aggregator needs.
type retained struct {
	ts         time.Time
	amount     float64
	deviceID   string
	ip         string
	merchantID string
}

// Window is the retained history and running aggregates for one user. It is
// owned exclusively by the single featurizer consumer goroutine: no
// internal locking (spec.md §5, §9).
type Window struct {
	events      []retained
	totalAmount float64
	amountCount int
}

// New returns an empty window.
func New() *Window {
	return &Window{}
}

// TotalAmount and AmountCount expose the running aggregates for tests.
func (w *Window) TotalAmount() float64 { return w.totalAmount }
func (w *Window) AmountCount() int     { return w.amountCount }
func (w *Window) Len() int             { return len(w.events) }

func (w *Window) add(e *schema.Event, ts time.Time) {
	w.events = append(w.events, retained{
		ts:         ts,
		amount:     e.Amount,
		deviceID:   e.DeviceID,
		ip:         e.IP,
		merchantID: e.MerchantID,
	})
	w.totalAmount += e.Amount
	w.amountCount++
}

// evictBefore drops the prefix of the window older than cutoff, keeping
// totalAmount/amountCount in sync. Amortized O(1) per insert, worst-case
// O(k) for a long-idle user (spec.md §4.3).
func (w *Window) evictBefore(cutoff time.Time) {
	i := 0
	for i < len(w.events) && w.events[i].ts.Before(cutoff) {
		w.totalAmount -= w.events[i].amount
		w.amountCount--
		i++
	}
	if i > 0 {
		w.events = w.events[i:]
	}
}

func (w *Window) since(now time.Time, horizon time.Duration) []retained {
	cutoff := now.Add(-horizon)
	// events are oldest-first; find the first index >= cutoff.
	i := 0
	for i < len(w.events) && w.events[i].ts.Before(cutoff) {
		i++
	}
	return w.events[i:]
}

// Features is the set of derived behavioral features, named exactly as they
// are published in the feature snapshot (spec.md §4.3).
type Features struct {
	TxnsLast5m          int
	TxnsLast1h          int
	TxnsLast24h         int
	AvgAmount1h         float64
	MaxAmount24h        float64
	UniqueDevices24h    int
	UniqueIPs24h        int
	AmountZscore        float64
	MerchantVelocity1h  float64
	DeviceChurn24h      int
	IPChanges24h        int
}

// Process inserts event into the window and returns the derived features,
// computed with the event already included (spec.md §4.3: "the current
// event is added to the window before features are computed"). now is the
// wall-clock processing time; it is a parameter (not time.Now()) so the
// computation is a pure, testable function of window state plus now.
func (w *Window) Process(e *schema.Event, now time.Time) (Features, error) {
	ts, err := schema.ParseTimestamp(e.Ts)
	if err != nil {
		return Features{}, err
	}

	w.add(e, ts)
	w.evictBefore(now.Add(-Retention))

	f := Features{}

	win5m := w.since(now, W5m)
	win1h := w.since(now, W1h)
	win24h := w.since(now, W24h)

	f.TxnsLast5m = len(win5m)
	f.TxnsLast1h = len(win1h)
	f.TxnsLast24h = len(win24h)

	if len(win1h) > 0 {
		var sum float64
		for _, r := range win1h {
			sum += r.amount
		}
		f.AvgAmount1h = sum / float64(len(win1h))
	}

	if len(win24h) > 0 {
		max := win24h[0].amount
		for _, r := range win24h[1:] {
			if r.amount > max {
				max = r.amount
			}
		}
		f.MaxAmount24h = max
	}

	devices := map[string]struct{}{}
	ips := map[string]struct{}{}
	for _, r := range win24h {
		devices[r.deviceID] = struct{}{}
		ips[r.ip] = struct{}{}
	}
	f.UniqueDevices24h = len(devices)
	f.UniqueIPs24h = len(ips)

	// Z-score uses the cumulative mean mu as a stand-in for sigma — an
	// intentional approximation carried over unchanged; do not "fix" it.
	if w.amountCount > 0 {
		mu := w.totalAmount / float64(w.amountCount)
		if mu > 0 {
			f.AmountZscore = (e.Amount - mu) / mu
		}
	}

	var merchantCount int
	for _, r := range win1h {
		if r.merchantID == e.MerchantID {
			merchantCount++
		}
	}
	f.MerchantVelocity1h = float64(merchantCount)

	f.DeviceChurn24h = adjacentDisagreements(win24h, func(r retained) string { return r.deviceID })
	f.IPChanges24h = adjacentDisagreements(win24h, func(r retained) string { return r.ip })

	return f, nil
}

func adjacentDisagreements(events []retained, key func(retained) string) int {
	if len(events) < 2 {
		return 0
	}
	n := 0
	for i := 1; i < len(events); i++ {
		if key(events[i]) != key(events[i-1]) {
			n++
		}
	}
	return n
}
