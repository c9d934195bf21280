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

// Package schema defines the transaction event record shared by every stage
// of the pipeline, plus its validation and string<->float codec.
package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// NumFeatures is the count of opaque model features carried on every event:
// V1..V28 plus Amount_normalized.
const NumFeatures = 29

// FeatureNames is the fixed vector order used everywhere a feature vector is
// assembled: V1, V2, ..., V28, Amount_normalized.
var FeatureNames = buildFeatureNames()

func buildFeatureNames() [NumFeatures]string {
	var names [NumFeatures]string
	for i := 0; i < 28; i++ {
		names[i] = fmt.Sprintf("V%d", i+1)
	}
	names[28] = "Amount_normalized"
	return names
}

// Event is a single transaction record: the ingest payload, the columnar
// writer's row, and the event-log record are all this same shape.
type Event struct {
	EventID    string               `json:"event_id"`
	Ts         string               `json:"ts"`
	UserID     string               `json:"user_id"`
	Amount     float64              `json:"amount"`
	Currency   string               `json:"currency"`
	Country    string               `json:"country"`
	DeviceID   string               `json:"device_id"`
	IP         string               `json:"ip"`
	MerchantID string               `json:"merchant_id"`
	Features   [NumFeatures]float64 `json:"-"`
}

// eventWireFields is the flat JSON shape of an Event: the named columns plus
// V1..V28/Amount_normalized at the top level, matching the ingest payload.
type eventWireFields struct {
	EventID    string  `json:"event_id"`
	Ts         string  `json:"ts"`
	UserID     string  `json:"user_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Country    string  `json:"country"`
	DeviceID   string  `json:"device_id"`
	IP         string  `json:"ip"`
	MerchantID string  `json:"merchant_id"`
}

// MarshalJSON flattens the opaque feature vector to its named fields
// (V1..V28, Amount_normalized) alongside the core columns.
func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"event_id":    e.EventID,
		"ts":          e.Ts,
		"user_id":     e.UserID,
		"amount":      e.Amount,
		"currency":    e.Currency,
		"country":     e.Country,
		"device_id":   e.DeviceID,
		"ip":          e.IP,
		"merchant_id": e.MerchantID,
	}
	for i, name := range FeatureNames {
		out[name] = e.Features[i]
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads both the core columns and the named feature fields
// (V1..V28, Amount_normalized) from a flat JSON object. A missing feature
// field defaults to 0.0, matching the string-map codec's behavior.
func (e *Event) UnmarshalJSON(data []byte) error {
	var core eventWireFields
	if err := json.Unmarshal(data, &core); err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Event{
		EventID:    core.EventID,
		Ts:         core.Ts,
		UserID:     core.UserID,
		Amount:     core.Amount,
		Currency:   core.Currency,
		Country:    core.Country,
		DeviceID:   core.DeviceID,
		IP:         core.IP,
		MerchantID: core.MerchantID,
	}
	for i, name := range FeatureNames {
		v, ok := raw[name]
		if !ok {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("field %s: not a number", name)
		}
		e.Features[i] = f
	}
	return nil
}

// Feature returns the opaque model feature by its fixed-order name
// (V1..V28, Amount_normalized), or 0 and false if the name is unknown.
func (e *Event) Feature(name string) (float64, bool) {
	for i, n := range FeatureNames {
		if n == name {
			return e.Features[i], true
		}
	}
	return 0, false
}

// SetFeature sets the opaque model feature by its fixed-order name.
func (e *Event) SetFeature(name string, v float64) {
	for i, n := range FeatureNames {
		if n == name {
			e.Features[i] = v
			return
		}
	}
}

// Validate checks the ingest-boundary invariants: event_id and user_id are
// non-empty, amount is non-negative, and ts parses. The other string fields
// (currency, country, device_id, ip, merchant_id) are not checked, so an
// event that omits them passes with empty values.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if e.Amount < 0 {
		return fmt.Errorf("amount must be non-negative, got %v", e.Amount)
	}
	if _, err := ParseTimestamp(e.Ts); err != nil {
		return fmt.Errorf("ts: %w", err)
	}
	return nil
}

// ParseTimestamp parses an ISO-8601 UTC timestamp with a Z suffix and
// normalizes it to naive UTC (strips any remaining zone info), per spec.md
// §4.3's "naive UTC" comparison rule.
func ParseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	return t.UTC(), nil
}

// ToStringMap flattens the event to byte-string -> byte-string (represented
// here as string -> string) per spec.md §4.2: every field stringified, floats
// with full precision. This is the event-log record shape.
func (e *Event) ToStringMap() map[string]string {
	m := map[string]string{
		"event_id":    e.EventID,
		"ts":          e.Ts,
		"user_id":     e.UserID,
		"amount":      formatFloat(e.Amount),
		"currency":    e.Currency,
		"country":     e.Country,
		"device_id":   e.DeviceID,
		"ip":          e.IP,
		"merchant_id": e.MerchantID,
	}
	for i, name := range FeatureNames {
		m[name] = formatFloat(e.Features[i])
	}
	return m
}

// FromStringMap reconstructs an Event from its flattened log-record form.
// Malformed numeric fields are an error (the caller treats this as a
// poison-pill event: log, skip, advance the cursor).
func FromStringMap(m map[string]string) (*Event, error) {
	e := &Event{
		EventID:    m["event_id"],
		Ts:         m["ts"],
		UserID:     m["user_id"],
		Currency:   m["currency"],
		Country:    m["country"],
		DeviceID:   m["device_id"],
		IP:         m["ip"],
		MerchantID: m["merchant_id"],
	}
	amount, err := strconv.ParseFloat(m["amount"], 64)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	e.Amount = amount
	for i, name := range FeatureNames {
		v, ok := parseFloatOrZero(m[name])
		if !ok {
			return nil, fmt.Errorf("field %s: invalid float %q", name, m[name])
		}
		e.Features[i] = v
	}
	return e, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloatOrZero(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
