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

package schema

import (
	"encoding/json"
	"testing"
)

func validEvent() *Event {
	e := &Event{
		EventID:    "e1",
		Ts:         "2025-01-15T10:00:00Z",
		UserID:     "u1",
		Amount:     50.0,
		Currency:   "USD",
		Country:    "US",
		DeviceID:   "d1",
		IP:         "1.1.1.1",
		MerchantID: "m1",
	}
	return e
}

func TestValidateAcceptsWellFormedEvent(t *testing.T) {
	e := validEvent()
	if err := e.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsMissingEventID(t *testing.T) {
	e := validEvent()
	e.EventID = ""
	if err := e.Validate(); err == nil {
		t.Fatal("expected validation error for missing event_id")
	}
}

func TestValidateRejectsNegativeAmount(t *testing.T) {
	e := validEvent()
	e.Amount = -1
	if err := e.Validate(); err == nil {
		t.Fatal("expected validation error for negative amount")
	}
}

func TestValidateRejectsUnparseableTimestamp(t *testing.T) {
	e := validEvent()
	e.Ts = "not-a-time"
	if err := e.Validate(); err == nil {
		t.Fatal("expected validation error for bad ts")
	}
}

func TestFeatureOrderMatchesSpec(t *testing.T) {
	if FeatureNames[0] != "V1" || FeatureNames[27] != "V28" {
		t.Fatalf("unexpected feature name order: %v", FeatureNames[:3])
	}
	if FeatureNames[28] != "Amount_normalized" {
		t.Fatalf("expected Amount_normalized last, got %s", FeatureNames[28])
	}
}

func TestStringMapRoundTrip(t *testing.T) {
	e := validEvent()
	e.SetFeature("V1", 1.5)
	e.SetFeature("Amount_normalized", -0.25)

	m := e.ToStringMap()
	got, err := FromStringMap(m)
	if err != nil {
		t.Fatalf("FromStringMap: %v", err)
	}
	if got.EventID != e.EventID || got.UserID != e.UserID || got.Amount != e.Amount {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, e)
	}
	if v, _ := got.Feature("V1"); v != 1.5 {
		t.Fatalf("V1 round trip mismatch: got %v", v)
	}
}

func TestFromStringMapRejectsMalformedAmount(t *testing.T) {
	e := validEvent()
	m := e.ToStringMap()
	m["amount"] = "not-a-number"
	if _, err := FromStringMap(m); err == nil {
		t.Fatal("expected error for malformed amount field")
	}
}

func TestJSONRoundTripCarriesFeatureVector(t *testing.T) {
	e := validEvent()
	e.SetFeature("V1", 1.5)
	e.SetFeature("V28", -2.25)
	e.SetFeature("Amount_normalized", 0.75)

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Event
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.EventID != e.EventID || got.UserID != e.UserID || got.Amount != e.Amount {
		t.Fatalf("core field round trip mismatch: got %+v", got)
	}
	if v, _ := got.Feature("V1"); v != 1.5 {
		t.Fatalf("V1 round trip mismatch: got %v", v)
	}
	if v, _ := got.Feature("V28"); v != -2.25 {
		t.Fatalf("V28 round trip mismatch: got %v", v)
	}
	if v, _ := got.Feature("Amount_normalized"); v != 0.75 {
		t.Fatalf("Amount_normalized round trip mismatch: got %v", v)
	}
}

func TestJSONUnmarshalDefaultsMissingFeaturesToZero(t *testing.T) {
	body := []byte(`{"event_id":"e1","ts":"2025-01-15T10:00:00Z","user_id":"u1","amount":50,"currency":"USD","country":"US","device_id":"d1","ip":"1.1.1.1","merchant_id":"m1"}`)
	var got Event
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, _ := got.Feature("V1"); v != 0 {
		t.Fatalf("expected V1 default 0, got %v", v)
	}
}
