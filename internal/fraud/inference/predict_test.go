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

package inference

import (
	"context"
	"testing"

	"fraudguard/internal/fraud/schema"
)

type fakeStore struct {
	fields map[string]string
	ok     bool
	err    error
}

func (f *fakeStore) ReadSnapshot(ctx context.Context, userID string) (map[string]string, bool, error) {
	return f.fields, f.ok, f.err
}

type fakeModel struct {
	score float32
	err   error
}

func (m *fakeModel) Score(vec [schema.NumFeatures]float32) (float32, error) {
	return m.score, m.err
}

func TestPredictMissingUserReturnsDefaultsAndReason(t *testing.T) {
	a := &Assembler{
		Store:      &fakeStore{ok: false},
		Model:      &fakeModel{score: 0.1},
		Thresholds: Thresholds{Allow: 0.3, Block: 0.7},
	}
	pred, err := a.Predict(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(pred.Reasons) != 1 || pred.Reasons[0] != "missing_features" {
		t.Fatalf("reasons = %v, want [missing_features]", pred.Reasons)
	}
	if pred.Decision != "allow" {
		t.Fatalf("decision = %s, want allow", pred.Decision)
	}
}

func TestDecisionMonotonicity(t *testing.T) {
	th := Thresholds{Allow: 0.3, Block: 0.7}
	if got := th.Decide(0.1); got != "allow" {
		t.Fatalf("Decide(0.1) = %s, want allow", got)
	}
	if got := th.Decide(0.29); got != "allow" {
		t.Fatalf("Decide(0.29) = %s, want allow", got)
	}
	if got := th.Decide(0.3); got != "step_up" {
		t.Fatalf("Decide(0.3) = %s, want step_up", got)
	}
	if got := th.Decide(0.69); got != "step_up" {
		t.Fatalf("Decide(0.69) = %s, want step_up", got)
	}
	if got := th.Decide(0.7); got != "block" {
		t.Fatalf("Decide(0.7) = %s, want block", got)
	}
	if got := th.Decide(0.99); got != "block" {
		t.Fatalf("Decide(0.99) = %s, want block", got)
	}
}

func TestGenerateReasonsPriorityAndTruncation(t *testing.T) {
	fields := map[string]string{
		"txns_last_5m":       "10", // high_velocity_5m
		"txns_last_1h":       "30", // high_velocity_1h
		"avg_amount_1h":      "100",
		"amount_zscore":      "5", // unusual_amount
		"device_churn_24h":   "5", // high_device_churn
		"ip_changes_24h":     "5", // frequent_ip_changes
		"merchant_velocity_1h": "10", // high_merchant_velocity
	}
	got := GenerateReasons(fields)
	want := []string{"high_velocity_5m", "unusual_amount", "high_device_churn"}
	if len(got) != 3 {
		t.Fatalf("expected exactly 3 reasons, got %v", got)
	}
	for i, code := range want {
		if got[i] != code {
			t.Fatalf("reasons[%d] = %s, want %s (full: %v)", i, got[i], code, got)
		}
	}
}

func TestGenerateReasonsDefaultWhenNoneMatch(t *testing.T) {
	got := GenerateReasons(map[string]string{})
	if len(got) != 1 || got[0] != "no_significant_indicators" {
		t.Fatalf("reasons = %v, want [no_significant_indicators]", got)
	}
}

func TestBuildVectorSubstitutesZeroForMissingOrNonNumeric(t *testing.T) {
	fields := map[string]string{
		"V1":                "1.5",
		"V2":                "not-a-number",
		"Amount_normalized": "-0.25",
	}
	vec := BuildVector(fields)
	if vec[0] != 1.5 {
		t.Fatalf("V1 = %v, want 1.5", vec[0])
	}
	if vec[1] != 0 {
		t.Fatalf("V2 = %v, want 0 (non-numeric substitution)", vec[1])
	}
	if vec[2] != 0 {
		t.Fatalf("V3 = %v, want 0 (missing substitution)", vec[2])
	}
	if vec[28] != -0.25 {
		t.Fatalf("Amount_normalized = %v, want -0.25", vec[28])
	}
}

func TestRound4(t *testing.T) {
	if got := round4(0.123456); got != 0.1235 {
		t.Fatalf("round4(0.123456) = %v, want 0.1235", got)
	}
}
