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
	"fmt"
	"math"
	"time"

	"fraudguard/internal/fraud/telemetry"
)

// Thresholds holds the decision boundaries (spec.md §4.4 step 5).
type Thresholds struct {
	Allow float64 // default 0.3
	Block float64 // default 0.7
}

// Decide maps a risk score to a decision string.
func (t Thresholds) Decide(riskScore float64) string {
	switch {
	case riskScore < t.Allow:
		return "allow"
	case riskScore < t.Block:
		return "step_up"
	default:
		return "block"
	}
}

// FeatureReader is the read-through contract Assembler needs from the
// feature store.
type FeatureReader interface {
	ReadSnapshot(ctx context.Context, userID string) (map[string]string, bool, error)
}

// Assembler implements the Inference stage's predict contract end to end.
type Assembler struct {
	Store      FeatureReader
	Model      Model
	Thresholds Thresholds
}

// Prediction is the predict(user_id) result.
type Prediction struct {
	UserID    string   `json:"user_id"`
	RiskScore float64  `json:"risk_score"`
	Decision  string   `json:"decision"`
	Reasons   []string `json:"reasons"`
}

// Predict implements spec.md §4.4's contract in full.
func (a *Assembler) Predict(ctx context.Context, userID string) (*Prediction, error) {
	fetchStart := time.Now()
	fields, ok, err := a.Store.ReadSnapshot(ctx, userID)
	telemetry.RedisFetchLatencySeconds.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("read feature snapshot: %w", err)
	}

	var reasons []string
	if !ok {
		fields = DefaultFeatures()
		reasons = []string{"missing_features"}
	}

	vec := BuildVector(fields)
	score, err := a.Model.Score(vec)
	if err != nil {
		return nil, fmt.Errorf("model invocation: %w", err)
	}

	decision := a.Thresholds.Decide(float64(score))

	if ok {
		reasons = GenerateReasons(fields)
	}

	return &Prediction{
		UserID:    userID,
		RiskScore: round4(float64(score)),
		Decision:  decision,
		Reasons:   reasons,
	}, nil
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
