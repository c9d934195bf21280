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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"fraudguard/internal/fraud/inference"
	"fraudguard/internal/fraud/schema"
)

type fakeFeatureReader struct {
	fields map[string]string
	ok     bool
}

func (f *fakeFeatureReader) ReadSnapshot(ctx context.Context, userID string) (map[string]string, bool, error) {
	return f.fields, f.ok, nil
}

type fakeScoringModel struct{ score float32 }

func (m *fakeScoringModel) Score(vec [schema.NumFeatures]float32) (float32, error) {
	return m.score, nil
}

func TestHandlePredictMissingUser(t *testing.T) {
	s := &InferServer{
		Assembler: &inference.Assembler{
			Store:      &fakeFeatureReader{ok: false},
			Model:      &fakeScoringModel{score: 0.1},
			Thresholds: inference.Thresholds{Allow: 0.3, Block: 0.7},
		},
		Logger: zap.NewNop(),
	}
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	body, _ := json.Marshal(map[string]string{"user_id": "unknown"})
	req := httptest.NewRequest("POST", "/predict", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp inference.Prediction
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Reasons) != 1 || resp.Reasons[0] != "missing_features" {
		t.Fatalf("reasons = %v, want [missing_features]", resp.Reasons)
	}
}
