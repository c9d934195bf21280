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
	"encoding/json"
	"fmt"
	"math"
	"os"

	"fraudguard/internal/fraud/schema"
)

// Model is the scoring model contract: a fixed-shape (1, 29) vector in,
// a scalar risk score in [0, 1] out. The model itself is an external
// collaborator per spec.md — this interface is the seam a real runtime
// plugs into.
type Model interface {
	Score(vec [schema.NumFeatures]float32) (float32, error)
}

// JSONWeightsModel is a logistic-regression stand-in for the out-of-scope
// scoring model: sigmoid(w . x + b), weights loaded from a JSON file at
// MODEL_PATH. No ML inference runtime appears anywhere in the reference
// corpus this module was built against, so this is the one component built
// on the standard library rather than a third-party dependency.
type JSONWeightsModel struct {
	Weights [schema.NumFeatures]float32 `json:"weights"`
	Bias    float32                     `json:"bias"`
}

// LoadJSONWeightsModel reads a weights file from path.
func LoadJSONWeightsModel(path string) (*JSONWeightsModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model weights %s: %w", path, err)
	}
	var m JSONWeightsModel
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse model weights %s: %w", path, err)
	}
	return &m, nil
}

// Score implements Model.
func (m *JSONWeightsModel) Score(vec [schema.NumFeatures]float32) (float32, error) {
	var z float32
	for i, w := range m.Weights {
		z += w * vec[i]
	}
	z += m.Bias
	return float32(sigmoid(float64(z))), nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
