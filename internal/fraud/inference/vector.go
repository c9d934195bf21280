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

// Package inference assembles feature snapshots into model input vectors,
// invokes the scoring model, and derives decisions and reason codes.
package inference

import (
	"strconv"

	"fraudguard/internal/fraud/schema"
)

// DefaultFeatures returns the all-zero feature set used when a user has no
// snapshot on record (spec.md §4.4 step 2).
func DefaultFeatures() map[string]string {
	m := make(map[string]string, schema.NumFeatures)
	for _, name := range schema.FeatureNames {
		m[name] = "0.0"
	}
	return m
}

// BuildVector assembles the fixed-order model input vector
// [V1, ..., V28, Amount_normalized] from a feature snapshot. Non-numeric or
// missing fields substitute 0.0 (spec.md §4.4 step 3).
func BuildVector(fields map[string]string) [schema.NumFeatures]float32 {
	var vec [schema.NumFeatures]float32
	for i, name := range schema.FeatureNames {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		vec[i] = float32(f)
	}
	return vec
}
