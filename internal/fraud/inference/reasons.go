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

import "fraudguard/internal/fraud/featurestore"

// priorityOrder is the fixed reason-code priority (spec.md §4.5), highest
// first.
var priorityOrder = []string{
	"high_velocity_5m",
	"unusual_amount",
	"high_device_churn",
	"frequent_ip_changes",
	"high_merchant_velocity",
	"high_velocity_1h",
}

// GenerateReasons evaluates the reason-code predicates against a feature
// snapshot and returns at most three codes in priority order, or
// ["no_significant_indicators"] if none match.
func GenerateReasons(fields map[string]string) []string {
	get := func(key string) float64 { return featurestore.GetFloat(fields, key, 0.0) }

	matched := map[string]bool{
		"high_velocity_5m":       get("txns_last_5m") > 5,
		"high_velocity_1h":       get("txns_last_1h") > 20,
		"unusual_amount":         get("avg_amount_1h") > 0 && get("amount_zscore") > 3.0,
		"high_device_churn":      get("device_churn_24h") > 2,
		"frequent_ip_changes":    get("ip_changes_24h") > 3,
		"high_merchant_velocity": get("merchant_velocity_1h") > 5,
	}

	var reasons []string
	for _, code := range priorityOrder {
		if matched[code] {
			reasons = append(reasons, code)
		}
	}
	if len(reasons) == 0 {
		return []string{"no_significant_indicators"}
	}
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return reasons
}
