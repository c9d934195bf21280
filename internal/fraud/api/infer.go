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
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fraudguard/internal/fraud/featurestore"
	"fraudguard/internal/fraud/inference"
	"fraudguard/internal/fraud/telemetry"
)

// InferServer wires the inference assembler behind POST /predict,
// GET /features/{user_id}, GET /health and GET /metrics.
type InferServer struct {
	Assembler *inference.Assembler
	Store     *featurestore.Store
	Logger    *zap.Logger
	Ping      func(ctx context.Context) error
}

// RegisterRoutes mounts the inference routes on mux.
func (s *InferServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/features/", s.handleFeatures)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", telemetry.Handler())
}

type predictRequest struct {
	UserID string `json:"user_id"`
}

func (s *InferServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	start := time.Now()
	pred, err := s.Assembler.Predict(r.Context(), req.UserID)
	telemetry.PredictLatencySeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.PredictRequestsTotal.WithLabelValues("error", "").Inc()
		s.Logger.Error("predict failed", zap.String("user_id", req.UserID), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	telemetry.PredictRequestsTotal.WithLabelValues("success", pred.Decision).Inc()
	writeJSON(w, http.StatusOK, pred)
}

func (s *InferServer) handleFeatures(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.URL.Path, "/features/")
	if userID == "" {
		http.NotFound(w, r)
		return
	}

	fetchStart := time.Now()
	fields, ok, err := s.Store.ReadSnapshot(r.Context(), userID)
	telemetry.RedisFetchLatencySeconds.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	// Best-effort numeric coercion, matching the original debug endpoint:
	// numeric-looking fields come back as numbers, the rest as strings.
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = f
		} else {
			out[k] = v
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *InferServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Ping != nil {
		if err := s.Ping(r.Context()); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "infra unreachable: "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
