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

// Package api implements the HTTP surfaces of the ingest and inference
// services (spec.md §6).
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"fraudguard/internal/fraud/columnar"
	"fraudguard/internal/fraud/eventlog"
	"fraudguard/internal/fraud/schema"
	"fraudguard/internal/fraud/telemetry"
)

// IngestServer wires the columnar writer and event log behind POST /events,
// GET /health and GET /metrics.
type IngestServer struct {
	Writer    *columnar.Writer
	Log       eventlog.Log
	BatchSize int
	Logger    *zap.Logger
	Ping      func(ctx context.Context) error
}

// RegisterRoutes mounts the ingest routes on mux.
func (s *IngestServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", telemetry.Handler())
}

func (s *IngestServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var e schema.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := e.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.Writer.Enqueue(&e)

	if _, err := s.Log.Append(r.Context(), &e); err != nil {
		telemetry.IngestEventsTotal.WithLabelValues("error").Inc()
		s.Logger.Error("event log append failed", zap.String("event_id", e.EventID), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to append event to log")
		return
	}

	telemetry.IngestEventsTotal.WithLabelValues("success").Inc()
	telemetry.IngestBufferSize.Set(float64(s.Writer.Size()))

	if s.Writer.Size() >= s.BatchSize {
		// Fire-and-forget: the handler does not await the flush (spec.md §5).
		go func() {
			start := time.Now()
			_, err := s.Writer.Flush()
			telemetry.IngestFlushLatencySeconds.Observe(time.Since(start).Seconds())
			telemetry.IngestBufferSize.Set(float64(s.Writer.Size()))
			if err != nil {
				s.Logger.Error("size-triggered flush failed", zap.Error(err))
			}
		}()
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "event_id": e.EventID})
}

func (s *IngestServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Ping != nil {
		if err := s.Ping(r.Context()); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "infra unreachable: "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
