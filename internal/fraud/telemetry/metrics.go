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

// Package telemetry exposes the pipeline's Prometheus counters, gauges and
// histograms. Names are a contract (spec.md §6) — do not rename.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_events_total",
		Help: "Total ingest events by outcome.",
	}, []string{"status"})

	IngestFlushesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_flushes_total",
		Help: "Total columnar buffer flushes attempted.",
	})

	IngestBufferSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_buffer_size",
		Help: "Current number of events buffered awaiting flush.",
	})

	IngestFlushLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_flush_latency_seconds",
		Help:    "Latency of columnar buffer flush operations.",
		Buckets: prometheus.DefBuckets,
	})

	FeatureUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feature_updates_total",
		Help: "Total feature snapshot writes.",
	})

	FeatureFreshnessLagSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feature_freshness_lag_seconds",
		Help:    "Wall-clock time minus event timestamp at feature-write time, clamped to >= 0.",
		Buckets: prometheus.DefBuckets,
	})

	RedisWriteLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "redis_write_latency_seconds",
		Help:    "Latency of feature-store writes.",
		Buckets: prometheus.DefBuckets,
	})

	PredictRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "predict_requests_total",
		Help: "Total predict requests by outcome and decision.",
	}, []string{"status", "decision"})

	PredictLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "predict_latency_seconds",
		Help:    "Latency of predict requests end to end.",
		Buckets: prometheus.DefBuckets,
	})

	RedisFetchLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "redis_fetch_latency_seconds",
		Help:    "Latency of feature-store reads.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		IngestEventsTotal,
		IngestFlushesTotal,
		IngestBufferSize,
		IngestFlushLatencySeconds,
		FeatureUpdatesTotal,
		FeatureFreshnessLagSeconds,
		RedisWriteLatencySeconds,
		PredictRequestsTotal,
		PredictLatencySeconds,
		RedisFetchLatencySeconds,
	)
}

// Handler returns the /metrics exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
