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

// Package config centralizes the environment-variable configuration
// contract of spec.md §6, shared by all three services.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every setting a service may need; each binary only reads the
// fields relevant to it.
type Config struct {
	RedisHost string
	RedisPort string

	StreamKey string

	S3Bucket      string
	FlushInterval time.Duration
	BatchSize     int

	ModelPath      string
	ThresholdAllow float64
	ThresholdBlock float64

	HTTPAddr    string
	MetricsAddr string
}

// Load reads the environment per spec.md §6, applying the documented
// defaults, then layers command-line flags on top — the same
// flag-plus-env pattern the teacher's entry point uses, so the listen
// addresses can be overridden per-process without touching the
// environment.
func Load() (Config, error) {
	flushSeconds, err := getIntEnv("FLUSH_INTERVAL", 10)
	if err != nil {
		return Config{}, err
	}
	batchSize, err := getIntEnv("BATCH_SIZE", 100)
	if err != nil {
		return Config{}, err
	}
	thresholdAllow, err := getFloatEnv("THRESHOLD_ALLOW", 0.3)
	if err != nil {
		return Config{}, err
	}
	thresholdBlock, err := getFloatEnv("THRESHOLD_BLOCK", 0.7)
	if err != nil {
		return Config{}, err
	}

	httpAddr := flag.String("http-addr", getEnv("HTTP_ADDR", ":8080"), "HTTP listen address (e.g., :8080)")
	metricsAddr := flag.String("metrics-addr", getEnv("METRICS_ADDR", ""), "Stored in Config.MetricsAddr; no service binary reads it, and /metrics is always served on the main HTTP mux")
	if !flag.Parsed() {
		flag.Parse()
	}

	return Config{
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		StreamKey:      getEnv("STREAM_KEY", "transaction_events"),
		S3Bucket:       getEnv("S3_BUCKET", "./data/local-s3"),
		FlushInterval:  time.Duration(flushSeconds) * time.Second,
		BatchSize:      batchSize,
		ModelPath:      getEnv("MODEL_PATH", "./model-weights.json"),
		ThresholdAllow: thresholdAllow,
		ThresholdBlock: thresholdBlock,
		HTTPAddr:       *httpAddr,
		MetricsAddr:    *metricsAddr,
	}, nil
}

// RedisAddr formats the host:port pair for go-redis.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func getFloatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid float %q: %w", key, v, err)
	}
	return f, nil
}
