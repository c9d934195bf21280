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

// Package main is the featurizer service entry point: the single consumer
// that tails the event log, maintains per-user sliding windows, and
// publishes feature snapshots.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fraudguard/internal/fraud/config"
	"fraudguard/internal/fraud/eventlog"
	"fraudguard/internal/fraud/featurestore"
	"fraudguard/internal/fraud/logging"
	"fraudguard/internal/fraud/schema"
	"fraudguard/internal/fraud/telemetry"
	"fraudguard/internal/fraud/window"
)

// readBatchSize and readBlockMs bound a single ReadAfter call; small enough
// that a poison-pill event never stalls the consumer for long.
const (
	readBatchSize = 10
	readBlockMs   = 1000
	idleGCEvery   = 10 * time.Minute
	idleGCAfter   = 48 * time.Hour
)

func main() {
	logger := logging.New("featurizer")
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	defer redisClient.Close()

	log := eventlog.NewRedisLog(redisClient, cfg.StreamKey)
	store := featurestore.New(redisClient)
	windows := window.NewStore()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go run(ctx, logger, log, store, windows)
	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
		close(done)
	}()

	<-done
	logger.Info("stopped")
}

func run(ctx context.Context, logger *zap.Logger, log eventlog.Log, store *featurestore.Store, windows *window.Store) {
	cursor := eventlog.ZeroCursor
	lastGC := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		records, err := log.ReadAfter(ctx, cursor, readBatchSize, readBlockMs)
		if err != nil {
			logger.Error("read event log", zap.Error(err))
			time.Sleep(1 * time.Second)
			continue
		}

		for _, rec := range records {
			cursor = rec.ID

			e, err := eventlog.DecodeEvent(rec)
			if err != nil {
				logger.Error("poison-pill event: decode failed", zap.String("record_id", rec.ID), zap.Error(err))
				continue
			}

			now := time.Now().UTC()
			w := windows.GetOrCreate(e.UserID, now)
			features, err := w.Process(e, now)
			if err != nil {
				logger.Error("poison-pill event: process failed", zap.String("event_id", e.EventID), zap.Error(err))
				continue
			}

			fields := snapshotFields(e, features, now)

			writeStart := time.Now()
			if err := store.WriteSnapshot(ctx, e.UserID, fields); err != nil {
				telemetry.RedisWriteLatencySeconds.Observe(time.Since(writeStart).Seconds())
				logger.Error("write feature snapshot", zap.String("user_id", e.UserID), zap.Error(err))
				continue
			}
			telemetry.RedisWriteLatencySeconds.Observe(time.Since(writeStart).Seconds())
			telemetry.FeatureUpdatesTotal.Inc()

			if ts, err := schema.ParseTimestamp(e.Ts); err == nil {
				lag := now.Sub(ts).Seconds()
				if lag < 0 {
					lag = 0
				}
				telemetry.FeatureFreshnessLagSeconds.Observe(lag)
			}
		}

		if time.Since(lastGC) >= idleGCEvery {
			evicted := windows.EvictIdle(time.Now().UTC(), idleGCAfter)
			if evicted > 0 {
				logger.Info("idle window eviction", zap.Int("evicted", evicted), zap.Int("tracked", windows.Len()))
			}
			lastGC = time.Now()
		}
	}
}

// snapshotFields merges the derived behavioral features with the opaque
// passthrough model features of the triggering event, plus the two
// timestamps the snapshot always carries (spec.md §4.3's publication step).
func snapshotFields(e *schema.Event, f window.Features, now time.Time) map[string]string {
	fields := map[string]string{
		"txns_last_5m":           strconv.Itoa(f.TxnsLast5m),
		"txns_last_1h":           strconv.Itoa(f.TxnsLast1h),
		"txns_last_24h":          strconv.Itoa(f.TxnsLast24h),
		"avg_amount_1h":          formatFloat(f.AvgAmount1h),
		"max_amount_24h":         formatFloat(f.MaxAmount24h),
		"unique_devices_24h":     strconv.Itoa(f.UniqueDevices24h),
		"unique_ips_24h":         strconv.Itoa(f.UniqueIPs24h),
		"amount_zscore":          formatFloat(f.AmountZscore),
		"merchant_velocity_1h":   strconv.Itoa(int(f.MerchantVelocity1h)),
		"device_churn_24h":       strconv.Itoa(f.DeviceChurn24h),
		"ip_changes_24h":         strconv.Itoa(f.IPChanges24h),
		"last_event_ts":          e.Ts,
		"last_feature_update_ts": now.Format(time.RFC3339),
	}
	for i, name := range schema.FeatureNames {
		fields[name] = formatFloat(e.Features[i])
	}
	return fields
}

// formatFloat renders v the way Python's str(float) does: shortest exact
// decimal, but always with a fractional part (str(50.0) == "50.0", not
// "50"), since downstream consumers compare snapshot fields byte-for-byte
// against the original pipeline's output (spec.md §8 scenario S1).
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
