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

// Package main is the ingest service entry point: accepts transaction
// events over HTTP, buffers them to the columnar writer, and republishes
// them onto the event log.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fraudguard/internal/fraud/api"
	"fraudguard/internal/fraud/columnar"
	"fraudguard/internal/fraud/config"
	"fraudguard/internal/fraud/eventlog"
	"fraudguard/internal/fraud/logging"
	"fraudguard/internal/fraud/telemetry"
)

func main() {
	logger := logging.New("ingest")
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	defer redisClient.Close()

	log := eventlog.NewRedisLog(redisClient, cfg.StreamKey)

	writer := columnar.New(cfg.S3Bucket, func(n int, err error) {
		telemetry.IngestFlushesTotal.Inc()
		if err != nil {
			logger.Error("flush failed", zap.Int("events", n), zap.Error(err))
		}
	})
	stopFlusher := writer.StartBackgroundFlusher(cfg.FlushInterval)
	defer stopFlusher()

	server := &api.IngestServer{
		Writer:    writer,
		Log:       log,
		BatchSize: cfg.BatchSize,
		Logger:    logger,
		Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	httpServer := api.NewHTTPServer(cfg.HTTPAddr, mux)

	go func() {
		logger.Info("ingest listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	if _, err := writer.Flush(); err != nil {
		logger.Error("final flush failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("stopped")
}
