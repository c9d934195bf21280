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

// Package main is the inference service entry point: synchronously turns a
// user_id into a risk decision by reading the feature store and invoking
// the scoring model.
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
	"fraudguard/internal/fraud/config"
	"fraudguard/internal/fraud/featurestore"
	"fraudguard/internal/fraud/inference"
	"fraudguard/internal/fraud/logging"
)

func main() {
	logger := logging.New("infer")
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	model, err := inference.LoadJSONWeightsModel(cfg.ModelPath)
	if err != nil {
		logger.Fatal("load model weights", zap.String("path", cfg.ModelPath), zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	defer redisClient.Close()

	store := featurestore.New(redisClient)

	assembler := &inference.Assembler{
		Store: store,
		Model: model,
		Thresholds: inference.Thresholds{
			Allow: cfg.ThresholdAllow,
			Block: cfg.ThresholdBlock,
		},
	}

	server := &api.InferServer{
		Assembler: assembler,
		Store:     store,
		Logger:    logger,
		Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	httpServer := api.NewHTTPServer(cfg.HTTPAddr, mux)

	go func() {
		logger.Info("infer listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("stopped")
}
