// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/GameProbe/services/controller/config"
	"github.com/AleutianAI/GameProbe/services/controller/gameenv"
	"github.com/AleutianAI/GameProbe/services/controller/history"
	"github.com/AleutianAI/GameProbe/services/controller/metrics"
	"github.com/AleutianAI/GameProbe/services/controller/observability"
	"github.com/AleutianAI/GameProbe/services/controller/routes"
	"github.com/AleutianAI/GameProbe/services/controller/session"
	"github.com/AleutianAI/GameProbe/storage/badger"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return func(context.Context) {}, nil
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("controller-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	settings := config.Load()

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	dbCfg := badger.DefaultConfig(settings.HistoryPath)
	dbCfg.Logger = logger
	db, err := badger.Open(dbCfg)
	if err != nil {
		log.Fatalf("FATAL: could not open the history database: %v", err)
	}
	defer db.Close()

	gc := badger.NewGCRunner(db, dbCfg, logger)
	if gc != nil {
		gc.Start()
		defer gc.Stop()
	}

	store := history.NewStore(db, logger)
	ctrlMetrics := observability.NewControllerMetrics(prometheus.DefaultRegisterer)

	newAdapter := func(target string) gameenv.Adapter {
		if settings.EnvDaemonURL != "" {
			return gameenv.NewRemoteAdapter(settings.EnvDaemonURL, target, logger)
		}
		slog.Warn("GAMEPROBE_ENV_DAEMON_URL not set, using simulated environment")
		return gameenv.NewSimAdapter(gameenv.SimConfig{})
	}

	ctrl, err := session.NewController(session.Options{
		StepBudget:      settings.StepBudget,
		FreezeThreshold: settings.FreezeThreshold,
		StepRate:        settings.StepRate,
		Reward:          settings.Reward,
		StopTimeout:     settings.StopTimeout,
		NewAdapter:      newAdapter,
		Metrics:         ctrlMetrics,
		Logger:          logger,
	}, metrics.NewAggregator(), store)
	if err != nil {
		log.Fatalf("FATAL: could not initialize the session controller: %v", err)
	}
	defer ctrl.Close()

	router := gin.Default()
	router.Use(otelgin.Middleware("controller-service"))
	routes.SetupRoutes(router, ctrl, store)

	log.Println("Starting the controller server on port ", settings.Port)
	if err := router.Run(":" + settings.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
