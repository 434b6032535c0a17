// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AccelByte/tournament-matchmaker/pkg/config"
	"github.com/AccelByte/tournament-matchmaker/pkg/dispatcher"
	"github.com/AccelByte/tournament-matchmaker/pkg/lockservice"
	"github.com/AccelByte/tournament-matchmaker/pkg/matchmaker"
	"github.com/AccelByte/tournament-matchmaker/pkg/metrics"
	"github.com/AccelByte/tournament-matchmaker/pkg/persistence"
	"github.com/AccelByte/tournament-matchmaker/pkg/queueservice"
	"github.com/AccelByte/tournament-matchmaker/pkg/registry"
	"github.com/AccelByte/tournament-matchmaker/pkg/simulator"
	"github.com/AccelByte/tournament-matchmaker/pkg/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, reading environment variables directly")
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.Fatalf("failed parsing configuration: %s", err)
	}

	if cfg.ZipkinURL != "" {
		exporter, err := zipkin.New(cfg.ZipkinURL)
		if err != nil {
			logrus.Fatalf("failed initializing zipkin exporter: %s", err)
		}
		provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(provider)
		defer func() {
			_ = provider.Shutdown(context.Background())
		}()
	}

	store := storage.NewClient(storage.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() {
		_ = store.Close()
	}()

	var sink persistence.Sink = persistence.NewNopSink()
	if cfg.DatabaseURL != "" {
		gormSink, err := persistence.NewGormSink(cfg.DatabaseURL)
		if err != nil {
			logrus.Fatalf("failed connecting persistence mirror: %s", err)
		}
		sink = gormSink
	} else {
		logrus.Warn("DATABASE_URL not set, running without persistence mirror")
	}

	promRegistry := prometheus.NewRegistry()
	mmMetrics := metrics.NewMetrics(promRegistry)

	queues := queueservice.New(store, cfg.MaxQueueSize)
	locks := lockservice.New(store)
	reg := registry.New(store)
	sim := simulator.New()

	engine := matchmaker.NewEngine(cfg, store, queues, locks, reg, sim, sink, mmMetrics)
	disp := dispatcher.New(cfg, engine, reg, mmMetrics)
	engine.SetMatchObserver(disp)

	if err := engine.StartCleanup(); err != nil {
		logrus.Fatalf("failed starting cleanup scheduler: %s", err)
	}
	defer engine.StopCleanup()
	disp.StartHeartbeat()
	defer disp.StopHeartbeat()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if !store.Connected(c.Context()) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(disp.NewWebSocketHandler()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logrus.Errorf("server error: %s", err)
		}
	}()
	logrus.WithField("addr", cfg.ListenAddr).Info("tournament matchmaker running")

	<-ctx.Done()
	logrus.Info("shutting down")
	_ = app.Shutdown()
}
