package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/internal/activity"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/config"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/rabbitmq"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/telemetry"
)

func main() {
	cfg := config.LoadForService(store.ServiceActivity)
	logger := cfg.NewLogger(os.Stderr).With("service", "activity-consumer")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("activity-consumer failed", "error", err)
		os.Exit(1)
	}
	logger.Info("activity-consumer exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required")
	}

	tel, err := telemetry.Setup(telemetry.Options{
		ServiceName: "activity-consumer",
		Exporter:    cfg.TelemetryExporter,
		Writer:      os.Stdout,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	db, dialect, err := store.Connect(ctx, cfg.DatabaseURL, store.DefaultConnectOptions)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := store.RunMigrations(ctx, db, dialect, store.ServiceActivity); err != nil {
		_ = db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	s := store.New(db, dialect,
		store.WithLogger(logger),
		store.WithTracer(tel.Tracer("activity-consumer")),
		store.WithMeter(tel.Meter("activity-consumer")),
	)
	defer s.Close()

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, 30, 2*time.Second)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	consumer := activity.NewConsumer(s, logger)
	err = rabbitmq.SetupConsumer(ctx, conn, rabbitmq.ConsumerConfig{
		QueueName:    "activity.events",
		DLQName:      "dlq.activity.events",
		RoutingKeys:  activity.RoutingKeys,
		ConsumerName: "activity-consumer",
	}, consumer.HandleMessage)
	if err != nil {
		return fmt.Errorf("setup consumer: %w", err)
	}

	logger.Info("waiting for events", "database", dialect.Name)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
