package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/Marysah2/Backend-REST-API-Code-Challenge/docs"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/internal/api"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/config"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/rabbitmq"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/telemetry"
)

const (
	portFlag        = "port"
	databaseURLFlag = "database-url"
	rabbitMQURLFlag = "rabbitmq-url"
	telemetryFlag   = "telemetry-exporter"
)

var serveFlags = map[string]cobraflags.Flag{
	portFlag: &cobraflags.StringFlag{
		Name:  portFlag,
		Usage: "HTTP listen port (env API_PORT, default 5001)",
	},
	databaseURLFlag: &cobraflags.StringFlag{
		Name:  databaseURLFlag,
		Usage: "Database URL: sqlite3://, postgres://, pgx:// or mysql:// (env DATABASE_URL)",
	},
	rabbitMQURLFlag: &cobraflags.StringFlag{
		Name:  rabbitMQURLFlag,
		Usage: "RabbitMQ URL for lifecycle events, empty disables them (env RABBITMQ_URL)",
	},
	telemetryFlag: &cobraflags.StringFlag{
		Name:  telemetryFlag,
		Usage: "OpenTelemetry exporter for store spans and metrics: none or stdout (env TELEMETRY_EXPORTER)",
	},
}

var flagKeys = map[string]string{
	portFlag:        config.KeyAPIPort,
	databaseURLFlag: config.KeyDatabaseURL,
	rabbitMQURLFlag: config.KeyRabbitMQURL,
	telemetryFlag:   config.KeyTelemetryExporter,
}

// @title           Users & Posts API
// @version         1.0
// @description     CRUD API for users and their posts. Mutations publish lifecycle events to RabbitMQ when configured.
// @host            localhost:5001
// @BasePath        /
// @schemes         http
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "api-service",
		Short:         "Serve the users and posts REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromViper(v)
			logger := cfg.NewLogger(os.Stderr)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cfg, logger); err != nil {
				logger.Error("api-service failed", "error", err)
				return err
			}
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, serveFlags)
	bindFlags(cmd, v)
	return cmd
}

// bindFlags lets explicitly set flags override the environment.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting api-service")

	tel, err := telemetry.Setup(telemetry.Options{
		ServiceName: "api-service",
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
	if err := store.RunMigrations(ctx, db, dialect, store.ServiceAPI); err != nil {
		_ = db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	s := store.New(db, dialect,
		store.WithLogger(logger),
		store.WithTracer(tel.Tracer("api-service")),
		store.WithMeter(tel.Meter("api-service")),
	)
	defer s.Close()

	var publisher api.EventPublisher = api.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, 30, 2*time.Second)
		if err != nil {
			return fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		defer conn.Close()

		p, err := rabbitmq.NewPublisher(conn)
		if err != nil {
			return fmt.Errorf("create publisher: %w", err)
		}
		defer p.Close()
		publisher = p
	} else {
		logger.Info("RABBITMQ_URL not set, lifecycle events disabled")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(s, publisher, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "database", dialect.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited gracefully")
	return nil
}
