package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wedding-booking/internal/cache"
	"wedding-booking/internal/data/memstore"
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/kafka"
	"wedding-booking/internal/wire"
	"wedding-booking/pkg/database"
	"wedding-booking/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and webhook receiver",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.App.Storage),
		zap.Bool("debug", config.App.Debug),
	)

	repo, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	var deps wire.Deps
	if config.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(config.Redis)
		defer redisCache.Close()
		pingCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.Warn("Redis unreachable, tenant cache disabled", zap.Error(err))
		} else {
			deps.Cache = redisCache
		}
		cancel()
	}

	if len(config.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(config.Kafka.Brokers, logger)
		defer producer.Close()
		deps.Publisher = producer
	} else {
		deps.Publisher = kafka.NewLogProducer(logger)
	}

	shutdownTracer, err := utils.InitTracer(cmd.Context(), config.Tracing, config.App.Name)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()
	if config.Tracing.Endpoint != "" {
		logger.Info("Tracing enabled", zap.String("otlp_endpoint", config.Tracing.Endpoint))
	}

	app := wire.Wiring(repo, config, deps, logger)

	server := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepLimiter(ctx, app)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func sweepLimiter(ctx context.Context, app *wire.App) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			app.Limiter.Sweep(now)
		}
	}
}

func txOptions() repository.TxOptions {
	return repository.TxOptions{
		LockTimeout: config.Booking.LockTimeout,
		TxTimeout:   config.Booking.TxTimeout,
	}
}

// openRepository returns the configured storage and its cleanup.
func openRepository() (*repository.Repository, func(), error) {
	switch config.App.Storage {
	case "memory":
		store := memstore.New(txOptions(), logger)
		if err := memstore.SeedDemo(store, config.App.BootstrapAdminEmail, config.App.BootstrapAdminPassword); err != nil {
			return nil, nil, fmt.Errorf("seed memory store: %w", err)
		}
		logger.Warn("Using in-memory storage; data is lost on exit")
		return store.Repository(), func() {}, nil

	case "postgres", "":
		db, err := database.InitDB(config.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		logger.Info("Database connected successfully")
		return repository.NewRepository(db, txOptions(), logger), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE %q", config.App.Storage)
	}
}
