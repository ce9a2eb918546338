package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/activitymap/internal/activity"
	"github.com/playperu/activitymap/internal/blob"
	"github.com/playperu/activitymap/internal/config"
	"github.com/playperu/activitymap/internal/controller"
	"github.com/playperu/activitymap/internal/database"
	"github.com/playperu/activitymap/internal/handler/health"
	"github.com/playperu/activitymap/internal/migrations"
	"github.com/playperu/activitymap/internal/persistence"
	"github.com/playperu/activitymap/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Blob store ---
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.StoreDriver, err)
	}
	defer closeStore()

	// --- Controller ---
	broker := server.NewBroker(logger.With("component", "broker"))
	deps := server.Deps{
		Broker:      broker,
		SPADir:      cfg.SPADir,
		CORSOrigins: cfg.CORSOrigins,
	}

	var position controller.PositionSource
	if cfg.FixedPosition() {
		position = controller.FixedPosition{Coords: activity.Coordinates{Lat: *cfg.DefaultLat, Lng: *cfg.DefaultLng}}
		logger.Info("using fixed position", "lat", *cfg.DefaultLat, "lng", *cfg.DefaultLng)
	} else {
		browser := server.NewBrowserPosition()
		position = browser
		deps.Position = browser
	}

	ctrl := controller.New(
		persistence.New(store, cfg.StoreKey),
		server.NewBrokerView(broker),
		position,
		controller.WithLogger(logger.With("component", "controller")),
	)
	deps.Tracker = ctrl
	deps.Health = health.NewHandler(logger, map[string]health.Checker{
		cfg.StoreDriver: store,
		"controller": health.CheckFunc(func(ctx context.Context) error {
			_, err := ctrl.Snapshot(ctx)
			return err
		}),
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, deps)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := ctrl.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

type checkedStore interface {
	blob.Store
	blob.Checker
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (checkedStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; activities are lost on restart")
		return blob.NewMemory(), func() {}, nil

	case config.DriverFile:
		files, err := blob.NewFile(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file store", "dir", cfg.DataDir)
		return files, func() {}, nil

	case config.DriverRedis:
		rdb, err := blob.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to redis")
		return blob.NewRedis(rdb, cfg.RedisPrefix), func() { rdb.Close() }, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pinging postgres: %w", err)
		}
		pg, err := blob.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return pg, pool.Close, nil

	default:
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		if err := migrations.Run(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath)
		return blob.NewSQLite(db), func() { db.Close() }, nil
	}
}
