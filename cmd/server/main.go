// Command shoplist-server starts the shopping-list HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/and161185/shoplist/internal/config"
	"github.com/and161185/shoplist/internal/migrate"
	"github.com/and161185/shoplist/internal/ordering"
	"github.com/and161185/shoplist/internal/repository"
	"github.com/and161185/shoplist/internal/repository/postgres"
	"github.com/and161185/shoplist/internal/repository/sqlite"
	grpcserver "github.com/and161185/shoplist/internal/server/grpc"
	httpserver "github.com/and161185/shoplist/internal/server/http"
	"github.com/and161185/shoplist/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// errTemplatePrinted stops start-up after -print-config.
var errTemplatePrinted = errors.New("config template printed")

// loadConfig reads the file/env configuration and lets explicitly set flags win.
func loadConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("shoplist-server", flag.ContinueOnError)
	path := fs.String("config", os.Getenv("SHOPLIST_CONFIG"), "YAML config file")
	addr := fs.String("addr", "", "HTTP listen address")
	healthAddr := fs.String("health-addr", "", "gRPC health listen address (empty disables)")
	driver := fs.String("driver", "", "storage driver: postgres | sqlite")
	dsn := fs.String("dsn", "", "PostgreSQL DSN or SQLite file path")
	strategy := fs.String("strategy", "", "ordering strategy: index | identity")
	lockTimeout := fs.Duration("lock-timeout", 0, "max wait for the store before 503")
	logLevel := fs.String("log-level", "", "log level")
	dev := fs.Bool("dev", false, "development logging")
	printTemplate := fs.Bool("print-config", false, "print an example config file and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *printTemplate {
		fmt.Print(config.DefaultTemplate())
		return nil, errTemplatePrinted
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.HTTP.Addr = *addr
		case "health-addr":
			cfg.GRPC.HealthAddr = *healthAddr
		case "driver":
			cfg.Storage.Driver = *driver
		case "dsn":
			cfg.Storage.DSN = *dsn
		case "strategy":
			cfg.Ordering.Strategy = *strategy
		case "lock-timeout":
			cfg.Ordering.LockTimeout = *lockTimeout
		case "log-level":
			cfg.Log.Level = *logLevel
		case "dev":
			cfg.Log.Development = *dev
		}
	})
	return cfg, cfg.Validate()
}

// openStore migrates the schema and opens the single store connection.
func openStore(ctx context.Context, cfg config.StorageConfig, col repository.OrderColumn) (repository.ItemStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if err := migrate.Up(ctx, cfg.DSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		return postgres.NewItemRepo(db, col), nil
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return sqlite.NewItemRepo(db, col), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// main parses configuration, runs migrations, and serves HTTP (plus optional gRPC health).
func main() {
	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, errTemplatePrinted) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("driver", cfg.Storage.Driver),
		zap.String("strategy", cfg.Ordering.Strategy),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	strategy, _ := ordering.ParseStrategy(cfg.Ordering.Strategy)
	store, err := openStore(ctx, cfg.Storage, strategy.Column())
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	engine, err := ordering.New(strategy, store)
	if err != nil {
		logger.Fatal("ordering engine", zap.Error(err))
	}
	items := service.NewItemService(store, engine, cfg.Ordering.LockTimeout)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpserver.New(items, logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		ErrorLog:     zap.NewStdLog(logger),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening (HTTP)", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var gs *grpc.Server
	if cfg.GRPC.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.HealthAddr)
		if err != nil {
			logger.Fatal("listen", zap.Error(err))
		}
		gs = grpcserver.New(items, logger)
		go func() {
			logger.Info("listening (gRPC health)", zap.String("addr", cfg.GRPC.HealthAddr))
			errCh <- gs.Serve(lis)
		}()
	}

	// Wait for stop
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		_ = store.Close()
		os.Exit(1)
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if gs != nil {
		done := make(chan struct{})
		go func() {
			gs.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-shCtx.Done():
			gs.Stop()
		}
	}

	logger.Info("shutdown complete")
}
