package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogger/config"
	"blogger/handler"
	"blogger/poststore"
	"blogger/storage"
	"blogger/storage/file"
	"blogger/storage/memory"
	"blogger/storage/postgres"
	"blogger/storage/redis"
	"blogger/storage/sqlite"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the server fails. Returning instead
// of exiting lets the storage and logger shut down cleanly.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("blogger", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to the configuration file")
	storageDriver := fs.String("storage", "", "storage driver: memory, file, sqlite, redis or postgres")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *storageDriver != "" {
		cfg.Storage.Driver = *storageDriver
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid -storage: %w", err)
		}
	}

	logger := newLogger(cfg.Env)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	kv, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer kv.Close()
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	store := poststore.Open(ctx, kv,
		poststore.WithKey(cfg.Storage.Key),
		poststore.WithLogger(logger.Named("poststore")),
	)
	e := handler.NewRouter(&handler.Handler{Store: store}, logger.Named("http"))

	errCh := make(chan error, 1)
	go func() { errCh <- serve(e, cfg.Server, logger) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("failed to serve", zap.Error(err))
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == config.DevEnv {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func serve(e *echo.Echo, cfg config.Server, logger *zap.Logger) error {
	var err error
	if cfg.Address != "" {
		logger.Info("http server started", zap.String("address", cfg.Address))
		err = e.Start(cfg.Address)
	} else {
		// Cache certificates to avoid issues with rate limits (https://letsencrypt.org/docs/rate-limits)
		e.AutoTLSManager.Cache = autocert.DirCache(cfg.CertCacheDir)
		e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(cfg.TLSHost)
		e.Pre(middleware.HTTPSRedirect())
		logger.Info("https server started", zap.String("host", cfg.TLSHost))
		err = e.StartAutoTLS(":443")
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func openStorage(ctx context.Context, cfg config.Storage) (storage.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "file":
		return file.New(cfg.Dir)
	case "sqlite":
		return sqlite.New("file:" + cfg.SQLitePath + "?_pragma=busy_timeout(5000)")
	case "redis":
		return redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
	case "postgres":
		return postgres.New(ctx, cfg.PostgresDSN)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
