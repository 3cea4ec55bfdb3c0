package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/polkassembly/govauth"
	"github.com/polkassembly/govauth/httpapi"
	"github.com/polkassembly/govauth/internal/serverconfig"
	promexport "github.com/polkassembly/govauth/metrics/export/prometheus"
	"github.com/polkassembly/govauth/proxy"
	"github.com/polkassembly/govauth/store/postgres"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "configs/govauth.yaml", "path to the YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := serverconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg serverconfig.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	proxies := proxy.New(proxy.Config{
		Endpoints: cfg.Proxies,
		Logger:    logger.With(slog.String("component", "proxy")),
	})
	defer proxies.Close()

	engineCfg, err := cfg.Engine()
	if err != nil {
		return err
	}
	engine, err := govauth.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithIdentityStore(store).
		WithProxyLookup(proxies).
		WithNotifier(govauth.NewJSONWriterNotifier(os.Stdout)).
		WithLogger(logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	router := httpapi.NewRouter(engine, httpapi.Options{
		Logger:         logger,
		TrustForwarded: cfg.TrustForwarded,
	})
	router.Method(http.MethodGet, cfg.MetricsPath, promexport.NewCollector(engine).Handler())

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
