// Package server boots the process: database, cache, storage, the event bus,
// the WebSocket hub, and the HTTP and gRPC servers, all under one errgroup
// that shuts down on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/diner/app/routes"
	"github.com/shashiranjanraj/diner/config"
	"github.com/shashiranjanraj/diner/internal/kernel"
	"github.com/shashiranjanraj/diner/pkg/auth"
	"github.com/shashiranjanraj/diner/pkg/cache"
	"github.com/shashiranjanraj/diner/pkg/database"
	"github.com/shashiranjanraj/diner/pkg/event"
	"github.com/shashiranjanraj/diner/pkg/grpc"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/storage"
	"github.com/shashiranjanraj/diner/pkg/sumup"
	"github.com/shashiranjanraj/diner/pkg/ws"
)

const shutdownTimeout = 15 * time.Second

// Start runs the service until ctx is cancelled or a signal arrives.
func Start(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if uri := config.LogMongoURI(); uri != "" {
		mh, err := logger.NewMongoHandler(ctx, uri, config.LogMongoDB(), config.LogMongoCollection(), slog.LevelInfo)
		if err != nil {
			logger.Warn("logger: mongo sink disabled", "error", err)
		} else {
			defer mh.Close()
			logger.Replace(slog.New(logger.NewMultiHandler(logger.L.Handler(), mh)))
		}
	}

	db, err := database.Open(database.FromEnv())
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("database: close failed", "error", err)
		}
	}()

	store, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword())
	if err != nil {
		logger.Warn("cache: redis unavailable, menu caching disabled", "error", err)
	}
	defer store.Close()

	disks, err := storage.FromEnv(ctx)
	if err != nil {
		return err
	}
	var storageRoot string
	if local, ok := disks.Default().(*storage.LocalDisk); ok {
		storageRoot = local.Root()
	}

	sumupCfg := config.SumUp()
	provider := sumup.New(sumup.Config{
		BaseURL:       sumupCfg.BaseURL,
		ClientID:      sumupCfg.ClientID,
		ClientSecret:  sumupCfg.ClientSecret,
		MerchantEmail: sumupCfg.MerchantEmail,
		MerchantCode:  sumupCfg.MerchantCode,
		Currency:      sumupCfg.Currency,
	}, nil)

	bus := event.NewBus(256)
	hub := ws.NewHub()
	hub.SetCheckOrigin(sameOrigin(config.FrontendURL()))

	k, err := kernel.NewHTTPKernel(kernel.Options{
		Deps: routes.DepsFromConfig(routes.Deps{
			DB:       db,
			Tokens:   auth.NewIssuer(config.JWTSecret(), config.JWTTTL()),
			Cache:    store,
			Disk:     disks.Default(),
			Provider: provider,
			Bus:      bus,
			Hub:      hub,
		}),
		FrontendURL:     config.FrontendURL(),
		RateLimitMax:    config.RateLimitMax(),
		RateLimitWindow: config.RateLimitWindow(),
		StorageRoot:     storageRoot,
	})
	if err != nil {
		return err
	}
	defer k.Close()

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := grpc.New(func(ctx context.Context) error { return database.Ping(ctx, db) })
	lis, err := grpc.Listen(config.GRPCPort())
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", httpSrv.Addr, "loyalty_mode", config.LoyaltyMode())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error { return grpcSrv.Serve(lis) })
	g.Go(func() error { return k.Limiter().Run(gctx) })
	g.Go(func() error { return bus.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		grpcSrv.Stop()
		if err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// sameOrigin accepts WebSocket upgrades without an Origin header or from the
// storefront origin.
func sameOrigin(frontend string) func(r *http.Request) bool {
	want := strings.ToLower(strings.TrimRight(frontend, "/"))
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || want == "*" {
			return true
		}
		return strings.EqualFold(strings.TrimRight(origin, "/"), want)
	}
}
