package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/soheilhy/cmux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nyashahama/hazard-risk-engine/internal/api"
	"github.com/nyashahama/hazard-risk-engine/internal/config"
	"github.com/nyashahama/hazard-risk-engine/internal/email"
	"github.com/nyashahama/hazard-risk-engine/internal/engine"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
	"github.com/nyashahama/hazard-risk-engine/internal/worker"
)

const dbHealthInterval = 15 * time.Second

func serveCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the gRPC health service and the report workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}
}

func runServer(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// Root context cancelled by OS signal. Workers and listeners all respect it.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────────────
	pool, queries, err := openDB(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	// ── Store (atomic multi-step writes) ──────────────────────────────────────
	st := store.New(pool, queries)
	eng := engine.New(queries, st, logger)

	// ── Email ─────────────────────────────────────────────────────────────────
	var mailer email.Sender
	if cfg.ResendAPIKey != "" {
		mailer = email.NewResendClient(cfg.ResendAPIKey, email.DefaultResendURL, cfg.EmailFromAddr, cfg.EmailFromName, cfg.BaseURL)
		logger.Info("email: using Resend")
	} else {
		mailer = email.NewLogSender(logger)
		logger.Info("email: RESEND_API_KEY not set, notifications are logged only")
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	job := worker.NewJob(queries, st, eng, mailer, cfg.ReportNotifyEmail, logger)
	runner := worker.NewRunner(job, st, queries, worker.RunnerConfig{
		Workers:      cfg.WorkerCount,
		PollInterval: cfg.PollInterval,
		JobTimeout:   cfg.JobTimeout,
		MaxRetries:   cfg.MaxRetries,
	}, logger)

	// ── HTTP ──────────────────────────────────────────────────────────────────
	handler := api.NewServer(
		queries,
		eng,
		st,
		runner, // *Runner satisfies worker.Enqueuer
		api.Config{
			Env:            cfg.Env,
			RequestTimeout: cfg.RequestTimeout,
		},
		logger,
	)
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// ── gRPC health ───────────────────────────────────────────────────────────
	healthSrv := health.NewServer()
	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	// ── Listener ──────────────────────────────────────────────────────────────
	// One port: gRPC by content-type, everything else is HTTP/1.1.
	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	mux := cmux.New(lis)
	grpcL := mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := mux.Match(cmux.Any())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runner.Start(gctx)
		return nil
	})
	g.Go(func() error {
		watchDB(gctx, pool, healthSrv, logger)
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc health listening", "addr", lis.Addr().String())
		return ignoreClosed(grpcSrv.Serve(grpcL))
	})
	g.Go(func() error {
		logger.Info("server listening", "addr", lis.Addr().String())
		return ignoreClosed(srv.Serve(httpL))
	})
	g.Go(func() error {
		return ignoreClosed(mux.Serve())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		healthSrv.Shutdown()

		// Give in-flight HTTP requests up to 20 seconds to finish.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		grpcSrv.Stop()
		mux.Close()
		if err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// watchDB keeps the gRPC health status in step with database reachability.
func watchDB(ctx context.Context, pool *sql.DB, hs *health.Server, logger *slog.Logger) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.PingContext(pingCtx); err != nil {
			if ctx.Err() == nil {
				logger.Warn("health: database unreachable", "error", err)
			}
			hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			return
		}
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	}

	check()
	ticker := time.NewTicker(dbHealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func ignoreClosed(err error) error {
	switch {
	case err == nil,
		errors.Is(err, http.ErrServerClosed),
		errors.Is(err, grpc.ErrServerStopped),
		errors.Is(err, cmux.ErrListenerClosed),
		errors.Is(err, cmux.ErrServerClosed),
		errors.Is(err, net.ErrClosed):
		return nil
	}
	return err
}
