// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subscription-billing/internal/config"
	"subscription-billing/internal/domain/model"
	pg "subscription-billing/internal/infra/db/postgres"
	"subscription-billing/internal/infra/logging"
	"subscription-billing/internal/infra/metrics"
	red "subscription-billing/internal/infra/redis"
	"subscription-billing/internal/infra/sched"
	"subscription-billing/internal/infra/web"
	"subscription-billing/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	idemStore := red.NewIdempotencyStore(redisClient, cfg.Idempotency.TTL())
	limiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	subRepo := pg.NewSubscriptionRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Plan (static reference data) ----
	pc := cfg.Billing.Plan
	plan, err := model.NewPlan(pc.ID, pc.Name, pc.Description, pc.Price, pc.Currency, pc.Interval, pc.Features)
	if err != nil {
		logger.Fatal().Err(err).Msg("billing.plan is invalid")
	}

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, tm, plan, cfg.Billing.CheckoutURL, logger)
	hookUC := usecase.NewWebhookUseCase(subRepo, cfg.Billing.Period(), logger)
	userUC := usecase.NewUserUseCase(userRepo, logger)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	srv := web.NewServer(subUC, hookUC, userUC, auth, idemStore, limiter, web.Options{
		LoginRateLimit:  cfg.Auth.LoginRateLimit,
		LoginRateWindow: cfg.Auth.LoginRateWindow(),
		RequestTimeout:  cfg.Server.RequestTimeout(),
	}, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Period-end worker ----
	worker := sched.NewPeriodEndWorker(cfg.Worker.PeriodEndInterval(), subUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
