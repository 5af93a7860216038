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

	"saas-subscription-backend/internal/config"
	"saas-subscription-backend/internal/domain/ports/adapter"
	"saas-subscription-backend/internal/infra/billing"
	"saas-subscription-backend/internal/infra/content"
	pg "saas-subscription-backend/internal/infra/db/postgres"
	"saas-subscription-backend/internal/infra/identity"
	"saas-subscription-backend/internal/infra/logging"
	"saas-subscription-backend/internal/infra/metrics"
	red "saas-subscription-backend/internal/infra/redis"
	"saas-subscription-backend/internal/infra/sched"
	"saas-subscription-backend/internal/infra/web"
	"saas-subscription-backend/internal/infra/worker"
	"saas-subscription-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (HMAC auth, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	subRepo := pg.NewSubscriptionRepo(pool)
	projectRepo := pg.NewProjectRepo(pool)

	// ---- Billing gateway ----
	gateway, err := billing.NewStripeGateway(&cfg.Billing)
	if err != nil {
		logger.Fatal().Err(err).Msg("stripe gateway")
	}

	// ---- Identity verifier ----
	var verifier adapter.IdentityVerifier
	if cfg.Runtime.Dev && cfg.Identity.DevHMAC != "" {
		verifier = identity.NewStaticVerifier(cfg.Identity.DevHMAC)
		logger.Warn().Msg("identity: HMAC dev verifier in use")
	} else {
		verifier, err = identity.NewOIDCVerifier(ctx, &cfg.Identity)
		if err != nil {
			logger.Fatal().Err(err).Msg("oidc verifier")
		}
	}

	// ---- Content source ----
	var articles adapter.ContentSource
	if cfg.Content.CMSBaseURL != "" {
		articles = content.NewCMSClient(&cfg.Content)
	} else {
		articles = content.NewStaticSource()
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, tm, logger)
	planUC := usecase.NewPlanUseCase(planRepo, subRepo, tm, logger)
	subUC := usecase.NewSubscriptionUseCase(userRepo, planRepo, subRepo, gateway, tm, logger)
	reconcileUC := usecase.NewReconcileUseCase(userRepo, planRepo, subRepo, gateway, tm, logger)
	projectUC := usecase.NewProjectUseCase(projectRepo, userRepo, tm, logger)
	contentUC := usecase.NewContentUseCase(articles, logger)

	// ---- Background reconciler ----
	workerPool := worker.NewPool(cfg.Scheduler.Workers)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	reconciler := sched.NewSubscriptionReconciler(reconcileUC, subRepo, workerPool, cfg.Scheduler.ReconcileInterval, cfg.Scheduler.ReconcileBatch, logger)
	go reconciler.Start(ctx)

	// ---- HTTP server ----
	srv := web.NewServer(&cfg.Server, userUC, planUC, subUC, projectUC, contentUC, reconcileUC, verifier, gateway, rateLimiter, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
