package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/rso-api/api/swagger"
	"github.com/noah-isme/rso-api/internal/handler"
	internalmiddleware "github.com/noah-isme/rso-api/internal/middleware"
	"github.com/noah-isme/rso-api/internal/repository"
	"github.com/noah-isme/rso-api/internal/service"
	"github.com/noah-isme/rso-api/pkg/cache"
	"github.com/noah-isme/rso-api/pkg/config"
	"github.com/noah-isme/rso-api/pkg/database"
	"github.com/noah-isme/rso-api/pkg/jobs"
	"github.com/noah-isme/rso-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/rso-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rso-api/pkg/middleware/requestid"
)

// @title RSO Membership & Competition API
// @version 1.0.0
// @description Unit hierarchy membership, report verification and competition rankings.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Ranking.CacheTTL, logr, cfg.Ranking.CacheEnabled)

	unitRepo := repository.NewUnitRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	userRepo := repository.NewUserRepository(db)
	competitionRepo := repository.NewCompetitionRepository(db)
	reportRepo := repository.NewReportRepository(db)
	logRepo := repository.NewVerificationLogRepository(db)
	rankingRepo := repository.NewRankingRepository(db)

	cutoff := service.CutoffPolicy{Default: cfg.Competition.DefaultCutoff}

	membershipSvc := service.NewMembershipService(unitRepo, positionRepo, applicationRepo, db, validate, logr,
		service.WithBaseMemberTitle(cfg.Competition.BaseMemberTitle),
		service.WithUserDirectory(userRepo),
	)
	scoringSvc := service.NewScoringService(reportRepo, competitionRepo, logr,
		service.WithScoringCutoff(cutoff),
		service.WithScoringMetrics(metricsSvc),
	)
	rankingSvc := service.NewRankingService(rankingRepo, reportRepo, competitionRepo, cacheSvc, db, logr,
		service.WithRankingCutoff(cutoff),
		service.WithRankingMetrics(metricsSvc),
		service.WithRankingTTLs(cfg.Ranking.LockTTL, cfg.Ranking.CacheTTL),
		service.WithRankingLockWait(cfg.Ranking.LockWait),
	)

	rankingQueue := jobs.NewQueue("rankings", jobs.QueueConfig{
		Workers:    cfg.Ranking.WorkerConcurrency,
		MaxRetries: cfg.Ranking.WorkerRetries,
		Logger:     logr,
	})
	rankingQueue.Handle(service.RankingRecomputeJob, rankingSvc.HandleRecomputeJob)
	if cfg.Ranking.AsyncRecompute {
		rankingQueue.Start(ctx)
		defer rankingQueue.Stop()
	}

	reportSvc := service.NewReportService(reportRepo, logRepo, competitionRepo, unitRepo, scoringSvc, db, validate, logr,
		service.WithRankingTrigger(rankingSvc, rankingQueue, cfg.Ranking.AsyncRecompute),
	)
	tokens := service.NewTokenVerifier(cfg.JWT.Secret)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	registerRoutes(r, cfg, routeDeps{
		tokens:     tokens,
		membership: handler.NewMembershipHandler(membershipSvc),
		reports:    handler.NewReportHandler(reportSvc),
		rankings:   handler.NewRankingHandler(rankingSvc, scoringSvc, validate),
		metrics:    handler.NewMetricsHandler(metricsSvc),
		ready: func(c context.Context) error {
			return db.PingContext(c)
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
