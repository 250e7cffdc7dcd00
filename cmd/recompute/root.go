package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/rso-api/internal/repository"
	"github.com/noah-isme/rso-api/internal/service"
	"github.com/noah-isme/rso-api/pkg/cache"
	"github.com/noah-isme/rso-api/pkg/config"
	"github.com/noah-isme/rso-api/pkg/database"
	"github.com/noah-isme/rso-api/pkg/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "recompute",
		Short:        "One-shot score and ranking sweeps for an external scheduler",
		SilenceUsage: true,
	}
	cmd.AddCommand(newScoresCmd(), newRankingsCmd())
	return cmd
}

type sweepRuntime struct {
	logger   *zap.Logger
	scoring  *service.ScoringService
	rankings *service.RankingService
	close    func()
}

func openRuntime() (*sweepRuntime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logr, err := logger.New(cfg, "recompute")
	if err != nil {
		return nil, err
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, err
	}
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	metricsSvc := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Ranking.CacheTTL, logr, cfg.Ranking.CacheEnabled)

	competitionRepo := repository.NewCompetitionRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cutoff := service.CutoffPolicy{Default: cfg.Competition.DefaultCutoff}

	rt := &sweepRuntime{
		logger: logr,
		scoring: service.NewScoringService(reportRepo, competitionRepo, logr,
			service.WithScoringCutoff(cutoff),
			service.WithScoringMetrics(metricsSvc),
		),
		rankings: service.NewRankingService(repository.NewRankingRepository(db), reportRepo, competitionRepo, cacheSvc, db, logr,
			service.WithRankingCutoff(cutoff),
			service.WithRankingMetrics(metricsSvc),
			service.WithRankingTTLs(cfg.Ranking.LockTTL, cfg.Ranking.CacheTTL),
			service.WithRankingLockWait(cfg.Ranking.LockWait),
		),
	}
	rt.close = func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		_ = db.Close()
		_ = logr.Sync()
	}
	return rt, nil
}
