package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/rso-api/internal/handler"
	internalmiddleware "github.com/noah-isme/rso-api/internal/middleware"
	"github.com/noah-isme/rso-api/internal/models"
	"github.com/noah-isme/rso-api/pkg/config"
)

type routeDeps struct {
	tokens     internalmiddleware.TokenValidator
	membership *handler.MembershipHandler
	reports    *handler.ReportHandler
	rankings   *handler.RankingHandler
	metrics    *handler.MetricsHandler
	ready      func(ctx context.Context) error
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := deps.ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", deps.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admins := internalmiddleware.RequireRoles(models.RoleCentralAdmin, models.RoleDistrictAdmin, models.RoleRegionalAdmin)
	reviewers := internalmiddleware.RequireRoles(models.RoleCentralAdmin, models.RoleDistrictAdmin)
	central := internalmiddleware.RequireRoles(models.RoleCentralAdmin)

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(deps.tokens))

	units := api.Group("/units")
	units.POST("", admins, deps.membership.CreateUnit)
	units.PATCH("/:id/parents", admins, deps.membership.ReparentUnit)
	units.POST("/:id/members", admins, deps.membership.AssignMember)
	units.DELETE("/:id/members/:userId", admins, deps.membership.RemoveMember)
	units.GET("/:id/members", deps.membership.ListMembers)
	units.GET("/:id/members/count", deps.membership.MemberCount)
	units.POST("/:id/applications", deps.membership.Apply)
	units.GET("/:id/applications", admins, deps.membership.ListApplications)
	units.POST("/:id/applications/:applicationId/accept", admins, deps.membership.AcceptApplication)
	units.DELETE("/:id/applications/:applicationId", admins, deps.membership.RejectApplication)
	api.DELETE("/users/:userId/positions", central, deps.membership.ExpelUser)

	reports := api.Group("/reports")
	reports.POST("", deps.reports.Create)
	reports.GET("/:id", deps.reports.Get)
	reports.PUT("/:id", deps.reports.Update)
	reports.POST("/:id/send", deps.reports.Send)
	reports.POST("/:id/district-review", reviewers, deps.reports.DistrictReview)
	reports.POST("/:id/central-approve", central, deps.reports.CentralApprove)
	reports.POST("/:id/central-reject", central, deps.reports.CentralReject)
	reports.GET("/:id/history", deps.reports.History)

	competitions := api.Group("/competitions/:id")
	competitions.GET("/rankings", deps.rankings.List)
	competitions.POST("/rankings/recompute", central, deps.rankings.Recompute)
	competitions.POST("/scores/recompute", central, deps.rankings.RecomputeScores)

	api.GET("/system/metrics", central, deps.metrics.Summary)
}
