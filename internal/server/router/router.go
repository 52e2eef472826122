package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by the router. Webhook may be nil
// when WhatsApp is not configured.
type Handlers struct {
	Planning      *handlers.PlanningHandler
	NonConformity *handlers.NonConformityHandler
	Stats         *handlers.StatsHandler
	Catalog       *handlers.CatalogHandler
	Webhook       *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
	}

	api := r.Group("/api/v1", identityMiddleware())
	admin := requireRole(RoleAdmin)
	writers := requireRole(RoleAdmin, RoleSupervisor)

	weeks := api.Group("/weeks")
	weeks.POST("", admin, h.Planning.InitWeek)
	weeks.GET("", h.Planning.ListWeeks)
	weeks.GET("/:week", h.Planning.GetWeek)
	weeks.DELETE("/:week", admin, h.Planning.DeleteWeek)

	plan := api.Group("/planning")
	plan.GET("", h.Planning.ListRecords)
	plan.POST("", admin, h.Planning.CreateRecord)

	record := plan.Group("/:week/:day/:line/:reference")
	record.GET("", h.Planning.GetRecord)
	record.PATCH("", admin, h.Planning.UpdateRecord)
	record.DELETE("", admin, h.Planning.DeleteRecord)
	record.PUT("/declaration", writers, h.Planning.Declare)
	record.PUT("/non-conformity", writers, h.NonConformity.Reconcile)
	record.GET("/non-conformity", h.NonConformity.Get)
	record.DELETE("/non-conformity", admin, h.NonConformity.Delete)

	stats := api.Group("/stats")
	stats.GET("/weeks/:week/lines/:line", h.Stats.LineWeek)
	stats.GET("/weeks/:week/lines/:line/average-loss", h.Stats.AverageLoss)
	stats.GET("/weeks/:week/causes", h.Stats.WeekCauses)
	stats.GET("/lines/:line/causes", h.Stats.LineCauses)

	catalog := api.Group("/catalog")
	catalog.GET("/pairs", h.Catalog.Pairs)
	catalog.GET("/lines/:line/references/:reference", h.Catalog.CycleTime)
	catalog.GET("/lines/:line/phases/:phase", h.Catalog.PhaseExists)

	api.POST("/reports/weekly/:week", admin, h.Stats.GenerateWeekly)
	api.GET("/reports/weekly", h.Stats.ListWeekly)

	if h.Webhook != nil {
		api.POST("/messages", admin, h.Webhook.SendMessage)
	}

	logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	return r
}
