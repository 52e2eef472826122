package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/service/reporting"
)

// ReportArchive lists weekly reports archived by the report dispatcher.
type ReportArchive interface {
	ListWeeklyReports(ctx context.Context, week string, limit int64) ([]models.WeeklyReport, error)
}

// StatsHandler exposes production statistics and weekly reports.
type StatsHandler struct {
	stats      *reporting.Service
	dispatcher *reporting.Dispatcher
	archive    ReportArchive
	logger     *zap.Logger
}

// NewStatsHandler wires the statistics endpoints. archive may be nil when no
// report archive is configured.
func NewStatsHandler(stats *reporting.Service, dispatcher *reporting.Dispatcher, archive ReportArchive, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{stats: stats, dispatcher: dispatcher, archive: archive, logger: logger}
}

func (h *StatsHandler) LineWeek(c *gin.Context) {
	st, err := h.stats.LineWeekStats(c.Request.Context(), c.Param("week"), c.Param("line"))
	if err != nil {
		respondError(c, h.logger, "line week stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *StatsHandler) AverageLoss(c *gin.Context) {
	avg, err := h.stats.AverageReferenceLossPercent(c.Request.Context(), c.Param("week"), c.Param("line"))
	if err != nil {
		respondError(c, h.logger, "average reference loss", err)
		return
	}
	c.JSON(http.StatusOK, avg)
}

func (h *StatsHandler) WeekCauses(c *gin.Context) {
	st, err := h.stats.WeekCausesPercent(c.Request.Context(), c.Param("week"))
	if err != nil {
		respondError(c, h.logger, "week causes", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// LineCauses covers every week unless the week query parameter is set.
func (h *StatsHandler) LineCauses(c *gin.Context) {
	st, err := h.stats.LineCausesPercent(c.Request.Context(), c.Param("line"), c.Query("week"))
	if err != nil {
		respondError(c, h.logger, "line causes", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GenerateWeekly builds the weekly report and hands it to the configured sinks.
func (h *StatsHandler) GenerateWeekly(c *gin.Context) {
	delivery, err := h.dispatcher.DeliverWeeklyReport(c.Request.Context(), c.Param("week"))
	if err != nil {
		respondError(c, h.logger, "weekly report", err)
		return
	}
	c.JSON(http.StatusCreated, delivery)
}

// ListWeekly returns archived weekly reports, newest first.
func (h *StatsHandler) ListWeekly(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "report archive is not configured", Kind: "not_found"})
		return
	}

	limit := int64(20)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer", Kind: "validation"})
			return
		}
		limit = n
	}

	reports, err := h.archive.ListWeeklyReports(c.Request.Context(), c.Query("week"), limit)
	if err != nil {
		respondError(c, h.logger, "list weekly reports", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reports})
}
