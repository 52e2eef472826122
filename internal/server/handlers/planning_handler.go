package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/service/planning"
)

// PlanningHandler exposes weeks and planning records.
type PlanningHandler struct {
	svc    *planning.Service
	logger *zap.Logger
}

// NewPlanningHandler constructs the planning HTTP adapter.
func NewPlanningHandler(svc *planning.Service, logger *zap.Logger) *PlanningHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningHandler{svc: svc, logger: logger}
}

// InitWeek creates a week and its zeroed planning grid.
func (h *PlanningHandler) InitWeek(c *gin.Context) {
	var in planning.InitWeekInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadBody(c, err)
		return
	}
	in.CreatedBy = c.GetString(CtxUserID)

	week, count, err := h.svc.InitWeek(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "init week", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"week": week, "records": count})
}

func (h *PlanningHandler) ListWeeks(c *gin.Context) {
	weeks, err := h.svc.ListWeeks(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list weeks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": weeks})
}

func (h *PlanningHandler) GetWeek(c *gin.Context) {
	week, err := h.svc.GetWeek(c.Request.Context(), c.Param("week"))
	if err != nil {
		respondError(c, h.logger, "get week", err)
		return
	}
	c.JSON(http.StatusOK, week)
}

// DeleteWeek removes a week with its records and reports.
func (h *PlanningHandler) DeleteWeek(c *gin.Context) {
	if err := h.svc.DeleteWeek(c.Request.Context(), c.Param("week")); err != nil {
		respondError(c, h.logger, "delete week", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRecords filters planning records with the week, day, line and reference query parameters.
func (h *PlanningHandler) ListRecords(c *gin.Context) {
	filter := models.PlanningFilter{
		Week:      c.Query("week"),
		Day:       models.Day(c.Query("day")),
		Line:      c.Query("line"),
		Reference: c.Query("reference"),
	}
	views, err := h.svc.ListRecords(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "list planning records", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "count": len(views)})
}

func (h *PlanningHandler) CreateRecord(c *gin.Context) {
	var in planning.CreateRecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadBody(c, err)
		return
	}

	rec, err := h.svc.CreateRecord(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "create planning record", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *PlanningHandler) GetRecord(c *gin.Context) {
	view, err := h.svc.GetRecord(c.Request.Context(), keyFromPath(c))
	if err != nil {
		respondError(c, h.logger, "get planning record", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateRecord applies an admin patch.
func (h *PlanningHandler) UpdateRecord(c *gin.Context) {
	var patch planning.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadBody(c, err)
		return
	}

	rec, err := h.svc.UpdateByCriteria(c.Request.Context(), keyFromPath(c), patch)
	if err != nil {
		respondError(c, h.logger, "update planning record", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Declare records the supervisor declaration of a record.
func (h *PlanningHandler) Declare(c *gin.Context) {
	var in planning.Declaration
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadBody(c, err)
		return
	}

	rec, err := h.svc.UpdateDeclaredProduction(c.Request.Context(), keyFromPath(c), in)
	if err != nil {
		respondError(c, h.logger, "declare production", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *PlanningHandler) DeleteRecord(c *gin.Context) {
	if err := h.svc.DeleteRecord(c.Request.Context(), keyFromPath(c)); err != nil {
		respondError(c, h.logger, "delete planning record", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func keyFromPath(c *gin.Context) models.PlanningKey {
	return models.PlanningKey{
		Week:      c.Param("week"),
		Day:       models.Day(c.Param("day")),
		Line:      c.Param("line"),
		Reference: c.Param("reference"),
	}
}
