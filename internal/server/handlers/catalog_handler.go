package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/repository"
)

// CatalogHandler exposes read-only catalog lookups.
type CatalogHandler struct {
	catalog repository.CatalogLookup
	logger  *zap.Logger
}

func NewCatalogHandler(catalog repository.CatalogLookup, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) Pairs(c *gin.Context) {
	pairs, err := h.catalog.Pairs(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "catalog pairs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pairs})
}

func (h *CatalogHandler) CycleTime(c *gin.Context) {
	line, reference := c.Param("line"), c.Param("reference")
	ct, err := h.catalog.CycleTime(c.Request.Context(), line, reference)
	if err != nil {
		respondError(c, h.logger, "catalog cycle time", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "reference": reference, "cycleTimeSeconds": ct})
}

// PhaseExists answers 200 in both cases; exists carries the outcome.
func (h *CatalogHandler) PhaseExists(c *gin.Context) {
	line, phase := c.Param("line"), c.Param("phase")
	ok, err := h.catalog.PhaseExists(c.Request.Context(), line, phase)
	if err != nil {
		respondError(c, h.logger, "catalog phase", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "phase": phase, "exists": ok})
}
