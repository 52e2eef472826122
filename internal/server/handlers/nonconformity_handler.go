package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/service/nonconformity"
)

// NonConformityHandler exposes the 5M reconciliation of a planning record.
type NonConformityHandler struct {
	reconciler *nonconformity.Reconciler
	logger     *zap.Logger
}

func NewNonConformityHandler(reconciler *nonconformity.Reconciler, logger *zap.Logger) *NonConformityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NonConformityHandler{reconciler: reconciler, logger: logger}
}

// Reconcile creates, updates or deletes the report of the record in the path.
func (h *NonConformityHandler) Reconcile(c *gin.Context) {
	var in nonconformity.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadBody(c, err)
		return
	}

	res, err := h.reconciler.Reconcile(c.Request.Context(), keyFromPath(c), in)
	if err != nil {
		respondError(c, h.logger, "reconcile non-conformity", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *NonConformityHandler) Get(c *gin.Context) {
	report, err := h.reconciler.Get(c.Request.Context(), keyFromPath(c))
	if err != nil {
		respondError(c, h.logger, "get non-conformity", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *NonConformityHandler) Delete(c *gin.Context) {
	if err := h.reconciler.DeleteByCriteria(c.Request.Context(), keyFromPath(c)); err != nil {
		respondError(c, h.logger, "delete non-conformity", err)
		return
	}
	c.Status(http.StatusNoContent)
}
