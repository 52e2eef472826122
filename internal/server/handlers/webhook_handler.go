package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	service "github.com/mamadbah2/prodtrack/internal/service/whatsapp"
)

// WebhookHandler is the HTTP side of the WhatsApp channel: Meta's
// verification handshake, inbound declarations and operator pushes.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Verify echoes hub.challenge as plain text when the verify token matches.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("webhook verification rejected",
			zap.Error(err),
			zap.String("request_id", c.GetString(CtxRequestID)))
		c.String(http.StatusForbidden, "forbidden")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive acknowledges every decodable callback. Meta retries anything but
// 200, so a failing declaration is only logged; the sender already got a reply.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadBody(c, err)
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("webhook processing failed",
			zap.Error(err),
			zap.String("request_id", c.GetString(CtxRequestID)))
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes an admin message to a WhatsApp number. Input errors map
// like any API error; a failure on Meta's side is a 502.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}

	err := h.svc.SendOutbound(c.Request.Context(), req)
	switch {
	case err == nil:
		c.Status(http.StatusAccepted)
	case apperror.KindOf(err) != apperror.KindInternal:
		respondError(c, h.logger, "send message", err)
	default:
		h.logger.Error("whatsapp send failed",
			zap.Error(err),
			zap.String("to", req.To),
			zap.String("request_id", c.GetString(CtxRequestID)))
		c.AbortWithStatusJSON(http.StatusBadGateway, ErrorResponse{Error: "whatsapp delivery failed", Kind: "upstream"})
	}
}
