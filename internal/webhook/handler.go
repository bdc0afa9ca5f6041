// Package webhook serves the email tool the voice agent calls mid-conversation.
package webhook

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"voice-gateway/internal/mailer"
	"voice-gateway/internal/metrics"
	"voice-gateway/internal/resolver"
	"voice-gateway/internal/store"
	"voice-gateway/internal/ws"
	"voice-gateway/pkg/logger"
	"voice-gateway/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Resolver *resolver.Resolver
	Sender   mailer.Sender
	Metrics  *metrics.Metrics
	Hub      *ws.Hub
	log      *zap.Logger
}

func NewHandler(r *resolver.Resolver, sender mailer.Sender, m *metrics.Metrics, hub *ws.Hub, log *zap.Logger) *Handler {
	return &Handler{
		Resolver: r,
		Sender:   sender,
		Metrics:  m,
		Hub:      hub,
		log:      logger.OrNop(log),
	}
}

// HandleEmail always answers 200 with a WebhookResponse. The agent reads the
// data field back to the caller, so failures are reported in the body.
func (h *Handler) HandleEmail(c *gin.Context) {
	templateID := c.Param("templateId")

	var payload models.EmailWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Warn("Error binding email webhook body", zap.String("template_id", templateID), zap.Error(err))
		h.Metrics.RecordResolution(metrics.ResultBadRequest, 0)
		c.JSON(http.StatusOK, models.WebhookResponse{Success: false, Data: "Invalid request body", Error: err.Error()})
		return
	}

	log := h.log.With(
		zap.String("template_id", templateID),
		zap.String("conversation_id", payload.ConversationID),
		zap.String("called_number", payload.CalledNumber),
		zap.String("agent_id", payload.AgentID),
	)

	start := time.Now()
	msg, err := h.Resolver.Resolve(templateID, payload)
	elapsed := time.Since(start)
	if err != nil {
		result, data := describe(err, templateID, payload)
		log.Warn("Email webhook could not be resolved", zap.String("result", result), zap.Error(err))
		h.Metrics.RecordResolution(result, elapsed)
		h.Hub.BroadcastEvent(ws.EventEmailFailed, gin.H{"template_id": templateID, "reason": data})
		c.JSON(http.StatusOK, models.WebhookResponse{Success: false, Data: data})
		return
	}

	if h.Sender == nil {
		h.Metrics.RecordResolution(metrics.ResultResolved, elapsed)
		h.Hub.BroadcastEvent(ws.EventEmailResolved, msg)
		c.JSON(http.StatusOK, models.WebhookResponse{Success: true, Data: "Email prepared for " + msg.To})
		return
	}

	if err := h.Sender.Send(msg); err != nil {
		log.Error("Failed to send email", zap.String("message_id", msg.ID), zap.Error(err))
		h.Metrics.RecordResolution(metrics.ResultDeliveryFailed, elapsed)
		h.Hub.BroadcastEvent(ws.EventEmailFailed, gin.H{"template_id": templateID, "message_id": msg.ID, "reason": err.Error()})
		c.JSON(http.StatusOK, models.WebhookResponse{Success: false, Data: "Failed to send email: " + err.Error()})
		return
	}

	log.Info("Email sent", zap.String("message_id", msg.ID), zap.String("to", msg.To), zap.String("source", msg.Source))
	h.Metrics.RecordResolution(metrics.ResultSent, elapsed)
	h.Hub.BroadcastEvent(ws.EventEmailResolved, msg)
	c.JSON(http.StatusOK, models.WebhookResponse{Success: true, Data: "Email sent successfully to " + msg.To})
}

// describe maps a resolve error to a metrics result and a sentence the agent can say
func describe(err error, templateID string, payload models.EmailWebhookPayload) (string, string) {
	var missing *resolver.MissingParametersError
	switch {
	case errors.Is(err, store.ErrTemplateNotFound):
		return metrics.ResultTemplateNotFound, "Email template not found: " + templateID
	case errors.Is(err, store.ErrRecipientNotFound):
		who := payload.ConversationID
		if who == "" {
			who = payload.CalledNumber
		}
		return metrics.ResultNoRecipient, fmt.Sprintf("No customer info found for %s. Please register the recipient first.", who)
	case errors.As(err, &missing):
		return metrics.ResultMissingParams, "Missing required parameters: " + strings.Join(missing.Fields, ", ")
	default:
		return metrics.ResultDeliveryFailed, "Error sending email: " + err.Error()
	}
}
