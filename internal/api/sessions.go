package api

import (
	"net/http"

	"voice-gateway/internal/models"
	"voice-gateway/internal/store"
	"voice-gateway/internal/ws"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessions *store.SessionStore
	hub      *ws.Hub
}

func NewSessionHandler(sessions *store.SessionStore, hub *ws.Hub) *SessionHandler {
	return &SessionHandler{sessions: sessions, hub: hub}
}

type StoreSessionRequest struct {
	ConversationID string              `json:"conversation_id" binding:"required"`
	CustomerInfo   models.CustomerInfo `json:"customer_info"`
}

func (h *SessionHandler) StoreSession(c *gin.Context) {
	var req StoreSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.Store(req.ConversationID, req.CustomerInfo)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.BroadcastEvent(ws.EventSessionStored, gin.H{"conversation_id": session.ConversationID})
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	if sessions == nil {
		sessions = []models.CustomerSession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.Lookup(c.Param("conversationId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := c.Param("conversationId")
	h.sessions.Delete(id)

	h.hub.BroadcastEvent(ws.EventSessionDeleted, gin.H{"conversation_id": id})
	c.JSON(http.StatusOK, gin.H{"status": "Session removed", "conversation_id": id})
}
