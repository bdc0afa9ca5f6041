package main

import (
	"net/http"

	"voice-gateway/internal/api"
	"voice-gateway/internal/metrics"
	"voice-gateway/internal/webhook"
	"voice-gateway/internal/ws"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	templates *api.TemplateHandler
	batch     *api.BatchHandler
	sessions  *api.SessionHandler
	webhook   *webhook.Handler
	hub       *ws.Hub
	metrics   *metrics.Metrics
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func setupRouter(h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())
	if h.metrics != nil {
		r.Use(h.metrics.Middleware())
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			h.hub.ServeWs(c.Writer, c.Request)
		})
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/email-templates", h.templates.CreateTemplate)
		v1.GET("/email-templates", h.templates.ListTemplates)
		v1.GET("/email-templates/:templateId", h.templates.GetTemplate)
		v1.DELETE("/email-templates/:templateId", h.templates.DeleteTemplate)
		v1.POST("/email-templates/:templateId/preview", h.templates.PreviewTemplate)

		v1.POST("/batch-calling/recipients", h.batch.RegisterRecipients)
		v1.GET("/batch-calling/recipients", h.batch.ListJobs)
		v1.GET("/batch-calling/recipients/:phone", h.batch.LookupRecipient)
		v1.DELETE("/batch-calling/:jobId/recipients", h.batch.ClearJob)

		v1.POST("/sessions", h.sessions.StoreSession)
		v1.GET("/sessions", h.sessions.ListSessions)
		v1.GET("/sessions/:conversationId", h.sessions.GetSession)
		v1.DELETE("/sessions/:conversationId", h.sessions.DeleteSession)

		// Agent webhook routes; the singular path is kept for tools registered by older deployments
		v1.POST("/webhooks/email/:templateId", h.webhook.HandleEmail)
		v1.POST("/webhook/email/:templateId", h.webhook.HandleEmail)
	}

	return r
}
