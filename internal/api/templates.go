package api

import (
	"net/http"

	"voice-gateway/internal/catalog"
	"voice-gateway/internal/models"
	"voice-gateway/internal/resolver"
	"voice-gateway/internal/ws"
	pkgmodels "voice-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	catalog  *catalog.Catalog
	resolver *resolver.Resolver
	hub      *ws.Hub
}

func NewTemplateHandler(c *catalog.Catalog, r *resolver.Resolver, hub *ws.Hub) *TemplateHandler {
	return &TemplateHandler{catalog: c, resolver: r, hub: hub}
}

// CreateTemplateRequest omitting parameters derives them from the
// placeholders; an empty list means none.
type CreateTemplateRequest struct {
	Name            string                     `json:"name" binding:"required"`
	Description     string                     `json:"description"`
	SubjectTemplate string                     `json:"subject_template"`
	BodyTemplate    string                     `json:"body_template" binding:"required"`
	Parameters      []models.TemplateParameter `json:"parameters"`
	SenderEmail     string                     `json:"sender_email"`
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tmpl, err := h.catalog.Create(c.Request.Context(), models.Template{
		Name:            req.Name,
		Description:     req.Description,
		SubjectTemplate: req.SubjectTemplate,
		BodyTemplate:    req.BodyTemplate,
		Parameters:      req.Parameters,
		SenderEmail:     req.SenderEmail,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.BroadcastEvent(ws.EventTemplateCreated, tmpl)
	c.JSON(http.StatusCreated, tmpl)
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates := h.catalog.Templates().List()
	if templates == nil {
		templates = []models.Template{}
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates, "count": len(templates)})
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	tmpl, err := h.catalog.Templates().Get(c.Param("templateId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	removed, err := h.catalog.Delete(c.Request.Context(), c.Param("templateId"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.BroadcastEvent(ws.EventTemplateDeleted, gin.H{"template_id": removed.ID})
	c.JSON(http.StatusOK, gin.H{"status": "Template deleted", "template_id": removed.ID})
}

// PreviewTemplate resolves a webhook payload without sending anything
func (h *TemplateHandler) PreviewTemplate(c *gin.Context) {
	var payload pkgmodels.EmailWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.resolver.Resolve(c.Param("templateId"), payload)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}
