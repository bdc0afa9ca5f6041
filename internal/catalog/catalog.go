// Package catalog creates and removes templates together with their
// voice platform webhook tools.
package catalog

import (
	"context"

	"voice-gateway/internal/metrics"
	"voice-gateway/internal/models"
	"voice-gateway/internal/render"
	"voice-gateway/internal/store"
	"voice-gateway/pkg/logger"

	"go.uber.org/zap"
)

// ToolClient is the subset of the voice client the catalog needs
type ToolClient interface {
	CreateWebhookTool(ctx context.Context, tmpl models.Template) (string, error)
	DeleteTool(ctx context.Context, toolID string) error
}

type Catalog struct {
	templates *store.TemplateStore
	// nil disables tool registration
	tools   ToolClient
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(templates *store.TemplateStore, tools ToolClient, m *metrics.Metrics, log *zap.Logger) *Catalog {
	return &Catalog{
		templates: templates,
		tools:     tools,
		metrics:   m,
		log:       logger.OrNop(log),
	}
}

func (c *Catalog) Templates() *store.TemplateStore { return c.templates }

// Create stores tmpl and registers it as a webhook tool unless it already
// carries a tool id. A nil parameter list is derived from the placeholders.
// Tool failures are logged; the template stays stored without a tool id.
func (c *Catalog) Create(ctx context.Context, tmpl models.Template) (models.Template, error) {
	if tmpl.Parameters == nil {
		tmpl.Parameters = render.ExtractParameters(tmpl.SubjectTemplate, tmpl.BodyTemplate)
	}

	created, err := c.templates.Create(tmpl)
	if err != nil {
		return models.Template{}, err
	}
	c.log.Info("Template created",
		zap.String("template_id", created.ID),
		zap.Int("parameters", len(created.Parameters)),
	)

	if created.ToolID != "" || c.tools == nil {
		return created, nil
	}

	toolID, err := c.tools.CreateWebhookTool(ctx, created)
	c.metrics.RecordToolOperation("create", err)
	if err != nil {
		c.log.Error("Failed to register webhook tool", zap.String("template_id", created.ID), zap.Error(err))
		return created, nil
	}
	if err := c.templates.SetToolID(created.ID, toolID); err != nil {
		// deleted concurrently; the tool is orphaned
		c.log.Warn("Template vanished before tool id was attached",
			zap.String("template_id", created.ID),
			zap.String("tool_id", toolID),
		)
		return created, nil
	}
	created.ToolID = toolID
	c.log.Info("Webhook tool registered", zap.String("template_id", created.ID), zap.String("tool_id", toolID))
	return created, nil
}

// Delete removes the template, then its tool on a best effort basis
func (c *Catalog) Delete(ctx context.Context, id string) (models.Template, error) {
	removed, err := c.templates.Delete(id)
	if err != nil {
		return models.Template{}, err
	}
	c.log.Info("Template deleted", zap.String("template_id", removed.ID))

	if removed.ToolID != "" && c.tools != nil {
		err := c.tools.DeleteTool(ctx, removed.ToolID)
		c.metrics.RecordToolOperation("delete", err)
		if err != nil {
			c.log.Warn("Failed to delete webhook tool",
				zap.String("template_id", removed.ID),
				zap.String("tool_id", removed.ToolID),
				zap.Error(err),
			)
		}
	}
	return removed, nil
}
