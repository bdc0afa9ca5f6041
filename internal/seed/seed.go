// Package seed loads templates from a YAML or JSON file at startup.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"voice-gateway/internal/catalog"
	"voice-gateway/internal/models"
	"voice-gateway/internal/store"
	"voice-gateway/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the seed document. JSON documents parse as well since JSON is YAML.
type File struct {
	WebhookBaseURL string          `yaml:"webhook_base_url"`
	Templates      []TemplateEntry `yaml:"templates"`
}

type TemplateEntry struct {
	Name            string                     `yaml:"name"`
	Description     string                     `yaml:"description"`
	SubjectTemplate string                     `yaml:"subject_template"`
	BodyTemplate    string                     `yaml:"body_template"`
	Parameters      []models.TemplateParameter `yaml:"parameters"`
	ToolID          string                     `yaml:"tool_id"`
	SenderEmail     string                     `yaml:"sender_email"`
}

func (e TemplateEntry) template() models.Template {
	return models.Template{
		Name:            e.Name,
		Description:     e.Description,
		SubjectTemplate: e.SubjectTemplate,
		BodyTemplate:    e.BodyTemplate,
		Parameters:      e.Parameters,
		ToolID:          e.ToolID,
		SenderEmail:     e.SenderEmail,
	}
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Load creates every template of f that is not stored yet and returns how many
// were created. Templates carrying a tool_id keep it; the rest get a new tool
// when the catalog has a tool client. A bad entry is logged and skipped.
func Load(ctx context.Context, c *catalog.Catalog, f *File, log *zap.Logger) int {
	log = logger.OrNop(log)
	loaded := 0

	for _, entry := range f.Templates {
		id := store.NormalizeTemplateID(entry.Name)
		if _, err := c.Templates().Get(id); err == nil {
			log.Info("Template already exists, skipping", zap.String("template_id", id))
			continue
		}

		if _, err := c.Create(ctx, entry.template()); err != nil {
			if errors.Is(err, store.ErrDuplicateTemplate) {
				continue
			}
			log.Error("Failed to load template", zap.String("name", entry.Name), zap.Error(err))
			continue
		}
		loaded++
	}

	log.Info("Loaded templates from seed file", zap.Int("count", loaded))
	return loaded
}
