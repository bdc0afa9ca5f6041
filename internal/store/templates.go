package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"voice-gateway/internal/models"
)

// TemplateStore holds email templates keyed by id, preserving insertion order.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]models.Template
	order     []string
	now       func() time.Time
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{
		templates: make(map[string]models.Template),
		now:       time.Now,
	}
}

// NormalizeTemplateID turns a template name into its id: "Booking Confirmation" -> "booking_confirmation"
func NormalizeTemplateID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "_")
	return strings.ReplaceAll(id, "-", "_")
}

// Create stores a new template. The id is derived from tmpl.ID, falling back
// to tmpl.Name. An existing id is rejected, never overwritten.
func (s *TemplateStore) Create(tmpl models.Template) (models.Template, error) {
	id := tmpl.ID
	if id == "" {
		id = tmpl.Name
	}
	id = NormalizeTemplateID(id)
	if id == "" {
		return models.Template{}, fmt.Errorf("%w: id is required", ErrInvalidTemplate)
	}
	if tmpl.BodyTemplate == "" {
		return models.Template{}, fmt.Errorf("%w: body_template is required", ErrInvalidTemplate)
	}
	seen := make(map[string]bool, len(tmpl.Parameters))
	for _, p := range tmpl.Parameters {
		if p.Name == "" {
			return models.Template{}, fmt.Errorf("%w: parameter name is required", ErrInvalidTemplate)
		}
		if seen[p.Name] {
			return models.Template{}, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidTemplate, p.Name)
		}
		seen[p.Name] = true
	}

	stored := tmpl.Clone()
	stored.ID = id
	if stored.Name == "" {
		stored.Name = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[id]; exists {
		return models.Template{}, fmt.Errorf("%w: %s", ErrDuplicateTemplate, id)
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}
	s.templates[id] = stored
	s.order = append(s.order, id)

	return stored.Clone(), nil
}

func (s *TemplateStore) Get(id string) (models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.templates[id]
	if !ok {
		return models.Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tmpl.Clone(), nil
}

// List returns all templates in insertion order
func (s *TemplateStore) List() []models.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Template, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.templates[id].Clone())
	}
	return out
}

// Delete removes a template. Deleting a missing id is an error.
func (s *TemplateStore) Delete(id string) (models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl, ok := s.templates[id]
	if !ok {
		return models.Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	delete(s.templates, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return tmpl, nil
}

// SetToolID records the voice platform tool registered for a template
func (s *TemplateStore) SetToolID(id, toolID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl, ok := s.templates[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	tmpl.ToolID = toolID
	s.templates[id] = tmpl
	return nil
}

func (s *TemplateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}
