package models

import (
	"time"
)

// Identity sources reported on a rendered message
const (
	SourceSession = "session"
	SourceBatch   = "batch"
)

// TemplateParameter declares a custom field the calling agent must or may supply
type TemplateParameter struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// Template represents an email template with {{placeholder}} tokens
type Template struct {
	ID              string              `json:"template_id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	SubjectTemplate string              `json:"subject_template"`
	BodyTemplate    string              `json:"body_template"`
	Parameters      []TemplateParameter `json:"parameters"`
	ToolID          string              `json:"tool_id,omitempty"`
	SenderEmail     string              `json:"sender_email,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// Clone returns a deep copy so stored templates are never shared with callers
func (t Template) Clone() Template {
	out := t
	if t.Parameters != nil {
		out.Parameters = make([]TemplateParameter, len(t.Parameters))
		copy(out.Parameters, t.Parameters)
	}
	return out
}

// RequiredParameters returns the names of parameters marked required, in declaration order
func (t Template) RequiredParameters() []string {
	var names []string
	for _, p := range t.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// RecipientContext is the identity bundle registered for one batch call recipient
type RecipientContext struct {
	PhoneNumber      string            `json:"phone_number"`
	Name             string            `json:"name,omitempty"`
	Email            string            `json:"email,omitempty"`
	DynamicVariables map[string]string `json:"dynamic_variables,omitempty"`
	BatchJobID       string            `json:"batch_job_id"`
	RegisteredAt     time.Time         `json:"registered_at"`
}

// Clone returns a copy with its own variables map
func (r RecipientContext) Clone() RecipientContext {
	out := r
	out.DynamicVariables = cloneVars(r.DynamicVariables)
	return out
}

// CustomerInfo is the identity supplied when a single outbound call is placed
type CustomerInfo struct {
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
	SenderEmail string            `json:"sender_email,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
}

// CustomerSession maps a conversation to the customer being called
type CustomerSession struct {
	ConversationID string       `json:"conversation_id"`
	CustomerInfo   CustomerInfo `json:"customer_info"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Clone returns a copy with its own variables map
func (s CustomerSession) Clone() CustomerSession {
	out := s
	out.CustomerInfo.Variables = cloneVars(s.CustomerInfo.Variables)
	return out
}

// BatchJobSummary describes one registered batch job
type BatchJobSummary struct {
	JobID          string    `json:"job_id"`
	RecipientCount int       `json:"recipient_count"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// RenderedMessage is the output of resolving a template for a live call
type RenderedMessage struct {
	ID          string   `json:"id"`
	TemplateID  string   `json:"template_id"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	To          string   `json:"to,omitempty"`
	SenderEmail string   `json:"sender_email,omitempty"`
	Source      string   `json:"source"`
	Unresolved  []string `json:"unresolved,omitempty"`
}

func cloneVars(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
