// Package voice registers email templates as webhook tools on the
// conversational voice platform.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-gateway/internal/config"
	"voice-gateway/internal/models"
)

const toolsEndpoint = "/convai/tools"

type Client struct {
	BaseURL        string
	APIKey         string
	WebhookBaseURL string
	HTTP           *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:        strings.TrimRight(cfg.VoiceAPIURL, "/"),
		APIKey:         cfg.VoiceAPIKey,
		WebhookBaseURL: strings.TrimRight(cfg.WebhookBaseURL, "/"),
		HTTP:           &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Tool Structures ---

type ToolRequest struct {
	ToolConfig ToolConfig `json:"tool_config"`
}

type ToolConfig struct {
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	APISchema   APISchema `json:"api_schema"`
}

type APISchema struct {
	URL               string     `json:"url"`
	Method            string     `json:"method"`
	RequestBodySchema BodySchema `json:"request_body_schema"`
}

type BodySchema struct {
	Type       string                 `json:"type"`
	Properties map[string]PropertyObj `json:"properties"`
	Required   []string               `json:"required"`
}

// PropertyObj carries either a description or a platform dynamic variable, never both
type PropertyObj struct {
	Type            string `json:"type"`
	Description     string `json:"description,omitempty"`
	DynamicVariable string `json:"dynamic_variable,omitempty"`
}

type toolResponse struct {
	ID     string `json:"id"`
	ToolID string `json:"tool_id"`
}

// WebhookURL is where the platform calls back for a template
func (c *Client) WebhookURL(templateID string) string {
	return fmt.Sprintf("%s/webhooks/email/%s", c.WebhookBaseURL, templateID)
}

// BuildToolRequest describes tmpl as a webhook tool. The identity keys are
// bound to platform system variables so the agent never has to supply them.
func (c *Client) BuildToolRequest(tmpl models.Template) ToolRequest {
	schema := BodySchema{
		Type:       "object",
		Properties: map[string]PropertyObj{},
		Required:   []string{},
	}

	system := []struct{ name, variable string }{
		{"conversation_id", "system__conversation_id"},
		{"agent_id", "system__agent_id"},
		{"called_number", "system__called_number"},
	}
	for _, s := range system {
		schema.Properties[s.name] = PropertyObj{Type: "string", DynamicVariable: s.variable}
		schema.Required = append(schema.Required, s.name)
	}

	for _, p := range tmpl.Parameters {
		schema.Properties[p.Name] = PropertyObj{Type: "string", Description: p.Description}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}

	return ToolRequest{ToolConfig: ToolConfig{
		Type:        "webhook",
		Name:        tmpl.ID,
		Description: tmpl.Description,
		APISchema: APISchema{
			URL:               c.WebhookURL(tmpl.ID),
			Method:            http.MethodPost,
			RequestBodySchema: schema,
		},
	}}
}

// --- Helper Functions ---

func (c *Client) sendRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("xi-api-key", c.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return respBody, fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}

	return respBody, nil
}

// --- Tool Methods ---

// CreateWebhookTool registers tmpl and returns the platform's tool id
func (c *Client) CreateWebhookTool(ctx context.Context, tmpl models.Template) (string, error) {
	respBody, err := c.sendRequest(ctx, http.MethodPost, c.BaseURL+toolsEndpoint, c.BuildToolRequest(tmpl))
	if err != nil {
		return "", err
	}

	var out toolResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode tool response: %w", err)
	}
	if out.ID != "" {
		return out.ID, nil
	}
	if out.ToolID != "" {
		return out.ToolID, nil
	}
	return "", fmt.Errorf("tool response has no id: %s", string(respBody))
}

func (c *Client) DeleteTool(ctx context.Context, toolID string) error {
	_, err := c.sendRequest(ctx, http.MethodDelete, c.BaseURL+toolsEndpoint+"/"+toolID, nil)
	return err
}
