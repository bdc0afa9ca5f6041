package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voice-gateway/internal/catalog"
	"voice-gateway/internal/models"
	"voice-gateway/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSeed = `
webhook_base_url: https://hooks.example.com/api/v1
templates:
  - name: Booking Confirmation
    description: Sent after booking
    subject_template: "Your appointment on {{date}}"
    body_template: "Dear {{name}}, see you on {{date}} at {{time}}."
    parameters:
      - name: date
        description: Appointment date
        required: true
      - name: time
        description: Appointment time
        required: true
    tool_id: tool_existing
    sender_email: clinic@example.com
  - name: follow-up
    subject_template: "Thanks"
    body_template: "Hi {{name}}, how was {{service}}?"
`

const jsonSeed = `{
  "templates": [
    {"name": "Payment Reminder", "subject_template": "Due {{due_date}}", "body_template": "Pay by {{due_date}}"}
  ]
}`

type countingTools struct{ calls int }

func (c *countingTools) CreateWebhookTool(ctx context.Context, tmpl models.Template) (string, error) {
	c.calls++
	return "tool_new", nil
}

func (c *countingTools) DeleteTool(ctx context.Context, toolID string) error { return nil }

func TestParseYAML(t *testing.T) {
	f, err := Parse([]byte(yamlSeed))
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/api/v1", f.WebhookBaseURL)
	require.Len(t, f.Templates, 2)
	assert.Equal(t, "tool_existing", f.Templates[0].ToolID)
	assert.Len(t, f.Templates[0].Parameters, 2)
	assert.Nil(t, f.Templates[1].Parameters)
}

func TestParseJSON(t *testing.T) {
	f, err := Parse([]byte(jsonSeed))
	require.NoError(t, err)
	require.Len(t, f.Templates, 1)
	assert.Equal(t, "Payment Reminder", f.Templates[0].Name)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("templates: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	tools := &countingTools{}
	c := catalog.New(store.NewTemplateStore(), tools, nil, nil)

	f, err := Parse([]byte(yamlSeed))
	require.NoError(t, err)
	assert.Equal(t, 2, Load(context.Background(), c, f, nil))

	booking, err := c.Templates().Get("booking_confirmation")
	require.NoError(t, err)
	assert.Equal(t, "tool_existing", booking.ToolID)
	assert.Equal(t, "clinic@example.com", booking.SenderEmail)

	followUp, err := c.Templates().Get("follow_up")
	require.NoError(t, err)
	assert.Equal(t, "tool_new", followUp.ToolID)
	assert.Equal(t, []string{"service"}, followUp.RequiredParameters())

	// only follow-up needed a new tool
	assert.Equal(t, 1, tools.calls)

	// a second load skips what exists
	assert.Equal(t, 0, Load(context.Background(), c, f, nil))
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	c := catalog.New(store.NewTemplateStore(), nil, nil, nil)
	f := &File{Templates: []TemplateEntry{
		{Name: "empty body"},
		{Name: "ok", BodyTemplate: "hi"},
	}}
	assert.Equal(t, 1, Load(context.Background(), c, f, nil))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonSeed), 0o600))

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Templates, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
