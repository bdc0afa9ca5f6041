package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"voice-gateway/internal/metrics"
	imodels "voice-gateway/internal/models"
	"voice-gateway/internal/resolver"
	"voice-gateway/internal/store"
	"voice-gateway/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	err  error
	sent []imodels.RenderedMessage
}

func (s *recordingSender) Send(msg imodels.RenderedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fixture struct {
	router  *gin.Engine
	sender  *recordingSender
	metrics *metrics.Metrics
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	templates := store.NewTemplateStore()
	recipients := store.NewRecipientStore()
	sessions := store.NewSessionStore(0)

	_, err := templates.Create(imodels.Template{
		ID:              "booking_confirmation",
		SubjectTemplate: "Your appointment on {{date}}",
		BodyTemplate:    "Dear {{name}}, your appointment is on {{date}} at {{time}}.",
		Parameters: []imodels.TemplateParameter{
			{Name: "date", Required: true},
			{Name: "time", Required: true},
		},
		SenderEmail: "clinic@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, recipients.RegisterBatch("job_1", []imodels.RecipientContext{
		{PhoneNumber: "+919911062767", Name: "Amar", Email: "amar@x.com"},
	}))

	m, err := metrics.New(metrics.Stores{})
	require.NoError(t, err)

	sender := &recordingSender{}
	h := NewHandler(resolver.New(templates, recipients, sessions, nil), sender, m, nil, nil)

	r := gin.New()
	r.POST("/api/v1/webhooks/email/:templateId", h.HandleEmail)
	return &fixture{router: r, sender: sender, metrics: m}
}

func (f *fixture) post(t *testing.T, templateID, body string) models.WebhookResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/email/"+templateID, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// assertResolution scrapes the registry for one counted outcome
func (f *fixture) assertResolution(t *testing.T, result string) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `email_webhook_resolutions_total{result="`+result+`"} 1`)
}

func TestHandleEmailSendsRenderedMessage(t *testing.T) {
	f := setup(t)

	resp := f.post(t, "booking_confirmation",
		`{"called_number":"+919911062767","agent_id":"agent_1","date":"Feb 5, 2026","time":"2:30 PM"}`)

	assert.True(t, resp.Success)
	assert.Equal(t, "Email sent successfully to amar@x.com", resp.Data)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "Dear Amar, your appointment is on Feb 5, 2026 at 2:30 PM.", msg.Body)
	assert.Equal(t, "Your appointment on Feb 5, 2026", msg.Subject)
	assert.Equal(t, "clinic@example.com", msg.SenderEmail)
	assert.Equal(t, imodels.SourceBatch, msg.Source)

	f.assertResolution(t, metrics.ResultSent)
}

func TestHandleEmailFailures(t *testing.T) {
	tests := []struct {
		name       string
		templateID string
		body       string
		data       string
		result     string
	}{
		{
			name:       "unknown template",
			templateID: "nope",
			body:       `{"called_number":"+919911062767"}`,
			data:       "Email template not found: nope",
			result:     metrics.ResultTemplateNotFound,
		},
		{
			name:       "unknown number",
			templateID: "booking_confirmation",
			body:       `{"called_number":"+10000000000","date":"d","time":"t"}`,
			data:       "No customer info found for +10000000000. Please register the recipient first.",
			result:     metrics.ResultNoRecipient,
		},
		{
			name:       "missing parameter",
			templateID: "booking_confirmation",
			body:       `{"called_number":"+919911062767","date":"Feb 5, 2026"}`,
			data:       "Missing required parameters: time",
			result:     metrics.ResultMissingParams,
		},
		{
			name:       "bad json",
			templateID: "booking_confirmation",
			body:       `{"called_number":`,
			data:       "Invalid request body",
			result:     metrics.ResultBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			resp := f.post(t, tt.templateID, tt.body)

			assert.False(t, resp.Success)
			assert.Equal(t, tt.data, resp.Data)
			assert.Empty(t, f.sender.sent)
			f.assertResolution(t, tt.result)
		})
	}
}

func TestHandleEmailDeliveryFailure(t *testing.T) {
	f := setup(t)
	f.sender.err = errors.New("smtp down")

	resp := f.post(t, "booking_confirmation",
		`{"called_number":"+919911062767","date":"Feb 5, 2026","time":"2:30 PM"}`)

	assert.False(t, resp.Success)
	assert.Equal(t, "Failed to send email: smtp down", resp.Data)
	f.assertResolution(t, metrics.ResultDeliveryFailed)
}

func TestHandleEmailWithoutSender(t *testing.T) {
	gin.SetMode(gin.TestMode)
	templates := store.NewTemplateStore()
	sessions := store.NewSessionStore(0)
	_, err := templates.Create(imodels.Template{ID: "hello", BodyTemplate: "Hi {{name}}"})
	require.NoError(t, err)
	_, err = sessions.Store("conv_1", imodels.CustomerInfo{Name: "Amar", Email: "amar@x.com"})
	require.NoError(t, err)

	h := NewHandler(resolver.New(templates, store.NewRecipientStore(), sessions, nil), nil, nil, nil, nil)
	r := gin.New()
	r.POST("/hook/:templateId", h.HandleEmail)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/hook/hello", bytes.NewBufferString(`{"conversationId":"conv_1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	var resp models.WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Email prepared for amar@x.com", resp.Data)
}
