// Package resolver turns an agent's email tool call into rendered template
// text. It owns the template, recipient and session stores.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"voice-gateway/internal/models"
	"voice-gateway/internal/render"
	"voice-gateway/internal/store"
	"voice-gateway/pkg/logger"
	pkgmodels "voice-gateway/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrMissingRequiredParameter = errors.New("missing required parameter")

// MissingParametersError names every required parameter absent after merging
type MissingParametersError struct {
	TemplateID string
	Fields     []string
}

func (e *MissingParametersError) Error() string {
	return fmt.Sprintf("template %s: missing required parameters: %s", e.TemplateID, strings.Join(e.Fields, ", "))
}

func (e *MissingParametersError) Is(target error) bool {
	return target == ErrMissingRequiredParameter
}

type Resolver struct {
	templates  *store.TemplateStore
	recipients *store.RecipientStore
	sessions   *store.SessionStore
	log        *zap.Logger
}

func New(templates *store.TemplateStore, recipients *store.RecipientStore, sessions *store.SessionStore, log *zap.Logger) *Resolver {
	return &Resolver{
		templates:  templates,
		recipients: recipients,
		sessions:   sessions,
		log:        logger.OrNop(log),
	}
}

func (r *Resolver) Templates() *store.TemplateStore   { return r.templates }
func (r *Resolver) Recipients() *store.RecipientStore { return r.recipients }
func (r *Resolver) Sessions() *store.SessionStore     { return r.sessions }

type identity struct {
	name        string
	email       string
	phone       string
	senderEmail string
	variables   map[string]string
	source      string
}

// Resolve renders templateID for the customer behind payload. It has no side
// effects; dispatching the result is up to the caller.
func (r *Resolver) Resolve(templateID string, payload pkgmodels.EmailWebhookPayload) (models.RenderedMessage, error) {
	tmpl, err := r.templates.Get(templateID)
	if err != nil {
		return models.RenderedMessage{}, err
	}

	who, err := r.identify(payload)
	if err != nil {
		return models.RenderedMessage{}, err
	}

	values := merge(payload.Fields, who)

	var missing []string
	for _, name := range tmpl.RequiredParameters() {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return models.RenderedMessage{}, &MissingParametersError{TemplateID: tmpl.ID, Fields: missing}
	}

	subject := render.Fill(tmpl.SubjectTemplate, values)
	body := render.Fill(tmpl.BodyTemplate, values)
	unresolved := union(subject.Unresolved, body.Unresolved)
	if len(unresolved) > 0 {
		r.log.Warn("Unresolved template placeholders left as-is",
			zap.String("template_id", tmpl.ID),
			zap.Strings("placeholders", unresolved),
			zap.String("source", who.source),
		)
	}

	sender := who.senderEmail
	if sender == "" {
		sender = tmpl.SenderEmail
	}

	return models.RenderedMessage{
		ID:          uuid.NewString(),
		TemplateID:  tmpl.ID,
		Subject:     subject.Text,
		Body:        body.Text,
		To:          who.email,
		SenderEmail: sender,
		Source:      who.source,
		Unresolved:  unresolved,
	}, nil
}

// identify prefers the single-call session, then the batch recipient
func (r *Resolver) identify(payload pkgmodels.EmailWebhookPayload) (identity, error) {
	if payload.ConversationID != "" {
		session, err := r.sessions.Lookup(payload.ConversationID)
		if err == nil {
			info := session.CustomerInfo
			return identity{
				name:        info.Name,
				email:       info.Email,
				phone:       info.Phone,
				senderEmail: info.SenderEmail,
				variables:   info.Variables,
				source:      models.SourceSession,
			}, nil
		}
		if !errors.Is(err, store.ErrSessionNotFound) {
			return identity{}, err
		}
	}

	if payload.CalledNumber != "" {
		recipient, err := r.recipients.Lookup(payload.CalledNumber)
		if err == nil {
			return identity{
				name:      recipient.Name,
				email:     recipient.Email,
				phone:     recipient.PhoneNumber,
				variables: recipient.DynamicVariables,
				source:    models.SourceBatch,
			}, nil
		}
		if !errors.Is(err, store.ErrRecipientNotFound) {
			return identity{}, err
		}
	}

	return identity{}, fmt.Errorf("%w: conversation %q, called number %q",
		store.ErrRecipientNotFound, payload.ConversationID, payload.CalledNumber)
}

// merge layers, lowest first: identity variables, identity fields, agent fields.
// Blank values never enter the mapping.
func merge(fields map[string]string, who identity) map[string]string {
	values := make(map[string]string, len(fields)+len(who.variables)+5)
	set := func(k, v string) {
		if strings.TrimSpace(v) != "" {
			values[k] = v
		}
	}

	for k, v := range who.variables {
		set(k, v)
	}

	set("name", who.name)
	set("customer_name", who.name)
	set("email", who.email)
	set("customer_email", who.email)
	set("phone", who.phone)

	for k, v := range fields {
		set(k, v)
	}
	return values
}

func union(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, v := range b {
		found := false
		for _, existing := range out {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
