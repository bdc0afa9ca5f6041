package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// conversationIDKeys are the names the voice platform has used for the
// conversation id, in lookup order
var conversationIDKeys = []string{"conversation_id", "conversationId", "session_id", "call_id"}

const (
	calledNumberKey = "called_number"
	agentIDKey      = "agent_id"
)

// EmailWebhookPayload is the tool call body an agent sends to the email webhook.
// Anything besides the identity keys is a custom field for the template.
type EmailWebhookPayload struct {
	ConversationID string            `json:"conversation_id,omitempty"`
	CalledNumber   string            `json:"called_number,omitempty"`
	AgentID        string            `json:"agent_id,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// UnmarshalJSON reads a flat JSON object. Scalars become strings, nulls are
// dropped and nested values are kept as compact JSON.
func (p *EmailWebhookPayload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok, err := stringify(v)
		if err != nil {
			return err
		}
		if ok {
			values[k] = s
		}
	}

	*p = EmailWebhookPayload{}
	for _, k := range conversationIDKeys {
		if v := values[k]; v != "" && p.ConversationID == "" {
			p.ConversationID = v
		}
		delete(values, k)
	}
	p.CalledNumber = values[calledNumberKey]
	p.AgentID = values[agentIDKey]
	delete(values, calledNumberKey)
	delete(values, agentIDKey)

	if len(values) > 0 {
		p.Fields = values
	}
	return nil
}

func stringify(v interface{}) (string, bool, error) {
	switch val := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return val, true, nil
	case json.Number:
		return val.String(), true, nil
	case bool:
		return strconv.FormatBool(val), true, nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	}
}

// WebhookResponse is what the agent reads back after a tool call
type WebhookResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
