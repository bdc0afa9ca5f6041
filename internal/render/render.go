// Package render fills {{placeholder}} tokens in email templates.
package render

import (
	"io"
	"sort"
	"strings"

	"voice-gateway/internal/models"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

// IdentityFields are filled from the resolved customer, never asked of the agent
var IdentityFields = map[string]bool{
	"name":           true,
	"email":          true,
	"customer_name":  true,
	"customer_email": true,
	"phone":          true,
}

// Result is a filled template plus the tokens that had no value
type Result struct {
	Text       string
	Unresolved []string
}

// Fill replaces every {{token}} with values[token]. Tokens without a value,
// and malformed tokens, are written back unchanged.
func Fill(text string, values map[string]string) Result {
	var unresolved []string
	seen := map[string]bool{}

	out, _ := fasttemplate.ExecuteFuncStringWithErr(text, startTag, endTag, func(w io.Writer, tag string) (int, error) {
		key := strings.TrimSpace(tag)
		if isToken(key) {
			if v, ok := values[key]; ok {
				return w.Write([]byte(v))
			}
			if !seen[key] {
				seen[key] = true
				unresolved = append(unresolved, key)
			}
		}
		return w.Write([]byte(startTag + tag + endTag))
	})

	return Result{Text: out, Unresolved: unresolved}
}

// Placeholders lists the distinct token names in text, in order of first appearance
func Placeholders(text string) []string {
	var names []string
	seen := map[string]bool{}

	_, _ = fasttemplate.ExecuteFuncStringWithErr(text, startTag, endTag, func(w io.Writer, tag string) (int, error) {
		key := strings.TrimSpace(tag)
		if isToken(key) && !seen[key] {
			seen[key] = true
			names = append(names, key)
		}
		return 0, nil
	})
	return names
}

// ExtractParameters derives a required parameter for every non-identity
// placeholder of subject and body, sorted by name
func ExtractParameters(subject, body string) []models.TemplateParameter {
	found := map[string]bool{}
	for _, name := range append(Placeholders(subject), Placeholders(body)...) {
		if !IdentityFields[name] {
			found[name] = true
		}
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]models.TemplateParameter, 0, len(names))
	for _, name := range names {
		params = append(params, models.TemplateParameter{
			Name:        name,
			Description: "Value for " + name,
			Required:    true,
		})
	}
	return params
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
