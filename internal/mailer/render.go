package mailer

import (
	"strings"

	"github.com/havenpath/outreach-backend/internal/model"
)

// Render substitutes {placeholder} tokens in a template with lead data.
func Render(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// LeadData builds the placeholder set for a lead. A missing name renders as
// a friendly generic so templates never show raw tokens.
func LeadData(lead *model.Lead) map[string]string {
	first := firstName(lead.Name)
	if first == "" {
		first = "there"
	}
	name := lead.Name
	if name == "" {
		name = "friend"
	}
	return map[string]string{
		"first_name": first,
		"name":       name,
		"email":      lead.Email,
	}
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return ""
	}
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
