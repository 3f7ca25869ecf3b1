package mailer

import (
	"fmt"
	"strings"
)

// EmailJob is the JSON payload put on the RabbitMQ queue. Either Template
// (with Data) or a prerendered Subject plus Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // welcome, password_changed, account_deactivated, health_alert
	Data     map[string]any `json:"data,omitempty"`
}

// Normalize trims the recipient and template name and backfills the template
// fields that default to the recipient address.
func (j *EmailJob) Normalize() {
	j.To = strings.TrimSpace(j.To)
	j.Template = strings.ToLower(strings.TrimSpace(j.Template))
	if j.Template == "" {
		return
	}
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	for _, k := range []string{"Email", "RecipientEmail"} {
		if v, ok := j.Data[k]; !ok || fmt.Sprint(v) == "" {
			j.Data[k] = j.To
		}
	}
}
