package model

import "time"

// InteractionType enumerates the engagement events recorded against a lead.
type InteractionType string

const (
	InteractionEmailSent         InteractionType = "email_sent"
	InteractionEmailDelivered    InteractionType = "email_delivered"
	InteractionEmailOpened       InteractionType = "email_opened"
	InteractionEmailClicked      InteractionType = "email_clicked"
	InteractionEmailBounced      InteractionType = "email_bounced"
	InteractionEmailReplied      InteractionType = "email_replied"
	InteractionEmailUnsubscribed InteractionType = "email_unsubscribed"
	InteractionFormCompleted     InteractionType = "form_completed"
	InteractionSMSReceived       InteractionType = "sms_received"
	InteractionCallReceived      InteractionType = "call_received"
	InteractionChatPromoted      InteractionType = "chat_promoted"
)

// Interaction is an append-only audit record tied to a lead. Rows of type
// email_sent double as the de-duplication source for the campaign sequencer,
// so they carry the template id and day offset of the step that produced them.
type Interaction struct {
	ID         string          `json:"id"`
	LeadID     string          `json:"lead_id"`
	Type       InteractionType `json:"type"`
	TemplateID string          `json:"template_id,omitempty"`
	Subject    string          `json:"subject,omitempty"`
	DayOffset  int             `json:"day_offset,omitempty"`
	MessageID  string          `json:"message_id,omitempty"`
	Body       string          `json:"body,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// LeadWithInteractions pairs a lead with its full interaction history, the
// shape the campaign sweep works from.
type LeadWithInteractions struct {
	Lead         Lead
	Interactions []Interaction
}
