package model

import "time"

// Engagement event types as they arrive from providers, before they are
// mapped onto interaction records.
const (
	EventEmailDelivered    = "email.delivered"
	EventEmailOpened       = "email.opened"
	EventEmailClicked      = "email.clicked"
	EventEmailBounced      = "email.bounced"
	EventEmailReplied      = "email.replied"
	EventEmailUnsubscribed = "email.unsubscribed"
	EventFormCompleted     = "form.completed"
	EventSMSReceived       = "sms.received"
	EventCallReceived      = "voice.call_received"
)

// EngagementEvent is the queue payload webhook handlers publish and the
// engagement service consumes. Exactly one of LeadID, Email, or Phone is
// normally set; the service resolves whichever is present.
type EngagementEvent struct {
	Type       string    `json:"type"`
	LeadID     string    `json:"lead_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	TemplateID string    `json:"template_id,omitempty"`
	MessageID  string    `json:"message_id,omitempty"`
	Body       string    `json:"body,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
