package mailer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/havenpath/outreach-backend/internal/config"
)

// Message is what the engine hands to the transport.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Headers map[string]string
}

// Receipt carries the provider-assigned id back for the audit trail, so
// delivery webhooks can be matched to the interaction that sent the mail.
type Receipt struct {
	MessageID string
}

// Mailer is the outbound email port.
type Mailer interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
}

// NewFromConfig picks the real transport when credentials are present and
// the simulated one otherwise, so a bare dev checkout still exercises the
// whole pipeline.
func NewFromConfig(cfg *config.Config, log *zap.SugaredLogger) Mailer {
	if cfg.MailConfigured() {
		return NewAPIMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom(), log)
	}
	log.Warnw("mail transport not configured, running in simulation mode")
	return &Simulated{log: log}
}

// Simulated stands in when transport credentials are missing. Sends are
// logged and acknowledged with a synthetic message id so the rest of the
// pipeline, quota included, behaves exactly as in production.
type Simulated struct {
	log *zap.SugaredLogger
}

func NewSimulated(log *zap.SugaredLogger) *Simulated {
	return &Simulated{log: log}
}

func (m *Simulated) Send(_ context.Context, msg Message) (*Receipt, error) {
	id := "sim-" + uuid.NewString()
	m.log.Infow("simulated email send", "to", msg.To, "subject", msg.Subject, "message_id", id)
	return &Receipt{MessageID: id}, nil
}

var _ Mailer = (*Simulated)(nil)
