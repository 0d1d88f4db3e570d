// internal/service/engagement_service.go
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/havenpath/outreach-backend/internal/errors"
	"github.com/havenpath/outreach-backend/internal/model"
	"github.com/havenpath/outreach-backend/internal/repository"
)

// optOutKeywords are the carrier-standard SMS opt-out words.
var optOutKeywords = []string{"STOP", "UNSUBSCRIBE", "CANCEL", "END", "QUIT"}

// EngagementService records provider engagement events against leads. Both
// the in-memory queue subscriber and the AMQP worker feed it, which is what
// lets webhook ingestion and interaction recording live in different
// processes.
type EngagementService struct {
	Leads        repository.LeadRepositoryInterface
	Interactions repository.InteractionRepositoryInterface
	Log          *zap.SugaredLogger

	Now func() time.Time
}

func (s *EngagementService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// HandleRaw decodes a queue payload and processes it. Malformed payloads are
// logged and dropped; retrying cannot fix them.
func (s *EngagementService) HandleRaw(body []byte) error {
	var ev model.EngagementEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.Log.Warnw("dropping malformed engagement payload", "error", err)
		return nil
	}
	return s.Handle(&ev)
}

// Handle resolves the event's lead and records the matching interaction.
// Returned errors are infrastructure failures and safe to retry; events that
// cannot ever succeed (unknown lead, unknown type) are logged and dropped.
func (s *EngagementService) Handle(ev *model.EngagementEvent) error {
	lead, err := s.resolveLead(ev)
	if err != nil {
		return err
	}

	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}

	switch ev.Type {
	case model.EventSMSReceived:
		return s.handleInboundSMS(lead, ev, occurred)
	case model.EventCallReceived:
		return s.handleInboundCall(lead, ev, occurred)
	case model.EventEmailUnsubscribed:
		return s.handleUnsubscribe(lead, ev, occurred)
	case model.EventEmailDelivered:
		return s.record(lead, ev, model.InteractionEmailDelivered, occurred, false)
	case model.EventEmailOpened:
		return s.record(lead, ev, model.InteractionEmailOpened, occurred, false)
	case model.EventEmailClicked:
		return s.record(lead, ev, model.InteractionEmailClicked, occurred, false)
	case model.EventEmailBounced:
		return s.handleBounce(lead, ev, occurred)
	case model.EventEmailReplied:
		return s.record(lead, ev, model.InteractionEmailReplied, occurred, true)
	case model.EventFormCompleted:
		return s.record(lead, ev, model.InteractionFormCompleted, occurred, true)
	default:
		s.Log.Warnw("dropping unknown engagement event type", "type", ev.Type)
		return nil
	}
}

// record writes the interaction; markContacted moves a brand-new lead to
// contacted, which replies and form completions earn.
func (s *EngagementService) record(lead *model.Lead, ev *model.EngagementEvent, t model.InteractionType, occurred time.Time, markContacted bool) error {
	if lead == nil {
		s.Log.Debugw("engagement event for unknown lead",
			"type", ev.Type, "email", ev.Email, "message_id", ev.MessageID)
		return nil
	}
	rec := &model.Interaction{
		LeadID:     lead.ID,
		Type:       t,
		TemplateID: ev.TemplateID,
		MessageID:  ev.MessageID,
		Body:       ev.Body,
		CreatedAt:  occurred,
	}
	if err := s.Interactions.Create(rec); err != nil {
		return fmt.Errorf("record %s: %w", t, err)
	}
	if markContacted && lead.Status == model.LeadStatusNew {
		if err := s.Leads.UpdateStatus(lead.ID, model.LeadStatusContacted); err != nil {
			s.Log.Warnw("failed to mark lead contacted", "lead_id", lead.ID, "error", err)
		}
	}
	s.Log.Debugw("engagement recorded", "lead_id", lead.ID, "type", t)
	return nil
}

func (s *EngagementService) handleInboundSMS(lead *model.Lead, ev *model.EngagementEvent, occurred time.Time) error {
	if isOptOutText(ev.Body) {
		if lead == nil {
			return nil
		}
		if err := s.Leads.SetOptedOut(lead.ID, true); err != nil {
			return fmt.Errorf("opt out lead: %w", err)
		}
		s.Log.Infow("lead opted out via sms", "lead_id", lead.ID)
		return nil
	}

	if lead == nil {
		created, err := s.createLeadFromInbound(ev, "sms_inbound", occurred)
		if err != nil {
			return err
		}
		lead = created
	}
	return s.record(lead, ev, model.InteractionSMSReceived, occurred, true)
}

func (s *EngagementService) handleInboundCall(lead *model.Lead, ev *model.EngagementEvent, occurred time.Time) error {
	if lead == nil {
		created, err := s.createLeadFromInbound(ev, "voice_call", occurred)
		if err != nil {
			return err
		}
		lead = created
	}
	return s.record(lead, ev, model.InteractionCallReceived, occurred, true)
}

func (s *EngagementService) handleUnsubscribe(lead *model.Lead, ev *model.EngagementEvent, occurred time.Time) error {
	if lead == nil {
		return nil
	}
	if err := s.Leads.SetOptedOut(lead.ID, true); err != nil {
		return fmt.Errorf("opt out lead: %w", err)
	}
	s.Log.Infow("lead unsubscribed", "lead_id", lead.ID)
	return s.record(lead, ev, model.InteractionEmailUnsubscribed, occurred, false)
}

func (s *EngagementService) handleBounce(lead *model.Lead, ev *model.EngagementEvent, occurred time.Time) error {
	if lead == nil {
		return nil
	}
	s.Log.Warnw("email bounced", "lead_id", lead.ID, "message_id", ev.MessageID)
	return s.record(lead, ev, model.InteractionEmailBounced, occurred, false)
}

// createLeadFromInbound captures a lead the engine has never seen: someone
// who called or texted first instead of filling the form.
func (s *EngagementService) createLeadFromInbound(ev *model.EngagementEvent, source string, occurred time.Time) (*model.Lead, error) {
	lead := &model.Lead{
		Phone:     ev.Phone,
		Email:     ev.Email,
		Source:    source,
		Notes:     strings.TrimSpace(ev.Body),
		Status:    model.LeadStatusNew,
		CreatedAt: occurred,
	}
	if err := s.Leads.Create(lead); err != nil {
		return nil, fmt.Errorf("create lead from %s: %w", source, err)
	}
	s.Log.Infow("lead captured from inbound contact",
		"lead_id", lead.ID, "source", source, "phone", ev.Phone)
	return lead, nil
}

// resolveLead finds the event's lead by id, then email, then phone. A nil
// lead with nil error means genuinely unknown, which each event type decides
// how to treat.
func (s *EngagementService) resolveLead(ev *model.EngagementEvent) (*model.Lead, error) {
	if ev.LeadID != "" {
		lead, err := s.Leads.GetByID(ev.LeadID)
		if err != nil {
			var notFound *appErrors.ErrLeadNotFound
			if errors.As(err, &notFound) {
				return nil, nil
			}
			return nil, err
		}
		return lead, nil
	}
	if ev.Email != "" {
		lead, err := s.Leads.GetByEmail(ev.Email)
		if err != nil || lead != nil {
			return lead, err
		}
	}
	if ev.Phone != "" {
		return s.Leads.GetByPhone(ev.Phone)
	}
	return nil, nil
}

func isOptOutText(body string) bool {
	msg := strings.ToUpper(strings.TrimSpace(body))
	for _, kw := range optOutKeywords {
		if msg == kw {
			return true
		}
	}
	return false
}
