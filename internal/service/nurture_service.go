// internal/service/nurture_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/havenpath/outreach-backend/internal/campaign"
	"github.com/havenpath/outreach-backend/internal/chat"
	appErrors "github.com/havenpath/outreach-backend/internal/errors"
	"github.com/havenpath/outreach-backend/internal/mailer"
	"github.com/havenpath/outreach-backend/internal/model"
	"github.com/havenpath/outreach-backend/internal/quota"
	"github.com/havenpath/outreach-backend/internal/repository"
	"github.com/havenpath/outreach-backend/internal/scheduler"
	"github.com/havenpath/outreach-backend/internal/scoring"
)

// Task types dispatched through the scheduler.
const (
	TaskCampaignSweep = "campaign_sweep"
	TaskEmailRetry    = "email_retry"
	TaskSessionSweep  = "session_sweep"
	TaskDailyReport   = "daily_report"
	TaskWeeklyReport  = "weekly_report"
	TaskCleanup       = "task_cleanup"
)

// emailRetryPayload re-describes a failed send so it can be replayed later.
// The message is re-rendered from the catalog at retry time rather than
// frozen here, so template edits apply to retries too.
type emailRetryPayload struct {
	LeadID     string
	Campaign   campaign.CampaignType
	TemplateID string
}

// NurtureService runs the outreach pipeline: scoring, sequencing, quota
// admission, sending, and the scheduler handlers that keep it all moving.
type NurtureService struct {
	Leads        repository.LeadRepositoryInterface
	Interactions repository.InteractionRepositoryInterface
	Catalog      *campaign.Catalog
	Sequencer    *campaign.Sequencer
	Quota        *quota.Manager
	Scheduler    *scheduler.Scheduler
	Sessions     *chat.Manager
	Mailer       mailer.Mailer
	Log          *zap.SugaredLogger

	// SendPause spaces out transport calls within one sweep. Zero in tests.
	SendPause       time.Duration
	SessionTimeout  time.Duration
	ReportRecipient string

	// Now overrides the clock for the scheduler handlers; nil means
	// time.Now. Operations that already take an explicit now ignore it.
	Now func() time.Time

	mu sync.Mutex // serializes sweeps

	statsMu     sync.Mutex
	sentTotal   int
	failedTotal int
}

func (s *NurtureService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RegisterSchedulerJobs wires the recurring outreach work and retry policies
// into the scheduler. Call once before the scheduler starts ticking.
func (s *NurtureService) RegisterSchedulerJobs(sweepInterval time.Duration) {
	if sweepInterval <= 0 {
		sweepInterval = 10 * time.Minute
	}

	s.Scheduler.SetPolicy(TaskCampaignSweep, scheduler.RetryPolicy{MaxAttempts: 2, BackoffDelay: time.Minute})
	s.Scheduler.SetPolicy(TaskEmailRetry, scheduler.RetryPolicy{MaxAttempts: 3, BackoffDelay: 5 * time.Minute})
	s.Scheduler.SetPolicy(TaskSessionSweep, scheduler.RetryPolicy{MaxAttempts: 1})
	s.Scheduler.SetPolicy(TaskDailyReport, scheduler.RetryPolicy{MaxAttempts: 2, BackoffDelay: 10 * time.Minute})
	s.Scheduler.SetPolicy(TaskWeeklyReport, scheduler.RetryPolicy{MaxAttempts: 2, BackoffDelay: 10 * time.Minute})
	s.Scheduler.SetPolicy(TaskCleanup, scheduler.RetryPolicy{MaxAttempts: 1})

	s.Scheduler.RegisterHandler(TaskCampaignSweep, s.handleCampaignSweep)
	s.Scheduler.RegisterHandler(TaskEmailRetry, s.handleEmailRetry)
	s.Scheduler.RegisterHandler(TaskSessionSweep, s.handleSessionSweep)
	s.Scheduler.RegisterHandler(TaskDailyReport, s.handleDailyReport)
	s.Scheduler.RegisterHandler(TaskWeeklyReport, s.handleWeeklyReport)
	s.Scheduler.RegisterHandler(TaskCleanup, s.handleCleanup)

	s.Scheduler.AddRecurring(scheduler.Recurring{Type: TaskCampaignSweep, Interval: sweepInterval, Priority: scheduler.PriorityHigh})
	s.Scheduler.AddRecurring(scheduler.Recurring{Type: TaskSessionSweep, Interval: 5 * time.Minute, Priority: scheduler.PriorityLow})
	s.Scheduler.AddRecurring(scheduler.Recurring{Type: TaskDailyReport, AtHour: 18, Priority: scheduler.PriorityMedium})
	s.Scheduler.AddRecurring(scheduler.Recurring{Type: TaskWeeklyReport, AtHour: 8, AtWeekday: time.Monday, Weekly: true, Priority: scheduler.PriorityLow})
	s.Scheduler.AddRecurring(scheduler.Recurring{Type: TaskCleanup, AtHour: 3, Priority: scheduler.PriorityLow})
}

// candidate is one lead the sweep considers sending to.
type candidate struct {
	lead         model.Lead
	interactions []model.Interaction
	result       scoring.Result
	due          *campaign.DueStep
	rank         int
}

// ProcessDueCampaigns runs one full sweep: list active leads, score them,
// find each one's due step, rank by score plus step boost, then send in rank
// order subject to quota. It returns how many sends it attempted. One lead
// failing never stops the sweep; only infrastructure errors (the listing
// query) propagate, so the scheduler can retry the whole sweep.
func (s *NurtureService) ProcessDueCampaigns(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.Leads.ListWithInteractions([]model.LeadStatus{
		model.LeadStatusNew, model.LeadStatusContacted, model.LeadStatusNurturing,
	}, true)
	if err != nil {
		return 0, fmt.Errorf("list leads for sweep: %w", err)
	}

	candidates := []candidate{}
	for i := range rows {
		lead := rows[i].Lead
		if lead.Email == "" {
			s.Log.Warnw("skipping lead without email", "lead_id", lead.ID, "source", lead.Source)
			continue
		}
		due := s.Sequencer.Next(&lead, rows[i].Interactions, now)
		if due == nil {
			continue
		}
		result := scoring.Score(&lead, rows[i].Interactions, now)
		candidates = append(candidates, candidate{
			lead:         lead,
			interactions: rows[i].Interactions,
			result:       result,
			due:          due,
			rank:         result.Score + due.Step.ScoreBoost,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].rank > candidates[j].rank
	})

	processed := 0
	for i := range candidates {
		c := &candidates[i]
		if !s.Quota.Admit(c.due.Step.Priority, c.result.Priority, now) {
			s.Log.Debugw("quota declined send",
				"lead_id", c.lead.ID, "template_id", c.due.Step.TemplateID,
				"step_priority", c.due.Step.Priority, "lead_priority", c.result.Priority)
			continue
		}
		if s.Scheduler.HasPending(TaskEmailRetry, retryKey(c.lead.ID, c.due.Step.TemplateID)) {
			// a failed attempt is already queued for this step
			continue
		}

		processed++
		if err := s.sendStep(ctx, &c.lead, c.due, now); err != nil {
			s.Log.Warnw("send failed, scheduling retry",
				"lead_id", c.lead.ID, "template_id", c.due.Step.TemplateID, "error", err)
			s.Scheduler.Schedule(TaskEmailRetry, emailRetryPayload{
				LeadID:     c.lead.ID,
				Campaign:   c.due.Campaign,
				TemplateID: c.due.Step.TemplateID,
			}, scheduler.Options{
				Priority:  scheduler.PriorityHigh,
				DedupeKey: retryKey(c.lead.ID, c.due.Step.TemplateID),
			})
		}

		if s.SendPause > 0 && i < len(candidates)-1 {
			time.Sleep(s.SendPause)
		}
	}

	if processed > 0 {
		s.Log.Infow("campaign sweep finished",
			"leads_considered", len(rows), "candidates", len(candidates), "sends", processed)
	}
	return processed, nil
}

// sendStep renders and sends one campaign step, records the interaction,
// consumes quota, and moves a brand-new lead into nurturing.
func (s *NurtureService) sendStep(ctx context.Context, lead *model.Lead, due *campaign.DueStep, now time.Time) error {
	if lead.Email == "" {
		return appErrors.NewMissingEmail(lead.ID)
	}

	data := mailer.LeadData(lead)
	msg := mailer.Message{
		To:      lead.Email,
		Subject: mailer.Render(due.Step.Template.Subject, data),
		HTML:    mailer.Render(due.Step.Template.HTML, data),
		Text:    mailer.Render(due.Step.Template.Text, data),
		Headers: map[string]string{
			"X-Lead-ID":     lead.ID,
			"X-Template-ID": due.Step.TemplateID,
		},
	}

	receipt, err := s.Mailer.Send(ctx, msg)
	if err != nil {
		return err
	}

	rec := &model.Interaction{
		LeadID:     lead.ID,
		Type:       model.InteractionEmailSent,
		TemplateID: due.Step.TemplateID,
		Subject:    msg.Subject,
		DayOffset:  due.Step.DayOffset,
		MessageID:  receipt.MessageID,
		CreatedAt:  now,
	}
	if err := s.Interactions.Create(rec); err != nil {
		// The mail is out; losing the record would let the sequencer send
		// this template again next sweep. Loud log, nothing else to do.
		s.Log.Errorw("send succeeded but interaction insert failed",
			"lead_id", lead.ID, "template_id", due.Step.TemplateID, "error", err)
	}

	s.Quota.RecordSend(now)
	s.statsMu.Lock()
	s.sentTotal++
	s.statsMu.Unlock()

	if lead.Status == model.LeadStatusNew {
		if err := s.Leads.UpdateStatus(lead.ID, model.LeadStatusNurturing); err != nil {
			s.Log.Warnw("failed to advance lead status", "lead_id", lead.ID, "error", err)
		}
	}

	s.Log.Infow("campaign email sent",
		"lead_id", lead.ID, "campaign", due.Campaign, "template_id", due.Step.TemplateID,
		"day_offset", due.Step.DayOffset, "message_id", receipt.MessageID)
	return nil
}

func retryKey(leadID, templateID string) string {
	return leadID + "|" + templateID
}

// ====================== Scheduler handlers ======================

func (s *NurtureService) handleCampaignSweep(ctx context.Context, _ *scheduler.Task) error {
	_, err := s.ProcessDueCampaigns(ctx, s.now())
	return err
}

// handleEmailRetry replays one failed send. Every run re-validates against
// the current world: the lead may be gone, opted out, or already covered by
// a send that succeeded after the failure was recorded.
func (s *NurtureService) handleEmailRetry(ctx context.Context, task *scheduler.Task) error {
	payload, ok := task.Payload.(emailRetryPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", task.Payload)
	}

	lead, err := s.Leads.GetByID(payload.LeadID)
	if err != nil {
		var notFound *appErrors.ErrLeadNotFound
		if errors.As(err, &notFound) {
			return nil // lead deleted, nothing to retry
		}
		return err
	}
	if lead.OptedOut || lead.Email == "" {
		return nil
	}

	history, err := s.Interactions.ListByLead(payload.LeadID)
	if err != nil {
		return err
	}
	if campaign.AlreadySent(history, payload.TemplateID) {
		return nil
	}

	step, ok := s.Catalog.StepByTemplate(payload.Campaign, payload.TemplateID)
	if !ok {
		s.Log.Warnw("retry references template no longer in catalog",
			"lead_id", payload.LeadID, "template_id", payload.TemplateID)
		return nil
	}

	now := s.now()
	// Re-check only the hard caps; admission rules were already satisfied
	// when the sweep first picked this send.
	if !s.Quota.CheckDailyLimit(now) || !s.Quota.CheckHourlyLimit(now) {
		return fmt.Errorf("quota exhausted, retry postponed")
	}

	err = s.sendStep(ctx, lead, &campaign.DueStep{Campaign: payload.Campaign, Step: step}, now)
	if err != nil && task.Attempts >= task.MaxAttempts {
		s.statsMu.Lock()
		s.failedTotal++
		s.statsMu.Unlock()
	}
	return err
}

func (s *NurtureService) handleSessionSweep(_ context.Context, _ *scheduler.Task) error {
	timeout := s.SessionTimeout
	if timeout <= 0 {
		timeout = chat.DefaultSessionTimeout
	}
	removed := s.Sessions.SweepExpired(s.now(), timeout)
	if removed > 0 {
		s.Log.Infow("expired chat sessions swept", "removed", removed, "active", s.Sessions.Active())
	}
	return nil
}

func (s *NurtureService) handleDailyReport(ctx context.Context, _ *scheduler.Task) error {
	now := s.now()
	return s.sendReport(ctx, "Daily outreach report", now.Add(-24*time.Hour), now)
}

func (s *NurtureService) handleWeeklyReport(ctx context.Context, _ *scheduler.Task) error {
	now := s.now()
	return s.sendReport(ctx, "Weekly outreach report", now.Add(-7*24*time.Hour), now)
}

func (s *NurtureService) handleCleanup(_ context.Context, _ *scheduler.Task) error {
	removed := s.Scheduler.TrimCompleted()
	if removed > 0 {
		s.Log.Infow("old tasks trimmed", "removed", removed)
	}
	return nil
}

// sendReport assembles engagement counts for the window and mails them to
// the configured recipient. With no recipient the numbers still land in the
// log, which is all a single-operator deployment usually needs.
func (s *NurtureService) sendReport(ctx context.Context, title string, since, now time.Time) error {
	counts := map[string]int{}
	for _, t := range []model.InteractionType{
		model.InteractionEmailSent,
		model.InteractionEmailOpened,
		model.InteractionEmailClicked,
		model.InteractionEmailReplied,
		model.InteractionFormCompleted,
		model.InteractionSMSReceived,
		model.InteractionCallReceived,
		model.InteractionChatPromoted,
	} {
		n, err := s.Interactions.CountByTypeSince(t, since)
		if err != nil {
			return fmt.Errorf("count %s: %w", t, err)
		}
		counts[string(t)] = n
	}

	snap := s.Quota.Snapshot(now)
	s.Log.Infow(strings.ToLower(title),
		"since", since.Format(time.RFC3339),
		"sent", counts[string(model.InteractionEmailSent)],
		"opened", counts[string(model.InteractionEmailOpened)],
		"clicked", counts[string(model.InteractionEmailClicked)],
		"replied", counts[string(model.InteractionEmailReplied)],
		"forms", counts[string(model.InteractionFormCompleted)],
		"sms", counts[string(model.InteractionSMSReceived)],
		"calls", counts[string(model.InteractionCallReceived)],
		"chat_promotions", counts[string(model.InteractionChatPromoted)],
		"daily_quota_used", snap.DailySent)

	if s.ReportRecipient == "" {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s to %s\n\n", title, since.Format("Jan 2 15:04"), now.Format("Jan 2 15:04"))
	fmt.Fprintf(&b, "Emails sent:      %d\n", counts[string(model.InteractionEmailSent)])
	fmt.Fprintf(&b, "Opens:            %d\n", counts[string(model.InteractionEmailOpened)])
	fmt.Fprintf(&b, "Clicks:           %d\n", counts[string(model.InteractionEmailClicked)])
	fmt.Fprintf(&b, "Replies:          %d\n", counts[string(model.InteractionEmailReplied)])
	fmt.Fprintf(&b, "Forms completed:  %d\n", counts[string(model.InteractionFormCompleted)])
	fmt.Fprintf(&b, "SMS received:     %d\n", counts[string(model.InteractionSMSReceived)])
	fmt.Fprintf(&b, "Calls received:   %d\n", counts[string(model.InteractionCallReceived)])
	fmt.Fprintf(&b, "Chat promotions:  %d\n", counts[string(model.InteractionChatPromoted)])
	fmt.Fprintf(&b, "\nDaily quota used: %d (%d remaining)\n", snap.DailySent, snap.RemainingToday)

	_, err := s.Mailer.Send(ctx, mailer.Message{
		To:      s.ReportRecipient,
		Subject: fmt.Sprintf("%s - %s", title, now.Format("Jan 2")),
		Text:    b.String(),
	})
	if err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

// ====================== Stats ======================

// Stats is the operational snapshot served at /api/stats.
type Stats struct {
	Sent              int `json:"sent"`
	Failed            int `json:"failed"`
	DailySent         int `json:"daily_sent"`
	RemainingToday    int `json:"remaining_today"`
	RemainingThisHour int `json:"remaining_this_hour"`
	ActiveSessions    int `json:"active_sessions"`
	PendingRetries    int `json:"pending_retries"`

	Tasks scheduler.Stats `json:"tasks"`
}

func (s *NurtureService) Stats() Stats {
	now := s.now()
	snap := s.Quota.Snapshot(now)

	s.statsMu.Lock()
	sent, failed := s.sentTotal, s.failedTotal
	s.statsMu.Unlock()

	return Stats{
		Sent:              sent,
		Failed:            failed,
		DailySent:         snap.DailySent,
		RemainingToday:    snap.RemainingToday,
		RemainingThisHour: snap.RemainingThisHour,
		ActiveSessions:    s.Sessions.Active(),
		PendingRetries:    s.Scheduler.PendingCount(TaskEmailRetry),
		Tasks:             s.Scheduler.Stats(),
	}
}
