package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/havenpath/outreach-backend/internal/campaign"
	"github.com/havenpath/outreach-backend/internal/chat"
	appErrors "github.com/havenpath/outreach-backend/internal/errors"
	"github.com/havenpath/outreach-backend/internal/mailer"
	"github.com/havenpath/outreach-backend/internal/model"
	"github.com/havenpath/outreach-backend/internal/quota"
	"github.com/havenpath/outreach-backend/internal/repository"
	"github.com/havenpath/outreach-backend/internal/scheduler"
	"github.com/havenpath/outreach-backend/internal/service"
)

// ====================== Mocks ======================

// memLeadRepo keeps leads in memory
type memLeadRepo struct {
	mu           sync.Mutex
	leads        map[string]*model.Lead
	order        []string
	interactions *memInteractionRepo
	failCreate   bool
	failList     bool
}

func newMemLeadRepo(interactions *memInteractionRepo) *memLeadRepo {
	return &memLeadRepo{leads: map[string]*model.Lead{}, interactions: interactions}
}

func (r *memLeadRepo) Create(l *model.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("insert failed")
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	if l.Status == "" {
		l.Status = model.LeadStatusNew
	}
	cp := *l
	r.leads[l.ID] = &cp
	r.order = append(r.order, l.ID)
	return nil
}

func (r *memLeadRepo) GetByID(id string) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, appErrors.NewLeadNotFound(id)
	}
	cp := *l
	return &cp, nil
}

func (r *memLeadRepo) GetByEmail(email string) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		l := r.leads[id]
		if l.Email != "" && strings.EqualFold(l.Email, email) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memLeadRepo) GetByPhone(phone string) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		l := r.leads[id]
		if l.Phone != "" && l.Phone == phone {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memLeadRepo) UpdateStatus(leadID string, status model.LeadStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[leadID]
	if !ok {
		return appErrors.NewLeadNotFound(leadID)
	}
	l.Status = status
	return nil
}

func (r *memLeadRepo) SetOptedOut(leadID string, optedOut bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[leadID]
	if !ok {
		return appErrors.NewLeadNotFound(leadID)
	}
	l.OptedOut = optedOut
	return nil
}

func (r *memLeadRepo) ListWithInteractions(statuses []model.LeadStatus, excludeOptedOut bool) ([]model.LeadWithInteractions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errors.New("db connection lost")
	}
	want := map[model.LeadStatus]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	out := []model.LeadWithInteractions{}
	for _, id := range r.order {
		l := r.leads[id]
		if !want[l.Status] || (excludeOptedOut && l.OptedOut) {
			continue
		}
		recs, _ := r.interactions.ListByLead(id)
		out = append(out, model.LeadWithInteractions{Lead: *l, Interactions: recs})
	}
	return out, nil
}

func (r *memLeadRepo) all() []model.Lead {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Lead{}
	for _, id := range r.order {
		out = append(out, *r.leads[id])
	}
	return out
}

var _ repository.LeadRepositoryInterface = (*memLeadRepo)(nil)

// memInteractionRepo keeps interactions in memory
type memInteractionRepo struct {
	mu   sync.Mutex
	recs []model.Interaction
}

func (r *memInteractionRepo) Create(rec *model.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	r.recs = append(r.recs, *rec)
	return nil
}

func (r *memInteractionRepo) ListByLead(leadID string) ([]model.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Interaction{}
	for _, rec := range r.recs {
		if rec.LeadID == leadID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memInteractionRepo) CountByTypeSince(t model.InteractionType, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.recs {
		if rec.Type == t && !rec.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *memInteractionRepo) byType(t model.InteractionType) []model.Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Interaction{}
	for _, rec := range r.recs {
		if rec.Type == t {
			out = append(out, rec)
		}
	}
	return out
}

var _ repository.InteractionRepositoryInterface = (*memInteractionRepo)(nil)

// mockMailer records sends and can fail on demand
type mockMailer struct {
	mu       sync.Mutex
	sent     []mailer.Message
	failures int
}

func (m *mockMailer) Send(_ context.Context, msg mailer.Message) (*mailer.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("451 temporary failure")
	}
	m.sent = append(m.sent, msg)
	return &mailer.Receipt{MessageID: fmt.Sprintf("mock-%d", len(m.sent))}, nil
}

func (m *mockMailer) failNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockMailer) lastSent() mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

// ====================== Fixture ======================

type nurtureFixture struct {
	svc   *service.NurtureService
	leads *memLeadRepo
	recs  *memInteractionRepo
	mail  *mockMailer
	sched *scheduler.Scheduler
	quota *quota.Manager
}

func newNurtureFixture(t *testing.T, quotaCfg quota.Config) *nurtureFixture {
	t.Helper()
	log := zap.NewNop().Sugar()
	recs := &memInteractionRepo{}
	leads := newMemLeadRepo(recs)
	mail := &mockMailer{}
	catalog := campaign.NewCatalog()
	qm := quota.NewManager(quotaCfg)
	sched := scheduler.New(log)

	svc := &service.NurtureService{
		Leads:        leads,
		Interactions: recs,
		Catalog:      catalog,
		Sequencer:    campaign.NewSequencer(catalog),
		Quota:        qm,
		Scheduler:    sched,
		Sessions:     chat.NewManager(),
		Mailer:       mail,
		Log:          log,
	}
	svc.RegisterSchedulerJobs(time.Hour)

	return &nurtureFixture{svc: svc, leads: leads, recs: recs, mail: mail, sched: sched, quota: qm}
}

// Monday 10:30, inside both business hours and the welcome send window.
var sweepNow = time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)

func newVeteranLead(now time.Time) *model.Lead {
	return &model.Lead{
		Name:      "Marcus Webb",
		Email:     "marcus@example.com",
		Veteran:   true,
		Status:    model.LeadStatusNew,
		CreatedAt: now.Add(-2 * time.Hour),
	}
}

// ====================== Sweep ======================

func TestSweepSendsDueStepOnce(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{})
	f.svc.Now = func() time.Time { return sweepNow }
	lead := newVeteranLead(sweepNow)
	require.NoError(t, f.leads.Create(lead))

	sent, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Equal(t, 1, f.mail.sentCount())
	msg := f.mail.lastSent()
	assert.Equal(t, "marcus@example.com", msg.To)
	assert.Equal(t, "Welcome Marcus - housing support for veterans", msg.Subject)
	assert.Contains(t, msg.Text, "Hi Marcus,")
	assert.Equal(t, lead.ID, msg.Headers["X-Lead-ID"])
	assert.Equal(t, "veteran_welcome", msg.Headers["X-Template-ID"])

	stored, err := f.leads.GetByID(lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusNurturing, stored.Status)

	recs, _ := f.recs.ListByLead(lead.ID)
	require.Len(t, recs, 1)
	assert.Equal(t, model.InteractionEmailSent, recs[0].Type)
	assert.Equal(t, "veteran_welcome", recs[0].TemplateID)
	assert.NotEmpty(t, recs[0].MessageID)

	// a second sweep in the same window sends nothing more
	sent, err = f.svc.ProcessDueCampaigns(context.Background(), sweepNow.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, f.mail.sentCount())
}

func TestSweepPrefersHighestRankedLead(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{MaxDaily: 1, MaxHourly: 1})

	cold := &model.Lead{
		Name: "Sam Ortiz", Email: "sam@example.com",
		Status: model.LeadStatusNew, CreatedAt: sweepNow.Add(-3 * time.Hour),
	}
	hot := &model.Lead{
		Name: "Marcus Webb", Email: "marcus@example.com",
		Veteran: true, CurrentlyHomeless: true, EmploymentStatus: model.EmploymentUnemployed,
		Status: model.LeadStatusNew, CreatedAt: sweepNow.Add(-2 * time.Hour),
	}
	require.NoError(t, f.leads.Create(cold))
	require.NoError(t, f.leads.Create(hot))

	sent, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Equal(t, 1, f.mail.sentCount())
	assert.Equal(t, "marcus@example.com", f.mail.lastSent().To)
}

func TestSweepQuotaDeclinesLowPriorityPastHalfBudget(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{MaxDaily: 4, MaxHourly: 100})
	now := time.Date(2025, 3, 20, 11, 0, 0, 0, time.UTC)

	lead := &model.Lead{
		Name: "Priya Shah", Email: "priya@example.com",
		Status: model.LeadStatusNurturing, CreatedAt: now.Add(-10 * 24 * time.Hour),
	}
	require.NoError(t, f.leads.Create(lead))
	for _, tmpl := range []string{"general_welcome", "general_programs"} {
		require.NoError(t, f.recs.Create(&model.Interaction{
			LeadID: lead.ID, Type: model.InteractionEmailSent,
			TemplateID: tmpl, CreatedAt: now.Add(-5 * 24 * time.Hour),
		}))
	}

	// half the daily budget is gone; the remaining follow-up is low priority
	f.quota.RecordSend(now)
	f.quota.RecordSend(now)

	sent, err := f.svc.ProcessDueCampaigns(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, f.mail.sentCount())

	// a fresh day clears the gate
	sent, err = f.svc.ProcessDueCampaigns(context.Background(), now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, "priya@example.com", f.mail.lastSent().To)
}

func TestSweepSkipsLeadsWithoutEmail(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{})
	lead := &model.Lead{
		Name: "Gene Hollis", Phone: "+15550100007",
		Status: model.LeadStatusNew, CreatedAt: sweepNow.Add(-time.Hour),
	}
	require.NoError(t, f.leads.Create(lead))

	sent, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)

	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, f.mail.sentCount())
}

func TestSweepExcludesOptedOutLeads(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{})
	lead := newVeteranLead(sweepNow)
	lead.OptedOut = true
	require.NoError(t, f.leads.Create(lead))

	sent, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)

	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, f.mail.sentCount())
}

func TestSweepPropagatesListFailure(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{})
	f.leads.failList = true

	_, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list leads for sweep")
}

// ====================== Retry ======================

func TestSendFailureSchedulesRetry(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{})
	f.svc.Now = func() time.Time { return sweepNow }
	lead := newVeteranLead(sweepNow)
	require.NoError(t, f.leads.Create(lead))
	retryKey := lead.ID + "|veteran_welcome"

	f.mail.failNext(1)

	sent, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "a failed attempt still counts as processed")

	assert.Equal(t, 0, f.mail.sentCount())
	assert.True(t, f.sched.HasPending(service.TaskEmailRetry, retryKey))
	// a failed send burns no quota and records nothing
	assert.Equal(t, 0, f.quota.Snapshot(sweepNow).DailySent)
	recs, _ := f.recs.ListByLead(lead.ID)
	assert.Empty(t, recs)
	stored, _ := f.leads.GetByID(lead.ID)
	assert.Equal(t, model.LeadStatusNew, stored.Status)

	// the next sweep leaves the step to the queued retry
	sent, err = f.svc.ProcessDueCampaigns(context.Background(), sweepNow.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	// the retry replays the send
	f.sched.Tick(context.Background(), time.Now().Add(time.Second))

	assert.Equal(t, 1, f.mail.sentCount())
	assert.False(t, f.sched.HasPending(service.TaskEmailRetry, retryKey))
	recs, _ = f.recs.ListByLead(lead.ID)
	require.Len(t, recs, 1)
	assert.Equal(t, model.InteractionEmailSent, recs[0].Type)
	stored, _ = f.leads.GetByID(lead.ID)
	assert.Equal(t, model.LeadStatusNurturing, stored.Status)
}

func TestRetryAbandonedWhenLeadOptsOut(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{})
	f.svc.Now = func() time.Time { return sweepNow }
	lead := newVeteranLead(sweepNow)
	require.NoError(t, f.leads.Create(lead))

	f.mail.failNext(1)
	_, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)
	require.NoError(t, err)
	require.True(t, f.sched.HasPending(service.TaskEmailRetry, lead.ID+"|veteran_welcome"))

	require.NoError(t, f.leads.SetOptedOut(lead.ID, true))
	f.sched.Tick(context.Background(), time.Now().Add(time.Second))

	assert.Equal(t, 0, f.mail.sentCount())
	assert.False(t, f.sched.HasPending(service.TaskEmailRetry, lead.ID+"|veteran_welcome"))
}

func TestRetrySkipsWhenStepAlreadySent(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{})
	f.svc.Now = func() time.Time { return sweepNow }
	lead := newVeteranLead(sweepNow)
	require.NoError(t, f.leads.Create(lead))

	f.mail.failNext(1)
	_, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)
	require.NoError(t, err)

	// the step went out through another path before the retry fired
	require.NoError(t, f.recs.Create(&model.Interaction{
		LeadID: lead.ID, Type: model.InteractionEmailSent,
		TemplateID: "veteran_welcome", CreatedAt: sweepNow,
	}))

	f.sched.Tick(context.Background(), time.Now().Add(time.Second))

	assert.Equal(t, 0, f.mail.sentCount())
	assert.False(t, f.sched.HasPending(service.TaskEmailRetry, lead.ID+"|veteran_welcome"))
}

func TestRetryPostponedWhileQuotaExhausted(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{MaxDaily: 2, MaxHourly: 100})
	f.svc.Now = func() time.Time { return sweepNow }
	lead := newVeteranLead(sweepNow)
	require.NoError(t, f.leads.Create(lead))

	f.mail.failNext(1)
	_, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)
	require.NoError(t, err)

	// the budget fills up before the retry fires
	f.quota.RecordSend(sweepNow)
	f.quota.RecordSend(sweepNow)

	f.sched.Tick(context.Background(), time.Now().Add(time.Second))

	assert.Equal(t, 0, f.mail.sentCount())
	assert.True(t, f.sched.HasPending(service.TaskEmailRetry, lead.ID+"|veteran_welcome"),
		"postponed, not abandoned")
}

// ====================== Reports and stats ======================

func TestDailyReportMailsRecipient(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{})
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	f.svc.Now = func() time.Time { return now }
	f.svc.ReportRecipient = "ops@havenpath.org"

	for i := 0; i < 2; i++ {
		require.NoError(t, f.recs.Create(&model.Interaction{
			LeadID: "lead-x", Type: model.InteractionEmailSent, CreatedAt: now.Add(-2 * time.Hour),
		}))
	}
	require.NoError(t, f.recs.Create(&model.Interaction{
		LeadID: "lead-x", Type: model.InteractionEmailOpened, CreatedAt: now.Add(-time.Hour),
	}))
	// outside the 24h window
	require.NoError(t, f.recs.Create(&model.Interaction{
		LeadID: "lead-x", Type: model.InteractionSMSReceived, CreatedAt: now.Add(-48 * time.Hour),
	}))

	f.sched.Schedule(service.TaskDailyReport, nil, scheduler.Options{At: time.Now()})
	f.sched.Tick(context.Background(), time.Now().Add(time.Second))

	require.Equal(t, 1, f.mail.sentCount())
	msg := f.mail.lastSent()
	assert.Equal(t, "ops@havenpath.org", msg.To)
	assert.Equal(t, "Daily outreach report - Mar 10", msg.Subject)
	assert.Contains(t, msg.Text, "Emails sent:      2")
	assert.Contains(t, msg.Text, "Opens:            1")
	assert.Contains(t, msg.Text, "SMS received:     0")
}

func TestStatsSnapshot(t *testing.T) {
	f := newNurtureFixture(t, quota.Config{MaxDaily: 10, MaxHourly: 5})
	f.svc.Now = func() time.Time { return sweepNow }
	require.NoError(t, f.leads.Create(newVeteranLead(sweepNow)))

	_, err := f.svc.ProcessDueCampaigns(context.Background(), sweepNow)
	require.NoError(t, err)

	st := f.svc.Stats()
	assert.Equal(t, 1, st.Sent)
	assert.Equal(t, 0, st.Failed)
	assert.Equal(t, 1, st.DailySent)
	assert.Equal(t, 9, st.RemainingToday)
	assert.Equal(t, 4, st.RemainingThisHour)
	assert.Equal(t, 0, st.ActiveSessions)
	assert.Equal(t, 0, st.PendingRetries)
}
