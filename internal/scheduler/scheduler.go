package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler executes one task. A nil return completes the task; an error sends
// it through the retry policy.
type Handler func(ctx context.Context, task *Task) error

// RetryPolicy is the per-type retry configuration. BackoffDelay is a fixed
// wait between attempts, deliberately not exponential: the failure modes
// here (mail API hiccup, DB restart) clear on their own timescale and a
// bounded, predictable retry is easier to reason about on a 30s tick.
type RetryPolicy struct {
	MaxAttempts  int
	BackoffDelay time.Duration
}

// Recurring describes a self-rescheduling trigger. Either Interval is set,
// or AtHour names a fixed local hour (with AtWeekday when Weekly).
type Recurring struct {
	Type      string
	Interval  time.Duration
	AtHour    int
	AtWeekday time.Weekday
	Weekly    bool
	Priority  Priority
}

// Options tweaks a scheduled task. Zero values mean: run now, medium
// priority, no dedupe.
type Options struct {
	At        time.Time
	Priority  Priority
	DedupeKey string
}

const (
	defaultRetention    = 100
	defaultTickInterval = 30 * time.Second
)

var defaultPolicy = RetryPolicy{MaxAttempts: 3, BackoffDelay: time.Minute}

type recurringState struct {
	def     Recurring
	nextRun time.Time
}

// Scheduler runs background work for the engine: one-off tasks with retry
// and a handful of recurring triggers. Everything lives in memory; a restart
// loses pending tasks, which is acceptable because every recurring sweep is
// self-healing and one-off retries regenerate from the next sweep.
type Scheduler struct {
	log *zap.SugaredLogger

	mu        sync.Mutex
	tasks     map[string]*Task
	handlers  map[string]Handler
	policies  map[string]RetryPolicy
	recurring []*recurringState
	retention int

	executed  int
	succeeded int
	failed    int

	tickInterval time.Duration
	now          func() time.Time
}

func New(log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		log:          log,
		tasks:        map[string]*Task{},
		handlers:     map[string]Handler{},
		policies:     map[string]RetryPolicy{},
		retention:    defaultRetention,
		tickInterval: defaultTickInterval,
		now:          time.Now,
	}
}

// RegisterHandler binds a task type to its handler. Scheduling a type with
// no handler fails the task at execution time.
func (s *Scheduler) RegisterHandler(taskType string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[taskType] = h
}

// SetPolicy sets the retry policy for a task type.
func (s *Scheduler) SetPolicy(taskType string, p RetryPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[taskType] = p
}

// AddRecurring registers a recurring trigger. The first run is computed on
// the first tick: interval triggers fire immediately so a fresh boot sweeps
// without waiting a full interval, fixed-time triggers fire at their next
// scheduled occurrence.
func (s *Scheduler) AddRecurring(def Recurring) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if def.Priority == "" {
		def.Priority = PriorityMedium
	}
	s.recurring = append(s.recurring, &recurringState{def: def})
}

// Schedule enqueues a one-off task. When a dedupe key is given and a task of
// the same type and key is already pending or running, the existing task is
// returned instead of creating a duplicate.
func (s *Scheduler) Schedule(taskType string, payload any, opts Options) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(taskType, payload, opts)
}

func (s *Scheduler) scheduleLocked(taskType string, payload any, opts Options) *Task {
	if opts.DedupeKey != "" {
		for _, t := range s.tasks {
			if t.Type == taskType && t.DedupeKey == opts.DedupeKey && t.live() {
				return t
			}
		}
	}
	policy, ok := s.policies[taskType]
	if !ok {
		policy = defaultPolicy
	}
	if opts.Priority == "" {
		opts.Priority = PriorityMedium
	}
	if opts.At.IsZero() {
		opts.At = s.now()
	}
	t := &Task{
		ID:           uuid.NewString(),
		Type:         taskType,
		Payload:      payload,
		Priority:     opts.Priority,
		DedupeKey:    opts.DedupeKey,
		ScheduledAt:  opts.At,
		MaxAttempts:  policy.MaxAttempts,
		BackoffDelay: policy.BackoffDelay,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}
	s.tasks[t.ID] = t
	return t
}

// HasPending reports whether a live task of the given type and dedupe key
// exists. The sweep uses it to avoid double-sending a step that already has
// a retry queued.
func (s *Scheduler) HasPending(taskType, dedupeKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.Type == taskType && t.DedupeKey == dedupeKey && t.live() {
			return true
		}
	}
	return false
}

// PendingCount counts live tasks of one type.
func (s *Scheduler) PendingCount(taskType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.Type == taskType && t.live() {
			n++
		}
	}
	return n
}

// Tick fires due recurring triggers, then executes every pending task whose
// ScheduledAt has passed, strictly one at a time, ordered by priority then
// age. It returns how many tasks ran. Tests drive Tick directly with
// synthetic clocks; production calls arrive from Run.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	s.fireRecurring(now)

	due := s.collectDue(now)
	for _, t := range due {
		s.execute(ctx, t, now)
	}
	return len(due)
}

func (s *Scheduler) fireRecurring(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rs := range s.recurring {
		if rs.nextRun.IsZero() {
			if rs.def.Interval > 0 {
				rs.nextRun = now
			} else {
				rs.nextRun = nextFixedRun(now, rs.def)
			}
		}
		if now.Before(rs.nextRun) {
			continue
		}
		s.scheduleLocked(rs.def.Type, nil, Options{
			At:        now,
			Priority:  rs.def.Priority,
			DedupeKey: rs.def.Type,
		})
		if rs.def.Interval > 0 {
			rs.nextRun = now.Add(rs.def.Interval)
		} else {
			rs.nextRun = nextFixedRun(now, rs.def)
		}
	}
}

func nextFixedRun(now time.Time, def Recurring) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), def.AtHour, 0, 0, 0, now.Location())
	if def.Weekly {
		for next.Weekday() != def.AtWeekday || !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) collectDue(now time.Time) []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	due := []*Task{}
	for _, t := range s.tasks {
		if t.Status == StatusPending && !t.ScheduledAt.After(now) {
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if priorityRank[due[i].Priority] != priorityRank[due[j].Priority] {
			return priorityRank[due[i].Priority] < priorityRank[due[j].Priority]
		}
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	return due
}

func (s *Scheduler) execute(ctx context.Context, t *Task, now time.Time) {
	s.mu.Lock()
	if t.Status != StatusPending {
		s.mu.Unlock()
		return
	}
	h := s.handlers[t.Type]
	t.Status = StatusRunning
	t.Attempts++
	s.executed++
	s.mu.Unlock()

	var err error
	if h == nil {
		err = fmt.Errorf("no handler registered for task type %s", t.Type)
	} else {
		err = runHandler(ctx, h, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		t.Status = StatusCompleted
		t.CompletedAt = now
		t.LastError = ""
		s.succeeded++
		return
	}
	t.LastError = err.Error()
	if h != nil && t.Attempts < t.MaxAttempts {
		t.Status = StatusPending
		t.ScheduledAt = now.Add(t.BackoffDelay)
		s.log.Warnw("task failed, will retry",
			"task_type", t.Type, "task_id", t.ID,
			"attempt", t.Attempts, "max_attempts", t.MaxAttempts, "error", err)
		return
	}
	t.Status = StatusFailed
	t.CompletedAt = now
	s.failed++
	s.log.Errorw("task failed permanently",
		"task_type", t.Type, "task_id", t.ID, "attempts", t.Attempts, "error", err)
}

// runHandler isolates handler panics so one bad task cannot take down the
// driver loop.
func runHandler(ctx context.Context, h Handler, t *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task handler panic: %v", r)
		}
	}()
	return h(ctx, t)
}

// TrimCompleted drops the oldest terminal tasks beyond the retention cap,
// completed and failed counted separately, and returns how many were
// removed. The nightly cleanup task calls this.
func (s *Scheduler) TrimCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trimStatusLocked(StatusCompleted) + s.trimStatusLocked(StatusFailed)
}

func (s *Scheduler) trimStatusLocked(status Status) int {
	var terminal []*Task
	for _, t := range s.tasks {
		if t.Status == status {
			terminal = append(terminal, t)
		}
	}
	if len(terminal) <= s.retention {
		return 0
	}
	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].CompletedAt.After(terminal[j].CompletedAt)
	})
	removed := 0
	for _, t := range terminal[s.retention:] {
		delete(s.tasks, t.ID)
		removed++
	}
	return removed
}

// Stats is a point-in-time census of the task table plus lifetime counters.
type Stats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Executed  int `json:"executed"`
	Succeeded int `json:"succeeded"`
	FailedRun int `json:"failed_permanently"`
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Executed: s.executed, Succeeded: s.succeeded, FailedRun: s.failed}
	for _, t := range s.tasks {
		switch t.Status {
		case StatusPending:
			st.Pending++
		case StatusRunning:
			st.Running++
		case StatusCompleted:
			st.Completed++
		case StatusFailed:
			st.Failed++
		}
	}
	return st
}

// Run drives Tick on a real-time ticker until ctx is cancelled. It returns
// ctx.Err(), which callers running under an errgroup filter for
// context.Canceled on clean shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	s.log.Infow("scheduler running", "tick_interval", s.tickInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}
