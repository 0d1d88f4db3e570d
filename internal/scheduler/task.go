package scheduler

import "time"

// Status is the task lifecycle: pending -> running -> completed, back to
// pending for a retry, or failed once attempts are exhausted. completed and
// failed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Priority orders execution within one tick. It has no effect on retry
// behavior, only on who goes first when several tasks are due together.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// Task is the scheduler's unit of work. Tasks live only in memory and only
// the scheduler mutates them; handlers receive the task but treat it as
// read-only context.
type Task struct {
	ID           string
	Type         string
	Payload      any
	Priority     Priority
	DedupeKey    string
	ScheduledAt  time.Time
	Attempts     int
	MaxAttempts  int
	BackoffDelay time.Duration
	Status       Status
	LastError    string
	CreatedAt    time.Time
	CompletedAt  time.Time
}

func (t *Task) live() bool {
	return t.Status == StatusPending || t.Status == StatusRunning
}
