package quota

import (
	"sync"
	"time"

	"github.com/havenpath/outreach-backend/internal/campaign"
	"github.com/havenpath/outreach-backend/internal/scoring"
)

// Defaults applied when a Config field is zero.
const (
	DefaultMaxDaily           = 100
	DefaultMaxHourly          = 20
	DefaultBusinessHoursStart = 9
	DefaultBusinessHoursEnd   = 17
)

type Config struct {
	MaxDaily           int
	MaxHourly          int
	BusinessHoursStart int
	BusinessHoursEnd   int
}

// Manager tracks daily and hourly send counts and gates admission by step
// and lead priority. One instance per process, handed to whoever needs it;
// all state sits behind the mutex so admission checks stay consistent with
// increments. Every method takes an explicit now so the counters roll over
// on the caller's clock, not the wall clock.
type Manager struct {
	mu sync.Mutex

	maxDaily  int
	maxHourly int
	bizStart  int
	bizEnd    int

	dailyCount     int
	dailyResetDate string // date the daily counter belongs to, "2006-01-02"
	hourlyCount    int
	hourlyResetKey string // date+hour the hourly counter belongs to
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxDaily <= 0 {
		cfg.MaxDaily = DefaultMaxDaily
	}
	if cfg.MaxHourly <= 0 {
		cfg.MaxHourly = DefaultMaxHourly
	}
	if cfg.BusinessHoursStart <= 0 {
		cfg.BusinessHoursStart = DefaultBusinessHoursStart
	}
	if cfg.BusinessHoursEnd <= 0 {
		cfg.BusinessHoursEnd = DefaultBusinessHoursEnd
	}
	return &Manager{
		maxDaily:  cfg.MaxDaily,
		maxHourly: cfg.MaxHourly,
		bizStart:  cfg.BusinessHoursStart,
		bizEnd:    cfg.BusinessHoursEnd,
	}
}

// CheckDailyLimit reports whether the daily cap still has room.
func (m *Manager) CheckDailyLimit(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roll(now)
	return m.dailyCount < m.maxDaily
}

// CheckHourlyLimit reports whether the hourly cap still has room.
func (m *Manager) CheckHourlyLimit(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roll(now)
	return m.hourlyCount < m.maxHourly
}

// Admit decides whether one send may proceed right now. The hard caps bind
// everyone; past those, high-priority steps and URGENT leads go through
// unconditionally, medium steps only inside business hours, and low steps
// only while less than half the daily budget is spent.
func (m *Manager) Admit(stepPriority campaign.StepPriority, leadPriority scoring.Priority, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roll(now)

	if m.dailyCount >= m.maxDaily || m.hourlyCount >= m.maxHourly {
		return false
	}
	if stepPriority == campaign.PriorityHigh || leadPriority == scoring.PriorityUrgent {
		return true
	}
	if stepPriority == campaign.PriorityMedium {
		return now.Hour() >= m.bizStart && now.Hour() < m.bizEnd
	}
	return float64(m.dailyCount) < 0.5*float64(m.maxDaily)
}

// RecordSend increments both counters. Callers invoke it only after the
// transport accepted the message, so a failed send consumes no quota.
func (m *Manager) RecordSend(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roll(now)
	m.dailyCount++
	m.hourlyCount++
}

// Snapshot reports current usage for the stats surface.
type Snapshot struct {
	DailySent         int `json:"daily_sent"`
	RemainingToday    int `json:"remaining_today"`
	RemainingThisHour int `json:"remaining_this_hour"`
}

func (m *Manager) Snapshot(now time.Time) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roll(now)
	return Snapshot{
		DailySent:         m.dailyCount,
		RemainingToday:    m.maxDaily - m.dailyCount,
		RemainingThisHour: m.maxHourly - m.hourlyCount,
	}
}

// roll resets whichever counters have crossed into a new date or hour.
// Calling it repeatedly within the same period is a no-op, so every public
// method can call it unconditionally.
func (m *Manager) roll(now time.Time) {
	if date := now.Format("2006-01-02"); date != m.dailyResetDate {
		m.dailyCount = 0
		m.dailyResetDate = date
	}
	if key := now.Format("2006-01-02 15"); key != m.hourlyResetKey {
		m.hourlyCount = 0
		m.hourlyResetKey = key
	}
}
