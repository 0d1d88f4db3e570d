package chat

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTimeout is how long a session may sit idle before the sweep
// reclaims it.
const DefaultSessionTimeout = 30 * time.Minute

// Role identifies who authored a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one message in a chat session.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the ephemeral conversational context for one widget visitor.
// Sessions never touch the database; promotion copies what matters into a
// lead and the session itself is eventually swept away.
type Session struct {
	ID           string `json:"id"`
	UserName     string `json:"user_name"`
	Turns        []Turn `json:"turns"`
	CreatedAt    time.Time
	LastActivity time.Time
	LeadPromoted bool

	elem *list.Element
}

// promotionKeywords is the fixed heuristic set: a visitor whose messages
// mention any of these is worth a lead record.
var promotionKeywords = []string{"schedule", "housing", "apply", "tour", "appointment", "visit"}

// Manager owns all live sessions. A recency list mirrors the session map so
// the expiry sweep pops stale sessions off the tail instead of scanning
// everything.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byAge    *list.List // front = most recently active
}

func NewManager() *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		byAge:    list.New(),
	}
}

// GetOrCreate returns a snapshot of the session, creating it when unknown. A
// fresh uuid is assigned when id is empty; a caller-supplied id for a
// session the sweep already reclaimed simply starts a new session under that
// id. Touches LastActivity either way.
func (m *Manager) GetOrCreate(id, userName string, now time.Time) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.sessions[id]; ok {
			s.LastActivity = now
			if s.UserName == "" && userName != "" {
				s.UserName = userName
			}
			m.byAge.MoveToFront(s.elem)
			return snapshot(s)
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		ID:           id,
		UserName:     userName,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.elem = m.byAge.PushFront(s)
	m.sessions[id] = s
	return snapshot(s)
}

// Get returns a snapshot of a live session.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return snapshot(s), true
}

// AppendTurn records one message and refreshes the session's recency.
// Unknown ids are ignored; the caller always goes through GetOrCreate first.
func (m *Manager) AppendTurn(id string, role Role, content string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, Timestamp: now})
	s.LastActivity = now
	m.byAge.MoveToFront(s.elem)
}

// ShouldPromote reports whether the session has earned a lead record: not
// yet promoted, at least three user-authored turns, and a promotion keyword
// somewhere in the user text.
func (m *Manager) ShouldPromote(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.LeadPromoted {
		return false
	}
	text, turns := userText(s)
	if turns < 3 {
		return false
	}
	for _, kw := range promotionKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// MarkPromoted flips the one-shot promotion flag. Exactly one caller ever
// gets true for a given session.
func (m *Manager) MarkPromoted(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.LeadPromoted {
		return false
	}
	s.LeadPromoted = true
	return true
}

// Active returns the live session count.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SweepExpired removes sessions idle strictly longer than timeout and
// returns how many were dropped. Because the recency list is ordered, the
// sweep walks only the stale tail.
func (m *Manager) SweepExpired(now time.Time, timeout time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for e := m.byAge.Back(); e != nil; {
		s := e.Value.(*Session)
		if now.Sub(s.LastActivity) <= timeout {
			break
		}
		prev := e.Prev()
		m.byAge.Remove(e)
		delete(m.sessions, s.ID)
		removed++
		e = prev
	}
	return removed
}

// DetectTopics lists which promotion keywords the visitor actually used, for
// the promoted lead's summary.
func DetectTopics(s Session) []string {
	text := strings.ToLower(allUserContent(s.Turns))
	topics := []string{}
	for _, kw := range promotionKeywords {
		if strings.Contains(text, kw) {
			topics = append(topics, kw)
		}
	}
	return topics
}

// Transcript renders the session for the promoted lead's notes, truncated to
// limit bytes.
func Transcript(s Session, limit int) string {
	var b strings.Builder
	for _, t := range s.Turns {
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	out := b.String()
	if limit > 0 && len(out) > limit {
		out = out[:limit] + "..."
	}
	return out
}

func snapshot(s *Session) Session {
	cp := *s
	cp.Turns = append([]Turn(nil), s.Turns...)
	cp.elem = nil
	return cp
}

func userText(s *Session) (string, int) {
	var b strings.Builder
	turns := 0
	for _, t := range s.Turns {
		if t.Role != RoleUser {
			continue
		}
		turns++
		b.WriteString(t.Content)
		b.WriteString(" ")
	}
	return strings.ToLower(b.String()), turns
}

func allUserContent(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		if t.Role == RoleUser {
			b.WriteString(t.Content)
			b.WriteString(" ")
		}
	}
	return b.String()
}
