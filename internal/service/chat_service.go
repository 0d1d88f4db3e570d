// internal/service/chat_service.go
package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/havenpath/outreach-backend/internal/chat"
	"github.com/havenpath/outreach-backend/internal/model"
	"github.com/havenpath/outreach-backend/internal/repository"
)

const transcriptLimit = 500

// ChatReply is what the widget receives back.
type ChatReply struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// ChatService backs the chat widget: canned keyword replies plus the
// session-to-lead promotion pipeline.
type ChatService struct {
	Sessions     *chat.Manager
	Responder    *chat.Responder
	Leads        repository.LeadRepositoryInterface
	Interactions repository.InteractionRepositoryInterface
	Log          *zap.SugaredLogger
}

// HandleMessage records the visitor's message, produces a reply, and
// promotes the session to a lead the moment it qualifies. Promotion failure
// is logged but never surfaces to the visitor; the reply always goes out.
func (s *ChatService) HandleMessage(sessionID, userName, text string, now time.Time) ChatReply {
	sess := s.Sessions.GetOrCreate(sessionID, userName, now)
	s.Sessions.AppendTurn(sess.ID, chat.RoleUser, text, now)

	reply := s.Responder.Reply(text)
	s.Sessions.AppendTurn(sess.ID, chat.RoleBot, reply, now)

	// MarkPromoted flips the flag before we try the insert, so a failing
	// insert cannot cause a second lead on the next message. One lead per
	// session, even at the cost of occasionally losing one to a DB error.
	if s.Sessions.ShouldPromote(sess.ID) && s.Sessions.MarkPromoted(sess.ID) {
		if err := s.promote(sess.ID, now); err != nil {
			s.Log.Errorw("chat session promotion failed", "session_id", sess.ID, "error", err)
		}
	}

	return ChatReply{SessionID: sess.ID, Reply: reply}
}

func (s *ChatService) promote(sessionID string, now time.Time) error {
	sess, ok := s.Sessions.Get(sessionID)
	if !ok {
		return fmt.Errorf("session %s disappeared before promotion", sessionID)
	}

	topics := chat.DetectTopics(sess)
	transcript := chat.Transcript(sess, transcriptLimit)

	name := sess.UserName
	if name == "" {
		name = "Chat visitor"
	}

	lead := &model.Lead{
		Name:   name,
		Tags:   append([]string{"chat-widget"}, topics...),
		Source: "chat_widget",
		Notes:  fmt.Sprintf("Chat inquiry. Topics: %s.\n\n%s", strings.Join(topics, ", "), transcript),
		Status: model.LeadStatusNew,
	}
	if err := s.Leads.Create(lead); err != nil {
		return fmt.Errorf("insert promoted lead: %w", err)
	}

	rec := &model.Interaction{
		LeadID:    lead.ID,
		Type:      model.InteractionChatPromoted,
		Body:      transcript,
		CreatedAt: now,
	}
	if err := s.Interactions.Create(rec); err != nil {
		s.Log.Warnw("promoted lead saved but interaction insert failed",
			"lead_id", lead.ID, "error", err)
	}

	s.Log.Infow("chat session promoted to lead",
		"session_id", sessionID, "lead_id", lead.ID, "topics", topics)
	return nil
}
