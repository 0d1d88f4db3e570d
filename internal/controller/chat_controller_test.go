package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/havenpath/outreach-backend/internal/chat"
	"github.com/havenpath/outreach-backend/internal/controller"
	"github.com/havenpath/outreach-backend/internal/service"
)

func newChatController() *controller.ChatController {
	svc := &service.ChatService{
		Sessions:     chat.NewManager(),
		Responder:    chat.NewResponder(),
		Leads:        newMockLeadRepo(),
		Interactions: &mockInteractionRepo{},
		Log:          zap.NewNop().Sugar(),
	}
	return &controller.ChatController{Chat: svc, Log: zap.NewNop().Sugar()}
}

func TestPostMessage(t *testing.T) {
	ctrl := newChatController()

	req := httptest.NewRequest("POST", "/api/chat/message", strings.NewReader(`{"message":"hello","user_name":"Sam"}`))
	w := httptest.NewRecorder()
	ctrl.PostMessage(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var reply service.ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if reply.SessionID == "" {
		t.Error("expected assigned session id")
	}
	if reply.Reply == "" {
		t.Error("expected a reply")
	}

	// the returned session id keeps the conversation going
	body := `{"session_id":"` + reply.SessionID + `","message":"what about pets?"}`
	req = httptest.NewRequest("POST", "/api/chat/message", strings.NewReader(body))
	w = httptest.NewRecorder()
	ctrl.PostMessage(w, req)

	var second service.ChatReply
	if err := json.NewDecoder(w.Result().Body).Decode(&second); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if second.SessionID != reply.SessionID {
		t.Errorf("expected session %s to continue, got %s", reply.SessionID, second.SessionID)
	}
}

func TestPostMessageRequiresText(t *testing.T) {
	ctrl := newChatController()

	req := httptest.NewRequest("POST", "/api/chat/message", strings.NewReader(`{"session_id":"abc"}`))
	w := httptest.NewRecorder()
	ctrl.PostMessage(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Result().StatusCode)
	}
}

func TestPostMessageRejectsBadJSON(t *testing.T) {
	ctrl := newChatController()

	req := httptest.NewRequest("POST", "/api/chat/message", strings.NewReader("{oops"))
	w := httptest.NewRecorder()
	ctrl.PostMessage(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Result().StatusCode)
	}
}

func TestPostMessageFallsBackOnPanic(t *testing.T) {
	// a nil session manager makes the chat service blow up internally
	ctrl := &controller.ChatController{
		Chat: &service.ChatService{Log: zap.NewNop().Sugar()},
		Log:  zap.NewNop().Sugar(),
	}

	req := httptest.NewRequest("POST", "/api/chat/message", strings.NewReader(`{"session_id":"abc","message":"help"}`))
	w := httptest.NewRecorder()
	ctrl.PostMessage(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 even on internal failure, got %d", resp.StatusCode)
	}
	var reply service.ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if reply.Reply != chat.FallbackReply {
		t.Errorf("expected the fallback reply, got %q", reply.Reply)
	}
	if reply.SessionID != "abc" {
		t.Errorf("expected the caller's session id echoed, got %q", reply.SessionID)
	}
}
