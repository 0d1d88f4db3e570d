// internal/controller/chat_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/havenpath/outreach-backend/internal/chat"
	"github.com/havenpath/outreach-backend/internal/service"
)

type ChatController struct {
	Chat *service.ChatService
	Log  *zap.SugaredLogger
}

// PostMessage handles one chat widget message. Whatever goes wrong
// internally, the visitor gets a reply pointing at a human; a broken widget
// conversation must never read as a dead end to someone asking about
// housing.
func (c *ChatController) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
		UserName  string `json:"user_name"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			c.Log.Errorw("chat handler panicked", "session_id", body.SessionID, "panic", rec)
			json.NewEncoder(w).Encode(service.ChatReply{
				SessionID: body.SessionID,
				Reply:     chat.FallbackReply,
			})
		}
	}()

	reply := c.Chat.HandleMessage(body.SessionID, body.UserName, body.Message, time.Now())
	json.NewEncoder(w).Encode(reply)
}
