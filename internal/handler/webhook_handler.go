// internal/handler/webhook_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/havenpath/outreach-backend/internal/model"
	"github.com/havenpath/outreach-backend/internal/queue"
)

// WebhookHandler turns provider callbacks into engagement events on the
// queue. Providers retry aggressively on non-2xx, so these handlers ack
// with 200 even for junk payloads and leave diagnosis to the logs; the only
// thing a retry would reproduce is the junk.
type WebhookHandler struct {
	Queue queue.Queue
	Log   *zap.SugaredLogger
}

// emailEventNames maps provider event names onto our engagement types.
var emailEventNames = map[string]string{
	"delivered":   model.EventEmailDelivered,
	"open":        model.EventEmailOpened,
	"click":       model.EventEmailClicked,
	"bounce":      model.EventEmailBounced,
	"reply":       model.EventEmailReplied,
	"unsubscribe": model.EventEmailUnsubscribed,
}

// EmailEvents ingests a provider event batch: a JSON array of events, each
// echoing back the lead and template ids we stamped into the outbound
// headers.
func (h *WebhookHandler) EmailEvents(w http.ResponseWriter, r *http.Request) {
	var events []struct {
		Event      string `json:"event"`
		Email      string `json:"email"`
		LeadID     string `json:"lead_id"`
		TemplateID string `json:"template_id"`
		MessageID  string `json:"message_id"`
		Timestamp  int64  `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		h.Log.Warnw("unparseable email event batch", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	accepted := 0
	for _, e := range events {
		eventType, ok := emailEventNames[e.Event]
		if !ok {
			h.Log.Debugw("ignoring email event", "event", e.Event)
			continue
		}
		occurred := time.Now()
		if e.Timestamp > 0 {
			occurred = time.Unix(e.Timestamp, 0)
		}
		ev := model.EngagementEvent{
			Type:       eventType,
			LeadID:     e.LeadID,
			Email:      e.Email,
			TemplateID: e.TemplateID,
			MessageID:  e.MessageID,
			OccurredAt: occurred,
		}
		if err := h.Queue.Publish(queue.TopicEngagement, ev); err != nil {
			h.Log.Errorw("failed to enqueue email event", "event", e.Event, "error", err)
			continue
		}
		accepted++
	}

	json.NewEncoder(w).Encode(map[string]int{"accepted": accepted})
}

// InboundSMS ingests a carrier SMS callback (form-encoded, Twilio style)
// and answers with an empty TwiML document so the carrier sends no
// auto-reply.
func (h *WebhookHandler) InboundSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Log.Warnw("unparseable sms webhook", "error", err)
		writeTwiML(w, "")
		return
	}
	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" {
		writeTwiML(w, "")
		return
	}

	ev := model.EngagementEvent{
		Type:       model.EventSMSReceived,
		Phone:      from,
		Body:       body,
		OccurredAt: time.Now(),
	}
	if err := h.Queue.Publish(queue.TopicEngagement, ev); err != nil {
		h.Log.Errorw("failed to enqueue inbound sms", "from", from, "error", err)
	}
	writeTwiML(w, "")
}

// InboundVoice ingests a carrier voice callback and reads the caller a
// short confirmation before hanging up.
func (h *WebhookHandler) InboundVoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Log.Warnw("unparseable voice webhook", "error", err)
		writeTwiML(w, "")
		return
	}
	from := r.PostFormValue("From")
	if from == "" {
		writeTwiML(w, "")
		return
	}

	ev := model.EngagementEvent{
		Type:       model.EventCallReceived,
		Phone:      from,
		OccurredAt: time.Now(),
	}
	if err := h.Queue.Publish(queue.TopicEngagement, ev); err != nil {
		h.Log.Errorw("failed to enqueue inbound call", "from", from, "error", err)
	}
	writeTwiML(w, "<Say>Thank you for calling HavenPath housing services. A team member will call you back shortly.</Say>")
}

func writeTwiML(w http.ResponseWriter, inner string) {
	w.Header().Set("Content-Type", "text/xml")
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response>` + inner + `</Response>`))
}
