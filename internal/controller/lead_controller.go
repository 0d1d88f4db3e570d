// internal/controller/lead_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/havenpath/outreach-backend/internal/errors"
	"github.com/havenpath/outreach-backend/internal/model"
	"github.com/havenpath/outreach-backend/internal/repository"
	"github.com/havenpath/outreach-backend/internal/scoring"
	"github.com/havenpath/outreach-backend/internal/service"
)

type LeadController struct {
	Leads        repository.LeadRepositoryInterface
	Interactions repository.InteractionRepositoryInterface
	Nurture      *service.NurtureService
	Log          *zap.SugaredLogger
}

// CreateLead captures a lead from the website intake form. The form
// submission itself counts as a behavioral signal, so a form_completed
// interaction is recorded alongside the lead.
func (c *LeadController) CreateLead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name              string   `json:"name"`
		Email             string   `json:"email"`
		Phone             string   `json:"phone"`
		Veteran           bool     `json:"veteran"`
		InRecovery        bool     `json:"in_recovery"`
		Reentry           bool     `json:"reentry"`
		CurrentlyHomeless bool     `json:"currently_homeless"`
		EmploymentStatus  string   `json:"employment_status"`
		Tags              []string `json:"tags"`
		Source            string   `json:"source"`
		Message           string   `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Email == "" && body.Phone == "" {
		http.Error(w, "email or phone is required", http.StatusBadRequest)
		return
	}
	if body.Source == "" {
		body.Source = "web_form"
	}

	lead := &model.Lead{
		Name:              body.Name,
		Email:             body.Email,
		Phone:             body.Phone,
		Veteran:           body.Veteran,
		InRecovery:        body.InRecovery,
		Reentry:           body.Reentry,
		CurrentlyHomeless: body.CurrentlyHomeless,
		EmploymentStatus:  body.EmploymentStatus,
		Tags:              body.Tags,
		Source:            body.Source,
		Notes:             body.Message,
		Status:            model.LeadStatusNew,
	}
	if err := c.Leads.Create(lead); err != nil {
		c.Log.Errorw("lead insert failed", "email", body.Email, "error", err)
		http.Error(w, "could not save lead", http.StatusInternalServerError)
		return
	}

	rec := &model.Interaction{
		LeadID:    lead.ID,
		Type:      model.InteractionFormCompleted,
		Body:      body.Message,
		CreatedAt: lead.CreatedAt,
	}
	if err := c.Interactions.Create(rec); err != nil {
		c.Log.Warnw("lead saved but form interaction insert failed", "lead_id", lead.ID, "error", err)
	}

	c.Log.Infow("lead captured", "lead_id", lead.ID, "source", lead.Source)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lead)
}

// GetLead returns a lead with its interaction history and a live score.
func (c *LeadController) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lead, err := c.Leads.GetByID(id)
	if err != nil {
		var notFound *appErrors.ErrLeadNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	history, err := c.Interactions.ListByLead(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"lead":         lead,
		"interactions": history,
		"score":        scoring.Score(lead, history, time.Now()),
	})
}

// GetStats serves the operational snapshot.
func (c *LeadController) GetStats(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(c.Nurture.Stats())
}
