package campaign

import (
	"math"
	"time"

	"github.com/havenpath/outreach-backend/internal/model"
)

// HourTolerance is how far (in hours) the sweep may run from a step's target
// send hour and still send it. Sweeps run every ten minutes, so a two-hour
// window guarantees several chances per day without mailing at midnight.
const HourTolerance = 2

// DueStep is a step the sequencer judged sendable right now.
type DueStep struct {
	Campaign CampaignType
	Step     Step
}

// Sequencer decides which campaign step, if any, a lead should receive at a
// given instant. It is stateless; the interaction history carries the state.
type Sequencer struct {
	catalog *Catalog
}

func NewSequencer(catalog *Catalog) *Sequencer {
	return &Sequencer{catalog: catalog}
}

// Next walks the lead's campaign steps in catalog order and returns the
// first one that is due: enough days have passed, the template has never
// been sent to this lead, and the current hour is within tolerance of the
// step's send hour. Nothing due returns nil, the common case on most sweeps.
func (s *Sequencer) Next(lead *model.Lead, interactions []model.Interaction, now time.Time) *DueStep {
	campaignType := Classify(lead)
	days := daysSince(lead.CreatedAt, now)
	sent := sentTemplates(interactions)

	for _, step := range s.catalog.Steps(campaignType) {
		if days < step.DayOffset {
			continue
		}
		if sent[step.TemplateID] {
			continue
		}
		if hourDistance(now.Hour(), step.SendHour) > HourTolerance {
			continue
		}
		return &DueStep{Campaign: campaignType, Step: step}
	}
	return nil
}

// AlreadySent reports whether the lead has received the given template.
func AlreadySent(interactions []model.Interaction, templateID string) bool {
	return sentTemplates(interactions)[templateID]
}

func sentTemplates(interactions []model.Interaction) map[string]bool {
	sent := map[string]bool{}
	for _, rec := range interactions {
		if rec.Type == model.InteractionEmailSent && rec.TemplateID != "" {
			sent[rec.TemplateID] = true
		}
	}
	return sent
}

func daysSince(created, now time.Time) int {
	return int(math.Floor(now.Sub(created).Hours() / 24))
}

func hourDistance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
