package scoring

import (
	"time"

	"github.com/havenpath/outreach-backend/internal/model"
)

// Priority ranks how urgently a human or the engine should act on a lead.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Grade buckets a score for the intake team.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Result is the full scoring verdict for one lead at one instant.
type Result struct {
	Score      int            `json:"score"`
	Grade      Grade          `json:"grade"`
	Priority   Priority       `json:"priority"`
	NextAction string         `json:"next_action"`
	Breakdown  map[string]int `json:"breakdown"`
}

// Bucket caps. Demographic is naturally bounded by its weights.
const (
	urgencyCap    = 40
	engagementCap = 25
	behavioralCap = 25
)

// Score rates a lead from their profile and interaction history. It is pure:
// identical inputs, including now, always produce the identical result, and
// nothing is read from the wall clock.
func Score(lead *model.Lead, interactions []model.Interaction, now time.Time) Result {
	breakdown := map[string]int{
		"demographic": demographicPoints(lead),
		"urgency":     urgencyPoints(lead),
		"engagement":  engagementPoints(interactions, now),
		"behavioral":  behavioralPoints(interactions),
	}

	score := 0
	for _, pts := range breakdown {
		score += pts
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	grade := gradeFor(score)
	priority := priorityFor(score)
	if lead.CurrentlyHomeless && (priority == PriorityMedium || priority == PriorityLow) {
		priority = PriorityHigh
	}

	return Result{
		Score:      score,
		Grade:      grade,
		Priority:   priority,
		NextAction: nextAction(grade, priority),
		Breakdown:  breakdown,
	}
}

func demographicPoints(lead *model.Lead) int {
	pts := 0
	if lead.Veteran {
		pts += 15
	}
	if lead.InRecovery {
		pts += 12
	}
	if lead.Reentry {
		pts += 12
	}
	switch lead.EmploymentStatus {
	case model.EmploymentUnemployed:
		pts += 8
	case model.EmploymentPartTime:
		pts += 4
	}
	return pts
}

func urgencyPoints(lead *model.Lead) int {
	pts := 0
	if lead.CurrentlyHomeless {
		pts += 30
	}
	if lead.HasTag("eviction-risk") || lead.HasTag("eviction") {
		pts += 25
	}
	if pts > urgencyCap {
		pts = urgencyCap
	}
	return pts
}

// engagementPoints rewards opens and clicks with recency decay: a click an
// hour ago says far more than a click last month.
func engagementPoints(interactions []model.Interaction, now time.Time) int {
	pts := 0
	for _, rec := range interactions {
		age := now.Sub(rec.CreatedAt)
		switch rec.Type {
		case model.InteractionEmailClicked:
			pts += decayed(age, 12, 8, 3)
		case model.InteractionEmailOpened:
			pts += decayed(age, 8, 5, 2)
		}
	}
	if pts > engagementCap {
		pts = engagementCap
	}
	return pts
}

func decayed(age time.Duration, fresh, day, stale int) int {
	switch {
	case age <= 2*time.Hour:
		return fresh
	case age <= 24*time.Hour:
		return day
	default:
		return stale
	}
}

func behavioralPoints(interactions []model.Interaction) int {
	pts := 0
	for _, rec := range interactions {
		switch rec.Type {
		case model.InteractionFormCompleted:
			pts += 15
		case model.InteractionEmailReplied:
			pts += 12
		case model.InteractionSMSReceived:
			pts += 8
		}
	}
	if pts > behavioralCap {
		pts = behavioralCap
	}
	return pts
}

func gradeFor(score int) Grade {
	switch {
	case score >= 85:
		return GradeA
	case score >= 70:
		return GradeB
	case score >= 50:
		return GradeC
	case score >= 30:
		return GradeD
	default:
		return GradeF
	}
}

func priorityFor(score int) Priority {
	switch {
	case score >= 85:
		return PriorityUrgent
	case score >= 70:
		return PriorityHigh
	case score >= 50:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func nextAction(grade Grade, priority Priority) string {
	switch {
	case priority == PriorityUrgent:
		return "immediate_phone_outreach"
	case grade == GradeB:
		return "same_day_callback"
	case priority == PriorityHigh:
		// C or D lifted by the homeless override
		return "priority_callback"
	case grade == GradeC:
		return "continue_nurture_sequence"
	case grade == GradeD:
		return "keep_on_drip"
	default:
		return "quarterly_newsletter_only"
	}
}
