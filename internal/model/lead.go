package model

import "time"

// LeadStatus tracks where a lead sits in the outreach pipeline.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusNurturing LeadStatus = "nurturing"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// Employment status values mirror the intake form options.
const (
	EmploymentUnemployed = "unemployed"
	EmploymentPartTime   = "part_time"
	EmploymentFullTime   = "full_time"
	EmploymentRetired    = "retired"
	EmploymentUnknown    = "unknown"
)

// Lead is a person who reached out about housing, directly or through the
// chat widget. The situation flags drive campaign classification and scoring.
type Lead struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	Veteran           bool       `json:"veteran"`
	InRecovery        bool       `json:"in_recovery"`
	Reentry           bool       `json:"reentry"`
	CurrentlyHomeless bool       `json:"currently_homeless"`
	EmploymentStatus  string     `json:"employment_status"`
	Tags              []string   `json:"tags"`
	Source            string     `json:"source"`
	Notes             string     `json:"notes,omitempty"`
	OptedOut          bool       `json:"opted_out"`
	Status            LeadStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// HasTag reports whether the lead carries the given intake tag.
func (l *Lead) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
