package campaign

// CampaignType selects which outreach track a lead follows.
type CampaignType string

const (
	TypeVeteran  CampaignType = "veteran"
	TypeRecovery CampaignType = "recovery"
	TypeReentry  CampaignType = "reentry"
	TypeGeneral  CampaignType = "general"
)

// StepPriority gates how aggressively the quota manager admits a step.
type StepPriority string

const (
	PriorityHigh   StepPriority = "high"
	PriorityMedium StepPriority = "medium"
	PriorityLow    StepPriority = "low"
)

// Template is the email content a step sends. Bodies may contain
// {placeholder} tokens substituted per lead at send time.
type Template struct {
	Subject string `yaml:"subject" json:"subject"`
	HTML    string `yaml:"html" json:"html"`
	Text    string `yaml:"text" json:"text"`
}

// Step is one scheduled message within a campaign. DayOffset counts whole
// days since the lead was created; SendHour is the target local hour, with a
// tolerance window applied by the sequencer. ScoreBoost raises the lead's
// rank in the sweep while this step is due, without touching the score itself.
type Step struct {
	DayOffset  int          `yaml:"day_offset" json:"day_offset"`
	SendHour   int          `yaml:"send_hour" json:"send_hour"`
	TemplateID string       `yaml:"template_id" json:"template_id"`
	Priority   StepPriority `yaml:"priority" json:"priority"`
	ScoreBoost int          `yaml:"score_boost" json:"score_boost"`
	Template   Template     `yaml:"template" json:"template"`
}

// Definition is a named campaign: an ordered list of steps. Order matters,
// it is the sequencer's tie-break.
type Definition struct {
	Type  CampaignType `yaml:"type" json:"type"`
	Steps []Step       `yaml:"steps" json:"steps"`
}
