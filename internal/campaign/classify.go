package campaign

import "github.com/havenpath/outreach-backend/internal/model"

// Classify resolves the campaign a lead belongs to. A situation flag or a
// matching intake tag selects the track; veteran wins over recovery over
// reentry, and everyone else lands in general.
func Classify(lead *model.Lead) CampaignType {
	switch {
	case lead.Veteran || lead.HasTag("veteran"):
		return TypeVeteran
	case lead.InRecovery || lead.HasTag("recovery"):
		return TypeRecovery
	case lead.Reentry || lead.HasTag("reentry"):
		return TypeReentry
	default:
		return TypeGeneral
	}
}
