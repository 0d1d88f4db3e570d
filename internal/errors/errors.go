// internal/errors/errors.go
package appErrors

import "fmt"

// ErrLeadNotFound is a sentinel error
type ErrLeadNotFound struct {
	LeadID string
}

func (e *ErrLeadNotFound) Error() string {
	return fmt.Sprintf("lead with ID %s not found", e.LeadID)
}

// Helper constructor
func NewLeadNotFound(id string) error {
	return &ErrLeadNotFound{LeadID: id}
}

// ErrUnknownCampaign means a campaign type that is not in the catalog.
type ErrUnknownCampaign struct {
	CampaignType string
}

func (e *ErrUnknownCampaign) Error() string {
	return fmt.Sprintf("unknown campaign type %q", e.CampaignType)
}

func NewUnknownCampaign(campaignType string) error {
	return &ErrUnknownCampaign{CampaignType: campaignType}
}

// ErrMissingEmail means a lead cannot receive campaign email because no
// address is on file. Chat-promoted leads commonly start out this way.
type ErrMissingEmail struct {
	LeadID string
}

func (e *ErrMissingEmail) Error() string {
	return fmt.Sprintf("lead %s has no email address", e.LeadID)
}

func NewMissingEmail(id string) error {
	return &ErrMissingEmail{LeadID: id}
}
