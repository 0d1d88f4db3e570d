package campaign

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	appErrors "github.com/havenpath/outreach-backend/internal/errors"
)

// Catalog is the read-only table of campaign definitions, loaded once at
// process start and never mutated afterward.
type Catalog struct {
	defs map[CampaignType]Definition
}

type catalogFile struct {
	Campaigns []Definition `yaml:"campaigns"`
}

// NewCatalog builds a catalog from the compiled-in defaults.
func NewCatalog() *Catalog {
	defs := map[CampaignType]Definition{}
	for _, d := range defaultDefinitions() {
		defs[d.Type] = d
	}
	return &Catalog{defs: defs}
}

// LoadCatalog reads campaign definitions from a YAML file, falling back to
// the compiled-in defaults when path is empty. Definitions in the file
// replace the default for that campaign type wholesale.
func LoadCatalog(path string) (*Catalog, error) {
	c := NewCatalog()
	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campaigns file: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse campaigns file: %w", err)
	}
	for _, d := range f.Campaigns {
		c.defs[d.Type] = d
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("campaigns file %s: %w", path, err)
	}
	return c, nil
}

// Definition returns the campaign for a type, or ErrUnknownCampaign.
func (c *Catalog) Definition(t CampaignType) (Definition, error) {
	d, ok := c.defs[t]
	if !ok {
		return Definition{}, appErrors.NewUnknownCampaign(string(t))
	}
	return d, nil
}

// Steps returns the ordered steps for a campaign type, nil when unknown.
func (c *Catalog) Steps(t CampaignType) []Step {
	return c.defs[t].Steps
}

// StepByTemplate finds the step a template id belongs to, used when a queued
// retry needs to re-render its message.
func (c *Catalog) StepByTemplate(t CampaignType, templateID string) (Step, bool) {
	for _, s := range c.defs[t].Steps {
		if s.TemplateID == templateID {
			return s, true
		}
	}
	return Step{}, false
}

// Types lists the campaign types in the catalog.
func (c *Catalog) Types() []CampaignType {
	out := make([]CampaignType, 0, len(c.defs))
	for t := range c.defs {
		out = append(out, t)
	}
	return out
}

func (c *Catalog) validate() error {
	for t, d := range c.defs {
		if len(d.Steps) == 0 {
			return fmt.Errorf("campaign %s has no steps", t)
		}
		seen := map[string]bool{}
		lastOffset := 0
		for i, s := range d.Steps {
			if s.TemplateID == "" {
				return fmt.Errorf("campaign %s step %d has no template id", t, i)
			}
			if seen[s.TemplateID] {
				return fmt.Errorf("campaign %s reuses template id %s", t, s.TemplateID)
			}
			seen[s.TemplateID] = true
			if s.DayOffset < 0 || s.DayOffset < lastOffset {
				return fmt.Errorf("campaign %s step %d: day offsets must not decrease", t, i)
			}
			lastOffset = s.DayOffset
			if s.SendHour < 0 || s.SendHour > 23 {
				return fmt.Errorf("campaign %s step %d: send hour %d out of range", t, i, s.SendHour)
			}
			switch s.Priority {
			case PriorityHigh, PriorityMedium, PriorityLow:
			default:
				return fmt.Errorf("campaign %s step %d: unknown priority %q", t, i, s.Priority)
			}
		}
	}
	return nil
}
