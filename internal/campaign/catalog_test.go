package campaign_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenpath/outreach-backend/internal/campaign"
	appErrors "github.com/havenpath/outreach-backend/internal/errors"
)

func TestNewCatalogDefaults(t *testing.T) {
	c := campaign.NewCatalog()

	assert.Len(t, c.Types(), 4)
	for _, ct := range []campaign.CampaignType{
		campaign.TypeVeteran, campaign.TypeRecovery, campaign.TypeReentry, campaign.TypeGeneral,
	} {
		steps := c.Steps(ct)
		require.NotEmpty(t, steps, "campaign %s has no steps", ct)
		assert.Equal(t, 0, steps[0].DayOffset, "campaign %s must open on day zero", ct)
		assert.Equal(t, campaign.PriorityHigh, steps[0].Priority, "campaign %s welcome must be high priority", ct)

		last := 0
		for _, s := range steps {
			assert.GreaterOrEqual(t, s.DayOffset, last)
			last = s.DayOffset
		}
	}

	assert.Len(t, c.Steps(campaign.TypeVeteran), 5)
	assert.Len(t, c.Steps(campaign.TypeGeneral), 3)
}

func TestLoadCatalogEmptyPathUsesDefaults(t *testing.T) {
	c, err := campaign.LoadCatalog("")

	require.NoError(t, err)
	assert.Len(t, c.Steps(campaign.TypeVeteran), 5)
}

func TestLoadCatalogShippedFile(t *testing.T) {
	c, err := campaign.LoadCatalog("../../config/campaigns.yaml")

	require.NoError(t, err)
	assert.Len(t, c.Types(), 4)

	step, ok := c.StepByTemplate(campaign.TypeRecovery, "recovery_community")
	require.True(t, ok)
	assert.Equal(t, 2, step.DayOffset)
	assert.Equal(t, 14, step.SendHour)
	assert.Contains(t, step.Template.Text, "{first_name}")
}

func TestLoadCatalogOverridesOneCampaign(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaigns.yaml")
	contents := `campaigns:
  - type: general
    steps:
      - day_offset: 0
        send_hour: 9
        template_id: general_only
        priority: high
        score_boost: 5
        template:
          subject: "Hello {first_name}"
          html: "<p>Hi</p>"
          text: "Hi"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	c, err := campaign.LoadCatalog(path)

	require.NoError(t, err)
	require.Len(t, c.Steps(campaign.TypeGeneral), 1)
	assert.Equal(t, "general_only", c.Steps(campaign.TypeGeneral)[0].TemplateID)
	// untouched campaigns keep their defaults
	assert.Len(t, c.Steps(campaign.TypeVeteran), 5)
}

func TestLoadCatalogRejectsInvalidDefinitions(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"duplicate template id",
			`campaigns:
  - type: general
    steps:
      - {day_offset: 0, send_hour: 10, template_id: a, priority: high, template: {subject: s, text: t}}
      - {day_offset: 1, send_hour: 10, template_id: a, priority: low, template: {subject: s, text: t}}
`,
			"reuses template id",
		},
		{
			"decreasing day offsets",
			`campaigns:
  - type: general
    steps:
      - {day_offset: 3, send_hour: 10, template_id: a, priority: high, template: {subject: s, text: t}}
      - {day_offset: 1, send_hour: 10, template_id: b, priority: low, template: {subject: s, text: t}}
`,
			"day offsets must not decrease",
		},
		{
			"send hour out of range",
			`campaigns:
  - type: general
    steps:
      - {day_offset: 0, send_hour: 24, template_id: a, priority: high, template: {subject: s, text: t}}
`,
			"send hour 24 out of range",
		},
		{
			"unknown priority",
			`campaigns:
  - type: general
    steps:
      - {day_offset: 0, send_hour: 10, template_id: a, priority: urgent, template: {subject: s, text: t}}
`,
			"unknown priority",
		},
		{
			"missing template id",
			`campaigns:
  - type: general
    steps:
      - {day_offset: 0, send_hour: 10, priority: high, template: {subject: s, text: t}}
`,
			"has no template id",
		},
		{
			"empty steps",
			`campaigns:
  - type: general
    steps: []
`,
			"has no steps",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "campaigns.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))

			_, err := campaign.LoadCatalog(path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := campaign.LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefinitionUnknownType(t *testing.T) {
	c := campaign.NewCatalog()

	_, err := c.Definition(campaign.CampaignType("seasonal"))

	require.Error(t, err)
	var unknown *appErrors.ErrUnknownCampaign
	assert.True(t, errors.As(err, &unknown))
}

func TestStepByTemplateMiss(t *testing.T) {
	c := campaign.NewCatalog()

	_, ok := c.StepByTemplate(campaign.TypeVeteran, "not_a_template")

	assert.False(t, ok)
}
