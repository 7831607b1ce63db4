package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopelens/intel-cli/internal/enrich"
	"github.com/scopelens/intel-cli/internal/model"
)

var alertPost = model.Post{
	ProfileID:   "prof-1",
	IdentityKey: "key-1",
	Status:      model.PostStatusEnriched,
}

func TestSynthesizeAlerts_DropsBelowThreshold(t *testing.T) {
	alerts := synthesizeAlerts(alertPost, []enrich.AlertCandidate{
		{Category: "funding", Summary: "Raised a round", Confidence: 0.95},
		{Category: "hiring", Summary: "Maybe hiring", Confidence: 0.3},
	}, 0.6, nil)

	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertCategoryFunding, alerts[0].Category)
	assert.Equal(t, "key-1", alerts[0].PostIdentityKey)
	assert.Equal(t, "prof-1", alerts[0].ProfileID)
}

func TestSynthesizeAlerts_UnknownCategoryMapsToOther(t *testing.T) {
	alerts := synthesizeAlerts(alertPost, []enrich.AlertCandidate{
		{Category: "acquisition", Summary: "Bought a startup", Confidence: 0.8},
	}, 0.6, nil)

	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertCategoryOther, alerts[0].Category)
}

func TestSynthesizeAlerts_AtMostOncePerCategory(t *testing.T) {
	alerts := synthesizeAlerts(alertPost, []enrich.AlertCandidate{
		{Category: "hiring", Summary: "Hiring engineers", Confidence: 0.9},
		{Category: "hiring", Summary: "Hiring sales", Confidence: 0.8},
		{Category: "funding", Summary: "Raised a round", Confidence: 0.9},
	}, 0.6, nil)

	require.Len(t, alerts, 2)
	assert.Equal(t, model.AlertCategoryHiring, alerts[0].Category)
	assert.Equal(t, model.AlertCategoryFunding, alerts[1].Category)
}

func TestSynthesizeAlerts_SkipsCategoriesAlreadyStored(t *testing.T) {
	existing := map[model.AlertCategory]bool{model.AlertCategoryHiring: true}

	alerts := synthesizeAlerts(alertPost, []enrich.AlertCandidate{
		{Category: "hiring", Summary: "Hiring engineers", Confidence: 0.9},
		{Category: "funding", Summary: "Raised a round", Confidence: 0.9},
	}, 0.6, existing)

	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertCategoryFunding, alerts[0].Category)
}

func TestSeverityFor(t *testing.T) {
	// The provider's value wins when it is a known grade.
	assert.Equal(t, model.SeverityHigh, severityFor(enrich.AlertCandidate{Severity: "high", Confidence: 0.5}))
	assert.Equal(t, model.SeverityLow, severityFor(enrich.AlertCandidate{Severity: "low", Confidence: 0.99}))

	// Otherwise severity falls back to confidence bands.
	assert.Equal(t, model.SeverityHigh, severityFor(enrich.AlertCandidate{Confidence: 0.92}))
	assert.Equal(t, model.SeverityMedium, severityFor(enrich.AlertCandidate{Confidence: 0.75}))
	assert.Equal(t, model.SeverityLow, severityFor(enrich.AlertCandidate{Severity: "critical", Confidence: 0.65}))
}
