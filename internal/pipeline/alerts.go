package pipeline

import (
	"github.com/scopelens/intel-cli/internal/enrich"
	"github.com/scopelens/intel-cli/internal/model"
)

// synthesizeAlerts turns a post's enrichment candidates into alerts.
// Candidates below the confidence threshold are dropped. The same category
// fires at most once per post: within the batch via seen, across runs via
// the categories already stored for that post. severityFor fills in a
// severity when the enrichment provider omits one.
func synthesizeAlerts(post model.Post, candidates []enrich.AlertCandidate, threshold float64, existing map[model.AlertCategory]bool) []model.Alert {
	if len(candidates) == 0 {
		return nil
	}

	seen := make(map[model.AlertCategory]bool, len(candidates))
	alerts := make([]model.Alert, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence < threshold {
			continue
		}
		category := model.ParseAlertCategory(c.Category)
		if seen[category] || existing[category] {
			continue
		}
		seen[category] = true
		alerts = append(alerts, model.Alert{
			PostIdentityKey: post.IdentityKey,
			ProfileID:       post.ProfileID,
			Category:        category,
			Severity:        severityFor(c),
			Summary:         c.Summary,
		})
	}
	return alerts
}

// severityFor honors the provider's severity when it is one of the known
// grades and otherwise derives one from confidence.
func severityFor(c enrich.AlertCandidate) model.AlertSeverity {
	switch model.AlertSeverity(c.Severity) {
	case model.SeverityLow, model.SeverityMedium, model.SeverityHigh:
		return model.AlertSeverity(c.Severity)
	}
	switch {
	case c.Confidence >= 0.9:
		return model.SeverityHigh
	case c.Confidence >= 0.7:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
