package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Recommender produces prioritized, anchored recommendations from coverage
// gaps. It never fails: every error path terminates in the deterministic
// fallback.
type Recommender struct {
	client Completer
	tuning Tuning
	log    *logrus.Logger
}

// NewRecommender creates a new recommender.
func NewRecommender(client Completer, tuning Tuning, log *logrus.Logger) (recommender *Recommender) {
	recommender = &Recommender{
		client: client,
		tuning: tuning,
		log:    log,
	}
	return recommender
}

// Generate produces recommendations for the match set. Priority order: gaps
// first, then polish candidates among covered items, then canned suggestions
// when everything is covered and strong.
func (r *Recommender) Generate(ctx context.Context, matches []ComplianceMatch) (outcome Outcome[[]Recommendation]) {
	gaps := filterSorted(matches, func(m ComplianceMatch) bool { return m.Status != StatusCovered })
	if len(gaps) > 0 {
		outcome = r.fromPrompt(ctx, buildGapRecommendationPrompt(capMatches(gaps, r.tuning.GapPromptCap)), gaps)
		return outcome
	}

	polish := filterSorted(matches, func(m ComplianceMatch) bool {
		return m.Status == StatusCovered && m.Score < r.tuning.PolishScoreBar
	})
	if len(polish) > 0 {
		outcome = r.fromPrompt(ctx, buildPolishPrompt(capMatches(polish, r.tuning.PolishPromptCap)), polish)
		return outcome
	}

	outcome = Ok(cannedRecommendations())
	return outcome
}

// fromPrompt calls the LLM and falls back deterministically on any failure.
func (r *Recommender) fromPrompt(ctx context.Context, prompt string, source []ComplianceMatch) (outcome Outcome[[]Recommendation]) {
	responseText, err := r.client.Complete(ctx, prompt, 2048)
	if err != nil {
		r.log.WithError(err).Warn("recommendation call failed, using deterministic fallback")
		outcome = Degraded(r.deterministicFallback(source), "recommendation call failed: "+err.Error())
		return outcome
	}

	recommendations, err := parseRecommendations(responseText)
	if err != nil || len(recommendations) == 0 {
		reason := "recommendation response unparseable"
		if err != nil {
			reason += ": " + err.Error()
		}
		r.log.Warn(reason + ", using deterministic fallback")
		outcome = Degraded(r.deterministicFallback(source), reason)
		return outcome
	}

	outcome = Ok(recommendations)
	return outcome
}

// deterministicFallback builds one recommendation per gap from the gap's own
// missing elements and text anchor. It never fails and always yields
// min(cap, len(gaps)) items.
func (r *Recommender) deterministicFallback(gaps []ComplianceMatch) (recommendations []Recommendation) {
	recommendations = []Recommendation{}
	for _, gap := range gaps {
		if len(recommendations) >= r.tuning.FallbackCap {
			break
		}

		priority := "medium"
		if gap.Score < 50 {
			priority = "high"
		}

		description := "Add content addressing requirement " + gap.RequirementID + "."
		if len(gap.MissingElements) > 0 {
			description = fmt.Sprintf("Add content covering: %s.", strings.Join(gap.MissingElements, ", "))
		}
		if gap.TextAnchor != "" {
			description += fmt.Sprintf(" Place the new content near: %q.", gap.TextAnchor)
		} else {
			description += " No related text was found; add a new dedicated section."
		}

		recommendations = append(recommendations, Recommendation{
			Priority:      priority,
			RequirementID: gap.RequirementID,
			Title:         "Address requirement " + gap.RequirementID,
			Description:   description,
			TextAnchor:    gap.TextAnchor,
			SourceFile:    gap.SourceFile,
		})
	}
	return recommendations
}

// cannedRecommendations are the fixed suggestions when every requirement is
// covered with strong scores. No LLM call is made.
func cannedRecommendations() (recommendations []Recommendation) {
	recommendations = []Recommendation{
		{
			Priority:    "low",
			Title:       "Review terminology consistency",
			Description: "All requirements are covered. Review the documents for consistent terminology and cross-references between related sections.",
		},
		{
			Priority:    "low",
			Title:       "Schedule a periodic review",
			Description: "Set a recurring review date so the documents stay aligned with current practice and regulatory changes.",
		},
	}
	return recommendations
}

// filterSorted selects matches and orders them worst-first, then by id for
// determinism.
func filterSorted(matches []ComplianceMatch, keep func(ComplianceMatch) bool) (selected []ComplianceMatch) {
	selected = []ComplianceMatch{}
	for _, match := range matches {
		if keep(match) {
			selected = append(selected, match)
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].Score != selected[j].Score {
			return selected[i].Score < selected[j].Score
		}
		return selected[i].RequirementID < selected[j].RequirementID
	})
	return selected
}

func capMatches(matches []ComplianceMatch, limit int) (capped []ComplianceMatch) {
	capped = matches
	if len(capped) > limit {
		capped = capped[:limit]
	}
	return capped
}
