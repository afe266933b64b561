package analysis

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// assessmentRule is one deterministic high-confidence rule. Rules are
// evaluated in order; the first match wins.
type assessmentRule struct {
	Name    string
	Status  Status
	Score   int
	Matches func(fact ExtractedFact, coverage float64) bool
}

//nolint:gochecknoglobals // Assessment configuration constants
var highConfidenceRules = []assessmentRule{
	{
		Name: "exhaustive evidence", Status: StatusCovered, Score: 98,
		Matches: func(f ExtractedFact, cov float64) bool {
			return f.Confidence >= 0.95 && cov >= 0.8 && f.MatchQuality.SpecificMatches >= 5 && f.MatchQuality.TotalMatchLength >= 800
		},
	},
	{
		Name: "strong evidence", Status: StatusCovered, Score: 92,
		Matches: func(f ExtractedFact, cov float64) bool {
			return f.Confidence >= 0.90 && cov >= 0.7 && f.MatchQuality.SpecificMatches >= 3 && f.MatchQuality.TotalMatchLength >= 500
		},
	},
	{
		Name: "solid evidence", Status: StatusCovered, Score: 87,
		Matches: func(f ExtractedFact, cov float64) bool {
			return f.Confidence >= 0.85 && cov >= 0.6 && f.MatchQuality.SpecificMatches >= 2 && f.MatchQuality.TotalMatchLength >= 300
		},
	},
	{
		Name: "adequate evidence", Status: StatusCovered, Score: 82,
		Matches: func(f ExtractedFact, cov float64) bool {
			return f.Confidence >= 0.70 && cov >= 0.5 && (f.MatchQuality.SpecificMatches >= 1 || f.MatchQuality.TotalMatchLength >= 200)
		},
	},
	{
		Name: "substantial partial", Status: StatusPartial, Score: 75,
		Matches: func(f ExtractedFact, cov float64) bool {
			return f.Confidence >= 0.70 && (cov >= 0.4 || f.MatchQuality.SpecificMatches >= 1)
		},
	},
	{
		Name: "moderate partial", Status: StatusPartial, Score: 60,
		Matches: func(f ExtractedFact, cov float64) bool {
			return f.Confidence >= 0.50 || cov >= 0.3
		},
	},
	{
		Name: "weak partial", Status: StatusPartial, Score: 40,
		Matches: func(f ExtractedFact, cov float64) bool {
			return true
		},
	},
}

// verdictScores maps adjudicated verdicts to scores and coverage.
//
//nolint:gochecknoglobals // Assessment configuration constants
var verdictScores = map[string]struct {
	Status   Status
	Score    int
	Coverage float64
}{
	"covered": {Status: StatusCovered, Score: 100, Coverage: 0.85},
	"partial": {Status: StatusPartial, Score: 50, Coverage: 0.5},
	"missing": {Status: StatusMissing, Score: 0, Coverage: 0.2},
}

// validationResponse is the wire shape the adjudicator is asked to return.
type validationResponse struct {
	Verdicts []validationVerdict `json:"verdicts"`
}

type validationVerdict struct {
	RequirementID   string   `json:"requirement_id"`
	Verdict         string   `json:"verdict"`
	MissingElements []string `json:"missing_elements"`
}

// Assessor converts extracted facts into compliance matches. Strong evidence
// is classified deterministically; ambiguous evidence goes through batched
// LLM adjudication.
type Assessor struct {
	client Completer
	tuning Tuning
	log    *logrus.Logger
}

// NewAssessor creates a new assessor.
func NewAssessor(client Completer, tuning Tuning, log *logrus.Logger) (assessor *Assessor) {
	assessor = &Assessor{
		client: client,
		tuning: tuning,
		log:    log,
	}
	return assessor
}

// Assess classifies every fact. The outcome is degraded when any adjudication
// batch fell back; the reason records which batches failed and why.
func (a *Assessor) Assess(ctx context.Context, facts []ExtractedFact) (outcome Outcome[[]ComplianceMatch]) {
	matches := make([]ComplianceMatch, 0, len(facts))
	medium := []ExtractedFact{}

	for _, fact := range facts {
		switch {
		case !fact.TopicMentioned:
			matches = append(matches, notFoundMatch(fact))
		case fact.Confidence >= a.tuning.HighConfidence:
			matches = append(matches, assessDeterministic(fact))
		case fact.Confidence >= a.tuning.MediumConfidence:
			medium = append(medium, fact)
		default:
			matches = append(matches, lowConfidenceMatch(fact))
		}
	}

	adjudicated, reasons := a.adjudicate(ctx, medium)
	matches = append(matches, adjudicated...)

	sort.Slice(matches, func(i, j int) bool { return matches[i].RequirementID < matches[j].RequirementID })

	if len(reasons) > 0 {
		outcome = Degraded(matches, strings.Join(reasons, "; "))
		return outcome
	}
	outcome = Ok(matches)
	return outcome
}

// assessDeterministic applies the ordered high-confidence rule table.
func assessDeterministic(fact ExtractedFact) (match ComplianceMatch) {
	coverage := finalCoverage(fact)

	var rule assessmentRule
	for _, r := range highConfidenceRules {
		if r.Matches(fact, coverage) {
			rule = r
			break
		}
	}

	missing := missingDetailKeys(fact.Details)
	if rule.Status == StatusPartial && len(missing) == 0 {
		missing = []string{"Additional details recommended"}
	}

	match = ComplianceMatch{
		RequirementID:   fact.RequirementID,
		Status:          rule.Status,
		Score:           rule.Score,
		Coverage:        coverage,
		MissingElements: missing,
		Evidence:        strings.Join(fact.Quotes, "\n"),
		TextAnchor:      anchorFrom(fact),
		SourceFile:      fact.SourceFile,
		Confidence:      fact.Confidence,
	}

	return match
}

// finalCoverage is the better of element coverage and the weighted evidence
// coverage estimate.
func finalCoverage(fact ExtractedFact) (coverage float64) {
	weighted := 0.5*(float64(fact.MatchQuality.SpecificMatches)/5) +
		0.3*(minFloat(float64(fact.MatchQuality.TotalMatchLength), 1000)/1000) +
		0.2*(minFloat(float64(fact.MatchQuality.SectionCount), 5)/5)
	if weighted > 1 {
		weighted = 1
	}

	coverage = elementCoverage(fact.Details)
	if weighted > coverage {
		coverage = weighted
	}

	return coverage
}

// adjudicate sends medium-confidence facts to the LLM in sequential batches.
// Batches are sequential rather than concurrent to keep prompt sizes and
// external rate limits bounded.
func (a *Assessor) adjudicate(ctx context.Context, facts []ExtractedFact) (matches []ComplianceMatch, reasons []string) {
	matches = []ComplianceMatch{}

	for start := 0; start < len(facts); start += a.tuning.ValidationBatchSize {
		end := start + a.tuning.ValidationBatchSize
		if end > len(facts) {
			end = len(facts)
		}
		batch := facts[start:end]

		batchMatches, reason := a.adjudicateBatch(ctx, batch)
		matches = append(matches, batchMatches...)
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	return matches, reasons
}

// adjudicateBatch runs one batch. Any call or parse failure resolves every
// item in the batch to the inconclusive default; the failure is never
// propagated.
func (a *Assessor) adjudicateBatch(ctx context.Context, batch []ExtractedFact) (matches []ComplianceMatch, reason string) {
	if len(batch) == 0 {
		return matches, reason
	}

	prompt := buildValidationPrompt(batch)

	responseText, err := a.client.Complete(ctx, prompt, 2048)
	if err != nil {
		a.log.WithError(err).Warn("validation batch call failed, marking batch inconclusive")
		reason = "validation call failed: " + err.Error()
		matches = inconclusiveBatch(batch)
		return matches, reason
	}

	jsonText, err := repairJSON(responseText)
	if err != nil {
		a.log.WithError(err).Warn("validation response unparseable, marking batch inconclusive")
		reason = "validation response unparseable: " + err.Error()
		matches = inconclusiveBatch(batch)
		return matches, reason
	}

	var parsed validationResponse
	err = json.Unmarshal([]byte(jsonText), &parsed)
	if err != nil {
		a.log.WithError(err).Warn("validation JSON shape mismatch, marking batch inconclusive")
		reason = "validation JSON malformed: " + err.Error()
		matches = inconclusiveBatch(batch)
		return matches, reason
	}

	byID := make(map[string]validationVerdict, len(parsed.Verdicts))
	for _, verdict := range parsed.Verdicts {
		byID[verdict.RequirementID] = verdict
	}

	for _, fact := range batch {
		verdict, found := byID[fact.RequirementID]
		mapping, known := verdictScores[strings.ToLower(verdict.Verdict)]
		if !found || !known {
			matches = append(matches, inconclusiveMatch(fact))
			continue
		}

		matches = append(matches, ComplianceMatch{
			RequirementID:   fact.RequirementID,
			Status:          mapping.Status,
			Score:           mapping.Score,
			Coverage:        mapping.Coverage,
			MissingElements: verdict.MissingElements,
			Evidence:        strings.Join(fact.Quotes, "\n"),
			TextAnchor:      anchorFrom(fact),
			SourceFile:      fact.SourceFile,
			Confidence:      fact.Confidence,
		})
	}

	return matches, reason
}

func inconclusiveBatch(batch []ExtractedFact) (matches []ComplianceMatch) {
	matches = make([]ComplianceMatch, 0, len(batch))
	for _, fact := range batch {
		matches = append(matches, inconclusiveMatch(fact))
	}
	return matches
}

func inconclusiveMatch(fact ExtractedFact) (match ComplianceMatch) {
	match = ComplianceMatch{
		RequirementID:   fact.RequirementID,
		Status:          StatusPartial,
		Score:           50,
		Coverage:        0.5,
		MissingElements: []string{"Validation inconclusive"},
		Evidence:        strings.Join(fact.Quotes, "\n"),
		TextAnchor:      anchorFrom(fact),
		SourceFile:      fact.SourceFile,
		Confidence:      fact.Confidence,
	}
	return match
}

func lowConfidenceMatch(fact ExtractedFact) (match ComplianceMatch) {
	match = ComplianceMatch{
		RequirementID:   fact.RequirementID,
		Status:          StatusMissing,
		Score:           0,
		Coverage:        0.2,
		MissingElements: []string{"Insufficient evidence found"},
		Evidence:        strings.Join(fact.Quotes, "\n"),
		TextAnchor:      anchorFrom(fact),
		SourceFile:      fact.SourceFile,
		Confidence:      fact.Confidence,
	}
	return match
}

func notFoundMatch(fact ExtractedFact) (match ComplianceMatch) {
	match = ComplianceMatch{
		RequirementID:   fact.RequirementID,
		Status:          StatusMissing,
		Score:           0,
		Coverage:        0,
		MissingElements: []string{"Insufficient evidence found"},
		Confidence:      0,
	}
	return match
}

// missingDetailKeys lists detected-but-absent elements in deterministic order.
func missingDetailKeys(details map[string]string) (missing []string) {
	missing = []string{}
	keys := make([]string, 0, len(details))
	for key := range details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if details[key] == "not_found" {
			missing = append(missing, key)
		}
	}
	return missing
}

// anchorFrom derives the short placement anchor from the strongest quote.
func anchorFrom(fact ExtractedFact) (anchor string) {
	if len(fact.Quotes) == 0 {
		return anchor
	}
	anchor = fact.Quotes[0]
	if len(anchor) > 80 {
		anchor = anchor[:80]
	}
	return anchor
}

func minFloat(a, b float64) (m float64) {
	m = a
	if b < a {
		m = b
	}
	return m
}
