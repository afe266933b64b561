package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/producex-ai/axiom-sub001/pkg/checklist"
)

// RelevanceReport is the outcome of the document relevance gate.
type RelevanceReport struct {
	Issues              []DocumentRelevanceIssue `json:"issues"`
	ShouldBlockAnalysis bool                     `json:"should_block_analysis"`
}

// relevanceResponse is the wire shape the classifier is asked to return.
type relevanceResponse struct {
	Documents []relevanceVerdict `json:"documents"`
}

type relevanceVerdict struct {
	DocumentName          string   `json:"document_name"`
	RelevanceScore        int      `json:"relevance_score"`
	Reasoning             string   `json:"reasoning"`
	IdentifiedTopic       string   `json:"identified_topic"`
	RequirementsAddressed []string `json:"requirements_addressed"`
	RequirementsMissing   []string `json:"requirements_missing"`
	SuggestedTopic        string   `json:"suggested_topic"`
	Recommendation        string   `json:"recommendation"`
}

// RelevanceValidator scores each document's topical fit against the
// submodule. A classification outage must not halt document processing, so
// every failure path fails open.
type RelevanceValidator struct {
	client Completer
	tuning Tuning
	log    *logrus.Logger
}

// NewRelevanceValidator creates a new relevance validator.
func NewRelevanceValidator(client Completer, tuning Tuning, log *logrus.Logger) (validator *RelevanceValidator) {
	validator = &RelevanceValidator{
		client: client,
		tuning: tuning,
		log:    log,
	}
	return validator
}

// Validate scores every document against the submodule topic. On any service
// or parse failure it returns a degraded report that treats all documents as
// relevant.
func (v *RelevanceValidator) Validate(ctx context.Context, docs []Document, requirements []checklist.Requirement, subModuleDescription string) (outcome Outcome[RelevanceReport]) {
	if len(docs) == 0 {
		outcome = Ok(RelevanceReport{Issues: []DocumentRelevanceIssue{}})
		return outcome
	}

	prompt := buildRelevancePrompt(docs, requirements, subModuleDescription)

	responseText, err := v.client.Complete(ctx, prompt, 2048)
	if err != nil {
		v.log.WithError(err).Warn("relevance check failed, treating all documents as relevant")
		outcome = Degraded(v.failOpen(docs), "relevance service call failed: "+err.Error())
		return outcome
	}

	jsonText, err := extractFirstJSONObject(responseText)
	if err != nil {
		v.log.WithError(err).Warn("relevance response had no JSON object, treating all documents as relevant")
		outcome = Degraded(v.failOpen(docs), "relevance response not parseable: "+err.Error())
		return outcome
	}

	var parsed relevanceResponse
	err = json.Unmarshal([]byte(jsonText), &parsed)
	if err != nil {
		v.log.WithError(err).Warn("relevance JSON did not match expected shape, treating all documents as relevant")
		outcome = Degraded(v.failOpen(docs), "relevance JSON malformed: "+err.Error())
		return outcome
	}

	outcome = Ok(v.buildReport(docs, parsed))
	return outcome
}

// buildReport matches verdicts to documents by name and applies the block
// rule. A document without a verdict is treated as relevant.
func (v *RelevanceValidator) buildReport(docs []Document, parsed relevanceResponse) (report RelevanceReport) {
	byName := make(map[string]relevanceVerdict, len(parsed.Documents))
	for _, verdict := range parsed.Documents {
		byName[strings.ToLower(verdict.DocumentName)] = verdict
	}

	below := 0
	report.Issues = make([]DocumentRelevanceIssue, 0, len(docs))
	for _, doc := range docs {
		verdict, found := byName[strings.ToLower(doc.FileName)]
		if !found {
			report.Issues = append(report.Issues, assumedRelevant(doc.FileName, "no verdict returned for this document"))
			continue
		}

		score := verdict.RelevanceScore
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}

		issue := DocumentRelevanceIssue{
			DocumentName:          doc.FileName,
			RelevanceScore:        score,
			IsRelevant:            score >= v.tuning.RelevanceThreshold,
			Reasoning:             verdict.Reasoning,
			IdentifiedTopic:       verdict.IdentifiedTopic,
			RequirementsAddressed: verdict.RequirementsAddressed,
			RequirementsMissing:   verdict.RequirementsMissing,
			SuggestedTopic:        verdict.SuggestedTopic,
			Recommendation:        verdict.Recommendation,
		}
		if !issue.IsRelevant {
			below++
		}
		report.Issues = append(report.Issues, issue)
	}

	report.ShouldBlockAnalysis = float64(below) > v.tuning.BlockFraction*float64(len(docs))

	return report
}

// failOpen marks every document relevant.
func (v *RelevanceValidator) failOpen(docs []Document) (report RelevanceReport) {
	report.Issues = make([]DocumentRelevanceIssue, 0, len(docs))
	for _, doc := range docs {
		report.Issues = append(report.Issues, assumedRelevant(doc.FileName, "relevance check unavailable, assumed relevant"))
	}
	return report
}

func assumedRelevant(name, reason string) (issue DocumentRelevanceIssue) {
	issue = DocumentRelevanceIssue{
		DocumentName:   name,
		RelevanceScore: 100,
		IsRelevant:     true,
		Reasoning:      reason,
	}
	return issue
}
