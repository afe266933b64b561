package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/producex-ai/axiom-sub001/pkg/checklist"
)

// Completer is the text-generation collaborator. It is treated as a stateless
// request/response service; *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// phase names the orchestrator states. Blocked is the only early exit; every
// other transition is unconditional given valid inputs.
type phase string

const (
	phaseIdle             phase = "idle"
	phaseRelevanceChecked phase = "relevance_checked"
	phaseBlocked          phase = "blocked"
	phaseFactsExtracted   phase = "facts_extracted"
	phaseAssessed         phase = "assessed"
	phaseCalibrated       phase = "calibrated"
	phaseRecommended      phase = "recommendations_generated"
	phaseDone             phase = "done"
)

// Engine wires the analysis pipeline: relevance gate, fact extraction,
// assessment, calibration, and recommendation generation. The engine holds
// only configuration and collaborators; every analysis invocation creates its
// entities fresh and discards them with the returned result. Statelessness
// between calls is a correctness requirement, not an optimization.
type Engine struct {
	client      Completer
	tuning      Tuning
	log         *logrus.Logger
	relevance   *RelevanceValidator
	extractor   *Extractor
	assessor    *Assessor
	calibrator  *Calibrator
	recommender *Recommender
}

// NewEngine creates an analysis engine. A nil logger gets a default.
func NewEngine(client Completer, tuning Tuning, log *logrus.Logger) (engine *Engine) {
	if log == nil {
		log = logrus.New()
	}
	engine = &Engine{
		client:      client,
		tuning:      tuning,
		log:         log,
		relevance:   NewRelevanceValidator(client, tuning, log),
		extractor:   NewExtractor(tuning),
		assessor:    NewAssessor(client, tuning, log),
		calibrator:  NewCalibrator(tuning),
		recommender: NewRecommender(client, tuning, log),
	}
	return engine
}

// Analyze runs the full analysis path and assembles the public result shape.
// The only hard failure is missing top-level input; every downstream problem
// degrades to a conservative result instead.
func (e *Engine) Analyze(ctx context.Context, requirements []checklist.Requirement, docs []Document, subModuleDescription string) (result AnalysisResult, err error) {
	if len(requirements) == 0 && len(docs) == 0 {
		err = errors.New("nothing to analyze: no requirements and no documents")
		return result, err
	}

	analysisID := uuid.NewString()
	startedAt := time.Now()
	e.step(analysisID, phaseIdle)

	relevanceOutcome := e.relevance.Validate(ctx, docs, requirements, subModuleDescription)
	e.step(analysisID, phaseRelevanceChecked)
	report := relevanceOutcome.Value

	if report.ShouldBlockAnalysis {
		e.step(analysisID, phaseBlocked)
		result = e.blockedResult(analysisID, startedAt, requirements, report)
		return result, err
	}

	facts := e.extractor.ExtractFacts(requirements, docs)
	e.step(analysisID, phaseFactsExtracted)

	assessOutcome := e.assessor.Assess(ctx, facts)
	e.step(analysisID, phaseAssessed)
	matches := assessOutcome.Value

	scores := e.calibrator.Calibrate(matches, docs)
	e.step(analysisID, phaseCalibrated)

	recOutcome := e.recommender.Generate(ctx, matches)
	e.step(analysisID, phaseRecommended)

	result = e.assemble(analysisID, startedAt, matches, scores, report, recOutcome.Value, docs)
	e.step(analysisID, phaseDone)

	return result, err
}

// AnalyzeLightweight runs the fast score-only path: it stops after
// calibration, skipping recommendation generation and the structural and
// audit-readiness object construction.
func (e *Engine) AnalyzeLightweight(ctx context.Context, requirements []checklist.Requirement, docs []Document, subModuleDescription string) (result LightweightResult, err error) {
	if len(requirements) == 0 && len(docs) == 0 {
		err = errors.New("nothing to analyze: no requirements and no documents")
		return result, err
	}

	analysisID := uuid.NewString()
	e.step(analysisID, phaseIdle)

	relevanceOutcome := e.relevance.Validate(ctx, docs, requirements, subModuleDescription)
	e.step(analysisID, phaseRelevanceChecked)
	report := relevanceOutcome.Value

	if report.ShouldBlockAnalysis {
		e.step(analysisID, phaseBlocked)
		result = LightweightResult{
			AnalysisID:                analysisID,
			DocumentRelevance:         report.Issues,
			ShouldGenerateFromScratch: true,
		}
		return result, err
	}

	facts := e.extractor.ExtractFacts(requirements, docs)
	e.step(analysisID, phaseFactsExtracted)

	assessOutcome := e.assessor.Assess(ctx, facts)
	e.step(analysisID, phaseAssessed)
	matches := assessOutcome.Value

	scores := e.calibrator.Calibrate(matches, docs)
	e.step(analysisID, phaseCalibrated)

	result = LightweightResult{
		AnalysisID:          analysisID,
		OverallScore:        scores.OverallScore,
		ContentScore:        scores.ContentScore,
		StructureScore:      scores.StructureScore,
		AuditReadinessScore: scores.AuditReadinessScore,
		DocumentRelevance:   report.Issues,
		CanImprove:          scores.OverallScore < e.tuning.PolishScoreBar,
		CanMerge:            len(docs) > 1,
	}

	return result, err
}

// assemble builds the full result shape and its invariant-bound aggregates:
// coverageMap keys are exactly the requirement id set, bucket counts sum to
// the requirement count.
func (e *Engine) assemble(analysisID string, startedAt time.Time, matches []ComplianceMatch, scores Scores, report RelevanceReport, recommendations []Recommendation, docs []Document) (result AnalysisResult) {
	coverageMap := make(map[string]Status, len(matches))
	buckets := map[Status]*CoverageBucket{
		StatusCovered: {RequirementIDs: []string{}},
		StatusPartial: {RequirementIDs: []string{}},
		StatusMissing: {RequirementIDs: []string{}},
	}
	for _, match := range matches {
		coverageMap[match.RequirementID] = match.Status
		bucket := buckets[match.Status]
		bucket.Count++
		bucket.RequirementIDs = append(bucket.RequirementIDs, match.RequirementID)
	}

	structural := scores.Structural
	readiness := scores.AuditReadiness

	result = AnalysisResult{
		AnalysisID:                analysisID,
		StartedAt:                 startedAt,
		CompletedAt:               time.Now(),
		OverallScore:              scores.OverallScore,
		ContentScore:              scores.ContentScore,
		StructureScore:            scores.StructureScore,
		AuditReadinessScore:       scores.AuditReadinessScore,
		DocumentRelevance:         report.Issues,
		CanImprove:                scores.OverallScore < e.tuning.PolishScoreBar,
		CanMerge:                  len(docs) > 1,
		ShouldGenerateFromScratch: len(matches) > 0 && buckets[StatusMissing].Count == len(matches),
		ContentCoverage:           matches,
		StructuralAnalysis:        &structural,
		AuditReadiness:            &readiness,
		Recommendations:           recommendations,
		Covered:                   *buckets[StatusCovered],
		Partial:                   *buckets[StatusPartial],
		Missing:                   *buckets[StatusMissing],
		CoverageMap:               coverageMap,
	}

	return result
}

// blockedResult is the terminal result when too many documents are off
// topic: every requirement missing, all scores zero, and recommendations
// derived only from the relevance issues. The fact extractor and
// recommendation generator are never invoked on this path.
func (e *Engine) blockedResult(analysisID string, startedAt time.Time, requirements []checklist.Requirement, report RelevanceReport) (result AnalysisResult) {
	matches := make([]ComplianceMatch, 0, len(requirements))
	coverageMap := make(map[string]Status, len(requirements))
	missingIDs := make([]string, 0, len(requirements))
	for _, req := range requirements {
		matches = append(matches, ComplianceMatch{
			RequirementID:   req.ID,
			Status:          StatusMissing,
			Score:           0,
			Coverage:        0,
			MissingElements: []string{"Document topic does not match this submodule"},
		})
		coverageMap[req.ID] = StatusMissing
		missingIDs = append(missingIDs, req.ID)
	}

	recommendations := []Recommendation{}
	for _, issue := range report.Issues {
		if issue.IsRelevant {
			continue
		}
		expected := issue.SuggestedTopic
		if expected == "" {
			expected = "the submodule under analysis"
		}
		description := fmt.Sprintf("%q appears to be about %q but this submodule expects %s. Upload a document matching the submodule topic.",
			issue.DocumentName, issue.IdentifiedTopic, expected)
		recommendations = append(recommendations, Recommendation{
			Priority:    "high",
			Title:       "Replace off-topic document " + issue.DocumentName,
			Description: description,
		})
	}

	result = AnalysisResult{
		AnalysisID:                analysisID,
		StartedAt:                 startedAt,
		CompletedAt:               time.Now(),
		DocumentRelevance:         report.Issues,
		CanImprove:                false,
		CanMerge:                  false,
		ShouldGenerateFromScratch: true,
		ContentCoverage:           matches,
		Recommendations:           recommendations,
		Covered:                   CoverageBucket{RequirementIDs: []string{}},
		Partial:                   CoverageBucket{RequirementIDs: []string{}},
		Missing:                   CoverageBucket{Count: len(missingIDs), RequirementIDs: missingIDs},
		CoverageMap:               coverageMap,
	}

	return result
}

// step logs one state transition.
func (e *Engine) step(analysisID string, next phase) {
	e.log.WithFields(logrus.Fields{
		"analysis_id": analysisID,
		"phase":       next,
	}).Debug("analysis phase")
}
