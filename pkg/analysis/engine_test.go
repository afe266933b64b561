package analysis

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/producex-ai/axiom-sub001/pkg/checklist"
)

//nolint:gochecknoglobals // Shared test fixture
var errAlways = errors.New("service unavailable")

// fakeCompleter replays scripted responses in order. The last response is
// repeated once the script runs out.
type fakeCompleter struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("fake completer has no scripted response")
	}
	response := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return response, nil
}

func relevantVerdicts(names ...string) (response string) {
	response = `{"documents": [`
	for i, name := range names {
		if i > 0 {
			response += ","
		}
		response += `{"document_name": "` + name + `", "relevance_score": 90, "identified_topic": "pest control"}`
	}
	response += `]}`
	return response
}

func analysisInputs() (requirements []checklist.Requirement, docs []Document) {
	requirements = []checklist.Requirement{
		{ID: "1.01", Title: "Pest control program", Description: "Describe monitoring and record keeping for the pest control program.", Keywords: []string{"pest control"}},
		{ID: "4.02", Title: "CAPA trigger thresholds"},
	}
	docs = []Document{pestDocument()}
	return requirements, docs
}

func TestAnalyzeFullPath(t *testing.T) {
	requirements, docs := analysisInputs()
	fake := &fakeCompleter{responses: []string{
		relevantVerdicts("pest-control-plan.txt"),
		`{"recommendations": [{"priority": "high", "requirement_id": "4.02", "title": "Define CAPA thresholds", "description": "Add a section defining when corrective action is triggered."}]}`,
	}}

	engine := NewEngine(fake, DefaultTuning(), quietLogger())

	result, err := engine.Analyze(context.Background(), requirements, docs, "pest control")
	if err != nil {
		t.Fatalf("Expected no error, got: %s", err)
	}

	if result.AnalysisID == "" {
		t.Error("Expected a fresh analysis id")
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Error("CompletedAt must not precede StartedAt")
	}

	// One relevance call plus one recommendation call; extraction and
	// assessment are deterministic for these inputs.
	if fake.calls != 2 {
		t.Errorf("Expected 2 LLM calls, got %d", fake.calls)
	}

	if len(result.CoverageMap) != len(requirements) {
		t.Errorf("Coverage map must key every requirement: got %d keys for %d requirements", len(result.CoverageMap), len(requirements))
	}
	for _, req := range requirements {
		if _, found := result.CoverageMap[req.ID]; !found {
			t.Errorf("Coverage map missing requirement %s", req.ID)
		}
	}

	total := result.Covered.Count + result.Partial.Count + result.Missing.Count
	if total != len(requirements) {
		t.Errorf("Bucket counts must sum to requirement count: %d != %d", total, len(requirements))
	}

	if result.CoverageMap["1.01"] != StatusCovered {
		t.Errorf("Expected pest control requirement covered, got %s", result.CoverageMap["1.01"])
	}
	if result.CoverageMap["4.02"] != StatusMissing {
		t.Errorf("Expected CAPA requirement missing, got %s", result.CoverageMap["4.02"])
	}

	if result.OverallScore < 0 || result.OverallScore > 100 {
		t.Errorf("Overall score out of range: %d", result.OverallScore)
	}
	if result.ContentScore > 95 || result.AuditReadinessScore > 95 {
		t.Errorf("Content and audit readiness scores are capped at 95, got %d/%d", result.ContentScore, result.AuditReadinessScore)
	}

	if len(result.Recommendations) == 0 {
		t.Error("Expected recommendations for the coverage gap")
	}
	if result.CanMerge {
		t.Error("CanMerge should be false with a single document")
	}
	if result.ShouldGenerateFromScratch {
		t.Error("ShouldGenerateFromScratch should be false when evidence was found")
	}
	if result.StructuralAnalysis == nil || result.AuditReadiness == nil {
		t.Error("Full result must include structural and audit readiness objects")
	}
}

func TestAnalyzeBlocked(t *testing.T) {
	requirements, _ := analysisInputs()
	docs := []Document{
		{FileName: "recipes.txt", Text: "Chocolate cake recipe."},
		{FileName: "menu.txt", Text: "Lunch menu for the canteen."},
		{FileName: "newsletter.txt", Text: "Monthly staff newsletter."},
		{FileName: "pest.txt", Text: pestDocument().Text},
	}

	fake := &fakeCompleter{responses: []string{`{"documents": [
		{"document_name": "recipes.txt", "relevance_score": 10, "identified_topic": "recipes", "suggested_topic": "pest control"},
		{"document_name": "menu.txt", "relevance_score": 15, "identified_topic": "catering"},
		{"document_name": "newsletter.txt", "relevance_score": 20, "identified_topic": "internal communications"},
		{"document_name": "pest.txt", "relevance_score": 90, "identified_topic": "pest control"}
	]}`}}

	engine := NewEngine(fake, DefaultTuning(), quietLogger())

	result, err := engine.Analyze(context.Background(), requirements, docs, "pest control")
	if err != nil {
		t.Fatalf("Blocked analysis is not an error, got: %s", err)
	}

	// 3 of 4 documents below threshold exceeds the half fraction.
	if fake.calls != 1 {
		t.Errorf("Blocked analysis must stop after the relevance call, got %d calls", fake.calls)
	}

	if !result.ShouldGenerateFromScratch {
		t.Error("Blocked result must set ShouldGenerateFromScratch")
	}
	if result.CanImprove {
		t.Error("Blocked result must not claim it can improve")
	}
	if result.OverallScore != 0 {
		t.Errorf("Blocked result scores must be zero, got %d", result.OverallScore)
	}
	if result.Missing.Count != len(requirements) {
		t.Errorf("Every requirement must be missing when blocked: %d != %d", result.Missing.Count, len(requirements))
	}

	if len(result.Recommendations) != 3 {
		t.Fatalf("Expected one recommendation per off-topic document, got %d", len(result.Recommendations))
	}
	for _, rec := range result.Recommendations {
		if rec.Priority != "high" {
			t.Errorf("Blocked recommendations must be high priority, got '%s'", rec.Priority)
		}
	}
}

func TestAnalyzeNotBlockedAtExactlyHalf(t *testing.T) {
	requirements, _ := analysisInputs()
	docs := []Document{
		{FileName: "recipes.txt", Text: "Chocolate cake recipe."},
		{FileName: "pest.txt", Text: pestDocument().Text},
	}

	fake := &fakeCompleter{responses: []string{
		`{"documents": [
			{"document_name": "recipes.txt", "relevance_score": 10, "identified_topic": "recipes"},
			{"document_name": "pest.txt", "relevance_score": 90, "identified_topic": "pest control"}
		]}`,
		`{"recommendations": [{"priority": "high", "requirement_id": "4.02", "title": "Define CAPA thresholds", "description": "Add the trigger thresholds."}]}`,
	}}

	engine := NewEngine(fake, DefaultTuning(), quietLogger())

	result, err := engine.Analyze(context.Background(), requirements, docs, "pest control")
	if err != nil {
		t.Fatalf("Expected no error, got: %s", err)
	}

	// Exactly half below threshold does not block; the fraction must be
	// strictly exceeded.
	if result.ShouldGenerateFromScratch {
		t.Error("Analysis must proceed when exactly half the documents are off topic")
	}
	if result.OverallScore == 0 {
		t.Error("Expected a non-zero score from the surviving document")
	}
}

func TestAnalyzeServiceOutageDegradesEverywhere(t *testing.T) {
	requirements, docs := analysisInputs()
	fake := &fakeCompleter{err: errAlways}

	engine := NewEngine(fake, DefaultTuning(), quietLogger())

	result, err := engine.Analyze(context.Background(), requirements, docs, "pest control")
	if err != nil {
		t.Fatalf("Service outage must not fail the analysis, got: %s", err)
	}

	// Relevance fails open: every document assumed relevant.
	for _, issue := range result.DocumentRelevance {
		if !issue.IsRelevant || issue.RelevanceScore != 100 {
			t.Errorf("Fail-open issue should be relevant/100, got %v/%d", issue.IsRelevant, issue.RelevanceScore)
		}
	}

	// The recommendation fallback still yields one item per gap.
	if len(result.Recommendations) == 0 {
		t.Error("Expected deterministic fallback recommendations")
	}
	if result.OverallScore <= 0 {
		t.Errorf("Deterministic scoring must survive the outage, got %d", result.OverallScore)
	}
}

func TestAnalyzeLightweightSkipsRecommendations(t *testing.T) {
	requirements, docs := analysisInputs()
	fake := &fakeCompleter{responses: []string{relevantVerdicts("pest-control-plan.txt")}}

	engine := NewEngine(fake, DefaultTuning(), quietLogger())

	result, err := engine.AnalyzeLightweight(context.Background(), requirements, docs, "pest control")
	if err != nil {
		t.Fatalf("Expected no error, got: %s", err)
	}

	// Only the relevance call; no recommendation generation on the fast path.
	if fake.calls != 1 {
		t.Errorf("Lightweight analysis must make exactly 1 LLM call here, got %d", fake.calls)
	}

	if result.AnalysisID == "" {
		t.Error("Expected a fresh analysis id")
	}
	if result.OverallScore < 0 || result.OverallScore > 100 {
		t.Errorf("Overall score out of range: %d", result.OverallScore)
	}
	if result.CanMerge {
		t.Error("CanMerge should be false with a single document")
	}
}

func TestAnalyzeRequiresInputs(t *testing.T) {
	engine := NewEngine(&fakeCompleter{}, DefaultTuning(), quietLogger())

	_, err := engine.Analyze(context.Background(), nil, nil, "")
	if err == nil {
		t.Fatal("Expected an error with no requirements and no documents")
	}

	_, err = engine.AnalyzeLightweight(context.Background(), nil, nil, "")
	if err == nil {
		t.Fatal("Expected an error from the lightweight path too")
	}
}

func TestAnalyzeIsStatelessAcrossRuns(t *testing.T) {
	requirements, docs := analysisInputs()

	run := func() AnalysisResult {
		fake := &fakeCompleter{responses: []string{
			relevantVerdicts("pest-control-plan.txt"),
			`{"recommendations": [{"priority": "high", "requirement_id": "4.02", "title": "Define CAPA thresholds", "description": "Add the trigger thresholds."}]}`,
		}}
		engine := NewEngine(fake, DefaultTuning(), quietLogger())
		result, err := engine.Analyze(context.Background(), requirements, docs, "pest control")
		if err != nil {
			t.Fatalf("Expected no error, got: %s", err)
		}
		return result
	}

	first := run()
	second := run()

	if first.AnalysisID == second.AnalysisID {
		t.Error("Each run must get its own analysis id")
	}
	if first.OverallScore != second.OverallScore {
		t.Errorf("Identical inputs must score identically: %d != %d", first.OverallScore, second.OverallScore)
	}
	if len(first.ContentCoverage) != len(second.ContentCoverage) {
		t.Error("Identical inputs must produce the same match set")
	}
}
