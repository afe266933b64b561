package analysis

import (
	"context"
	"strings"
	"testing"
)

func gapMatches() (matches []ComplianceMatch) {
	matches = []ComplianceMatch{
		{RequirementID: "1.01", Status: StatusMissing, Score: 0, MissingElements: []string{"monitoring", "records"}},
		{RequirementID: "2.03", Status: StatusPartial, Score: 60, TextAnchor: "cleaning schedule for production areas", SourceFile: "cleaning.txt"},
		{RequirementID: "3.07", Status: StatusPartial, Score: 75, MissingElements: []string{"frequency"}},
	}
	return matches
}

func TestGenerateFromLLM(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		`{"recommendations": [
			{"priority": "high", "requirement_id": "1.01", "title": "Add a monitoring section", "description": "Describe the monitoring program and its records."},
			{"priority": "medium", "requirement_id": "2.03", "title": "Expand the cleaning schedule", "description": "Add frequencies per area."}
		]}`,
	}}
	recommender := NewRecommender(fake, DefaultTuning(), quietLogger())

	outcome := recommender.Generate(context.Background(), gapMatches())
	if outcome.Degraded {
		t.Errorf("Expected clean outcome, got degraded: %s", outcome.Reason)
	}
	if len(outcome.Value) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d", len(outcome.Value))
	}
	if outcome.Value[0].Priority != "high" {
		t.Errorf("Expected high priority first, got '%s'", outcome.Value[0].Priority)
	}

	// The prompt must describe the gaps worst-first.
	prompt := fake.prompts[0]
	if !strings.Contains(prompt, "1.01") {
		t.Error("Prompt should name the worst gap")
	}
	if strings.Index(prompt, "1.01") > strings.Index(prompt, "3.07") {
		t.Error("Gaps should be ordered worst-first in the prompt")
	}
}

func TestGenerateFallbackOnGarbage(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"Sorry, I cannot help with that."}}
	recommender := NewRecommender(fake, DefaultTuning(), quietLogger())

	outcome := recommender.Generate(context.Background(), gapMatches())
	if !outcome.Degraded {
		t.Fatal("Expected degraded outcome on a non-JSON response")
	}

	// One deterministic recommendation per gap.
	if len(outcome.Value) != 3 {
		t.Fatalf("Expected 3 fallback recommendations, got %d", len(outcome.Value))
	}

	byID := map[string]Recommendation{}
	for _, rec := range outcome.Value {
		byID[rec.RequirementID] = rec
	}

	if byID["1.01"].Priority != "high" {
		t.Errorf("Score below 50 should yield high priority, got '%s'", byID["1.01"].Priority)
	}
	if byID["3.07"].Priority != "medium" {
		t.Errorf("Score 75 should yield medium priority, got '%s'", byID["3.07"].Priority)
	}
	if !strings.Contains(byID["1.01"].Description, "monitoring") {
		t.Errorf("Fallback description should name the missing elements, got '%s'", byID["1.01"].Description)
	}
	if !strings.Contains(byID["2.03"].Description, "cleaning schedule for production areas") {
		t.Errorf("Fallback should anchor near existing text when an anchor exists, got '%s'", byID["2.03"].Description)
	}
	if !strings.Contains(byID["1.01"].Description, "dedicated section") {
		t.Errorf("Fallback without an anchor should suggest a new section, got '%s'", byID["1.01"].Description)
	}
}

func TestGenerateFallbackOnCallFailure(t *testing.T) {
	fake := &fakeCompleter{err: errAlways}
	recommender := NewRecommender(fake, DefaultTuning(), quietLogger())

	outcome := recommender.Generate(context.Background(), gapMatches())
	if !outcome.Degraded {
		t.Fatal("Expected degraded outcome on a failed call")
	}
	if !strings.Contains(outcome.Reason, "recommendation call failed") {
		t.Errorf("Reason should record the failure, got '%s'", outcome.Reason)
	}
	if len(outcome.Value) != 3 {
		t.Errorf("Expected 3 fallback recommendations, got %d", len(outcome.Value))
	}
}

func TestGeneratePolishPath(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		`{"recommendations": [{"priority": "low", "requirement_id": "1.01", "title": "Tighten the wording", "description": "Name the responsible role explicitly."}]}`,
	}}
	recommender := NewRecommender(fake, DefaultTuning(), quietLogger())

	matches := []ComplianceMatch{
		{RequirementID: "1.01", Status: StatusCovered, Score: 87},
		{RequirementID: "2.03", Status: StatusCovered, Score: 92},
	}

	outcome := recommender.Generate(context.Background(), matches)
	if outcome.Degraded {
		t.Errorf("Expected clean outcome, got degraded: %s", outcome.Reason)
	}
	if fake.calls != 1 {
		t.Errorf("Polish path should make one LLM call, got %d", fake.calls)
	}
	if len(outcome.Value) != 1 {
		t.Errorf("Expected 1 polish recommendation, got %d", len(outcome.Value))
	}
}

func TestGenerateCannedWhenNothingToImprove(t *testing.T) {
	fake := &fakeCompleter{}
	recommender := NewRecommender(fake, DefaultTuning(), quietLogger())

	matches := []ComplianceMatch{
		{RequirementID: "1.01", Status: StatusCovered, Score: 98},
		{RequirementID: "2.03", Status: StatusCovered, Score: 95},
	}

	outcome := recommender.Generate(context.Background(), matches)
	if outcome.Degraded {
		t.Error("Canned path should never degrade")
	}
	if fake.calls != 0 {
		t.Errorf("Canned path must not call the LLM, got %d calls", fake.calls)
	}
	if len(outcome.Value) == 0 {
		t.Error("Expected canned recommendations")
	}
	for _, rec := range outcome.Value {
		if rec.Priority != "low" {
			t.Errorf("Canned recommendations are low priority, got '%s'", rec.Priority)
		}
	}
}

func TestFallbackCapped(t *testing.T) {
	fake := &fakeCompleter{err: errAlways}
	recommender := NewRecommender(fake, DefaultTuning(), quietLogger())

	matches := []ComplianceMatch{}
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		matches = append(matches, ComplianceMatch{RequirementID: id, Status: StatusMissing, Score: 0})
	}

	outcome := recommender.Generate(context.Background(), matches)
	if len(outcome.Value) != 5 {
		t.Errorf("Fallback is capped at 5 recommendations, got %d", len(outcome.Value))
	}
}
