package analysis

import "testing"

func coveredMatches(score int, count int) (matches []ComplianceMatch) {
	for i := 0; i < count; i++ {
		matches = append(matches, ComplianceMatch{Status: StatusCovered, Score: score})
	}
	return matches
}

func TestContentScoreCappedAt95(t *testing.T) {
	calibrator := NewCalibrator(DefaultTuning())

	scores := calibrator.Calibrate(coveredMatches(98, 10), nil)
	if scores.ContentScore != 95 {
		t.Errorf("Expected content score capped at 95, got %d", scores.ContentScore)
	}
}

func TestContentScoreBonusTiers(t *testing.T) {
	calibrator := NewCalibrator(DefaultTuning())

	tests := []struct {
		name    string
		matches []ComplianceMatch
		want    int
	}{
		{
			name:    "all covered high mean",
			matches: coveredMatches(96, 5),
			want:    95, // 96+3 capped to 95
		},
		{
			name: "no missing and decent mean",
			matches: append(coveredMatches(90, 4),
				ComplianceMatch{Status: StatusPartial, Score: 75}),
			// mean 87, no missing -> +2
			want: 89,
		},
		{
			name: "missing items get no bonus",
			matches: append(coveredMatches(90, 4),
				ComplianceMatch{Status: StatusMissing, Score: 0}),
			want: 72,
		},
		{
			name:    "empty match set",
			matches: nil,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := calibrator.Calibrate(tt.matches, nil)
			if scores.ContentScore != tt.want {
				t.Errorf("Expected content score %d, got %d", tt.want, scores.ContentScore)
			}
		})
	}
}

func TestAuditReadinessTermGroups(t *testing.T) {
	calibrator := NewCalibrator(DefaultTuning())

	richText := "This procedure describes monitoring and verification. Records and documentation " +
		"are retained. The quality manager is responsible. The schedule sets the frequency. " +
		"Acceptance criteria are defined. Training is provided. Corrective action follows any deviation."
	docs := []Document{{FileName: "sop.txt", Text: richText}}

	scores := calibrator.Calibrate(coveredMatches(98, 10), docs)

	// All 8 groups present plus full coverage bonus blows past the cap.
	if scores.AuditReadinessScore != 95 {
		t.Errorf("Expected audit readiness capped at 95, got %d", scores.AuditReadinessScore)
	}
	if len(scores.AuditReadiness.TermGroupsPresent) != 8 {
		t.Errorf("Expected all 8 term groups present, got %d: %v", len(scores.AuditReadiness.TermGroupsPresent), scores.AuditReadiness.TermGroupsPresent)
	}
	if scores.AuditReadiness.CoverageBonus != 5 {
		t.Errorf("Full coverage should earn the 5 point bonus, got %d", scores.AuditReadiness.CoverageBonus)
	}
}

func TestAuditReadinessBareDocument(t *testing.T) {
	calibrator := NewCalibrator(DefaultTuning())

	docs := []Document{{FileName: "note.txt", Text: "We keep the kitchen clean."}}
	matches := []ComplianceMatch{{Status: StatusMissing, Score: 0}}

	scores := calibrator.Calibrate(matches, docs)
	if scores.AuditReadinessScore != 70 {
		t.Errorf("Expected the base audit score with no term groups, got %d", scores.AuditReadinessScore)
	}
}

func TestOverallScoreWeighting(t *testing.T) {
	calibrator := NewCalibrator(DefaultTuning())

	matches := []ComplianceMatch{
		{Status: StatusCovered, Score: 90},
		{Status: StatusMissing, Score: 0},
	}
	docs := []Document{{FileName: "sop.txt", Text: "The procedure requires monitoring."}}

	scores := calibrator.Calibrate(matches, docs)

	want := int(0.6*float64(scores.ContentScore) + 0.4*float64(scores.AuditReadinessScore) + 0.5)
	if scores.OverallScore != want {
		t.Errorf("Expected overall %d from 60/40 weighting, got %d", want, scores.OverallScore)
	}
}

func TestStructureScore(t *testing.T) {
	calibrator := NewCalibrator(DefaultTuning())

	tests := []struct {
		name string
		docs []Document
		want int
	}{
		{
			name: "no documents",
			docs: nil,
			want: 0,
		},
		{
			name: "unstructured short document",
			docs: []Document{{FileName: "a.txt", Text: "just a paragraph of text"}},
			want: 60,
		},
		{
			name: "sectioned document",
			docs: []Document{pestDocument()},
			want: 72, // 60 + 4 sections * 3
		},
		{
			name: "long multi-document set",
			docs: []Document{pestDocument(), pestDocument()},
			want: 89, // 60 + 8 sections * 3 + 5 for length
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := calibrator.Calibrate(nil, tt.docs)
			if scores.StructureScore != tt.want {
				t.Errorf("Expected structure score %d, got %d", tt.want, scores.StructureScore)
			}
		})
	}
}
