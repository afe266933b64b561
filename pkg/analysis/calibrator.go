package analysis

import (
	"math"
	"strings"
)

// termGroup is one audit-critical vocabulary group. Each group present
// anywhere in the document text earns its points toward audit readiness.
type termGroup struct {
	Name   string
	Points int
	Terms  []string
}

//nolint:gochecknoglobals // Calibration configuration constants
var auditTermGroups = []termGroup{
	{Name: "procedures", Points: 5, Terms: []string{"procedure", "protocol"}},
	{Name: "monitoring", Points: 5, Terms: []string{"monitoring", "verification"}},
	{Name: "records", Points: 5, Terms: []string{"record", "documentation"}},
	{Name: "responsibility", Points: 4, Terms: []string{"responsibility", "responsible"}},
	{Name: "frequency", Points: 4, Terms: []string{"frequency", "schedule"}},
	{Name: "criteria", Points: 3, Terms: []string{"criteria", "specification"}},
	{Name: "training", Points: 3, Terms: []string{"training", "competence"}},
	{Name: "corrective action", Points: 3, Terms: []string{"corrective action", "capa"}},
}

// Scores is the calibrated score set for one analysis run.
type Scores struct {
	ContentScore        int                `json:"content_score"`
	StructureScore      int                `json:"structure_score"`
	AuditReadinessScore int                `json:"audit_readiness_score"`
	OverallScore        int                `json:"overall_score"`
	AuditReadiness      AuditReadiness     `json:"audit_readiness"`
	Structural          StructuralAnalysis `json:"structural"`
}

// Calibrator aggregates compliance matches into content, structure, audit
// readiness, and overall scores with bounded bonuses. Documents are never
// scored as perfect: content and audit readiness are hard-capped.
type Calibrator struct {
	tuning Tuning
}

// NewCalibrator creates a new calibrator.
func NewCalibrator(tuning Tuning) (calibrator *Calibrator) {
	calibrator = &Calibrator{
		tuning: tuning,
	}
	return calibrator
}

// Calibrate computes all scores from the match set and document text.
func (c *Calibrator) Calibrate(matches []ComplianceMatch, docs []Document) (scores Scores) {
	scores.ContentScore = c.contentScore(matches)
	scores.Structural = analyzeStructure(docs)
	scores.StructureScore = c.structureScore(scores.Structural)
	scores.AuditReadiness = c.auditReadiness(matches, docs)
	scores.AuditReadinessScore = scores.AuditReadiness.Score
	scores.OverallScore = int(math.Round(0.6*float64(scores.ContentScore) + 0.4*float64(scores.AuditReadinessScore)))
	return scores
}

// contentScore is the mean match score plus a bounded coverage bonus.
func (c *Calibrator) contentScore(matches []ComplianceMatch) (score int) {
	if len(matches) == 0 {
		return score
	}

	sum := 0
	covered := 0
	missing := 0
	for _, match := range matches {
		sum += match.Score
		switch match.Status {
		case StatusCovered:
			covered++
		case StatusMissing:
			missing++
		}
	}

	mean := float64(sum) / float64(len(matches))
	coveredFrac := float64(covered) / float64(len(matches))

	final := mean
	switch {
	case coveredFrac >= 1 && mean >= 95:
		final = minFloat(mean+3, 95)
	case missing == 0 && mean >= 85:
		final = minFloat(mean+2, 92)
	case coveredFrac >= 0.85 && mean >= 85:
		final = minFloat(mean+2, 90)
	}

	score = int(math.Round(final))
	if score > c.tuning.ContentScoreCap {
		score = c.tuning.ContentScoreCap
	}

	return score
}

// auditReadiness scores professional and procedural language quality
// independent of content coverage.
func (c *Calibrator) auditReadiness(matches []ComplianceMatch, docs []Document) (readiness AuditReadiness) {
	var combined strings.Builder
	for _, doc := range docs {
		combined.WriteString(strings.ToLower(doc.Text))
		combined.WriteString("\n")
	}
	text := combined.String()

	score := c.tuning.AuditBaseScore
	readiness.TermGroupsPresent = []string{}
	for _, group := range auditTermGroups {
		for _, term := range group.Terms {
			if strings.Contains(text, term) {
				score += group.Points
				readiness.TermGroupsPresent = append(readiness.TermGroupsPresent, group.Name)
				break
			}
		}
	}

	readiness.CoverageBonus = coverageBonus(matches)
	score += readiness.CoverageBonus

	if score > c.tuning.AuditScoreCap {
		score = c.tuning.AuditScoreCap
	}
	readiness.Score = score

	return readiness
}

// coverageBonus rewards broad requirement coverage.
func coverageBonus(matches []ComplianceMatch) (bonus int) {
	if len(matches) == 0 {
		return bonus
	}
	covered := 0
	for _, match := range matches {
		if match.Status == StatusCovered {
			covered++
		}
	}
	frac := float64(covered) / float64(len(matches))
	switch {
	case frac >= 0.95:
		bonus = 5
	case frac >= 0.85:
		bonus = 3
	case frac >= 0.75:
		bonus = 2
	}
	return bonus
}

// analyzeStructure inspects document structure for the full result shape.
func analyzeStructure(docs []Document) (structural StructuralAnalysis) {
	structural.DocumentCount = len(docs)
	for _, doc := range docs {
		structural.NumberedSections += len(sectionHeaderPattern.FindAllString(doc.Text, -1))
		structural.TotalTextLength += len(doc.Text)
	}
	structural.HasNumberedSections = structural.NumberedSections > 0
	return structural
}

// structureScore rates document organization: numbered sections and overall
// substance.
func (c *Calibrator) structureScore(structural StructuralAnalysis) (score int) {
	if structural.DocumentCount == 0 {
		return score
	}

	score = 60
	sectionPoints := 3 * structural.NumberedSections
	if sectionPoints > 30 {
		sectionPoints = 30
	}
	score += sectionPoints
	if structural.TotalTextLength >= 2000 {
		score += 5
	}
	if score > 95 {
		score = 95
	}

	return score
}
