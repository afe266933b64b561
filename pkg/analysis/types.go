package analysis

import "time"

// Status classifies a requirement's coverage.
type Status string

const (
	// StatusCovered means the requirement is fully evidenced.
	StatusCovered Status = "covered"
	// StatusPartial means evidence exists but is incomplete.
	StatusPartial Status = "partial"
	// StatusMissing means no usable evidence was found.
	StatusMissing Status = "missing"
)

// Document is one ingested file: extracted plain text plus its source name.
// Documents are immutable for the duration of an analysis run.
type Document struct {
	FileName string `json:"file_name"`
	Text     string `json:"text"`
}

// MatchQuality describes the shape of the evidence behind an extracted fact.
type MatchQuality struct {
	HasSpecificTerms    bool    `json:"has_specific_terms"`
	HasGenericTerms     bool    `json:"has_generic_terms"`
	SectionCount        int     `json:"section_count"`
	TotalMatchLength    int     `json:"total_match_length"`
	ContextualRelevance float64 `json:"contextual_relevance"`
	SpecificMatches     int     `json:"specific_matches"`
	GenericMatches      int     `json:"generic_matches"`
}

// ExtractedFact is the evidence found for one requirement in one analysis
// run. Facts are never mutated after creation.
type ExtractedFact struct {
	RequirementID   string            `json:"requirement_id"`
	RequirementText string            `json:"requirement_text"`
	TopicMentioned  bool              `json:"topic_mentioned"`
	Details         map[string]string `json:"details"` // "yes" | "not_found"
	Quotes          []string          `json:"quotes"`
	SourceFile      string            `json:"source_file"`
	Confidence      float64           `json:"confidence"`
	MatchQuality    MatchQuality      `json:"match_quality"`
}

// ComplianceMatch is the classification plus score for one requirement.
// Status and score are jointly determined: covered implies score >= 80 on the
// deterministic path, missing implies score 0.
type ComplianceMatch struct {
	RequirementID   string   `json:"requirement_id"`
	Status          Status   `json:"status"`
	Score           int      `json:"score"`
	Coverage        float64  `json:"coverage"`
	MissingElements []string `json:"missing_elements"`
	Evidence        string   `json:"evidence"`
	TextAnchor      string   `json:"text_anchor"`
	SourceFile      string   `json:"source_file"`
	Confidence      float64  `json:"confidence"`
}

// DocumentRelevanceIssue is the per-document verdict from the relevance gate.
type DocumentRelevanceIssue struct {
	DocumentName          string   `json:"document_name"`
	RelevanceScore        int      `json:"relevance_score"`
	IsRelevant            bool     `json:"is_relevant"`
	Reasoning             string   `json:"reasoning"`
	IdentifiedTopic       string   `json:"identified_topic"`
	RequirementsAddressed []string `json:"requirements_addressed"`
	RequirementsMissing   []string `json:"requirements_missing"`
	SuggestedTopic        string   `json:"suggested_topic"`
	Recommendation        string   `json:"recommendation"`
}

// Recommendation is one actionable, location-anchored suggestion.
type Recommendation struct {
	Priority      string `json:"priority"` // high | medium | low
	RequirementID string `json:"requirement_id,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	TextAnchor    string `json:"text_anchor,omitempty"`
	SourceFile    string `json:"source_file,omitempty"`
}

// CoverageBucket summarizes one status bucket.
type CoverageBucket struct {
	Count          int      `json:"count"`
	RequirementIDs []string `json:"requirement_ids"`
}

// StructuralAnalysis describes the document structure that was observed.
type StructuralAnalysis struct {
	DocumentCount       int  `json:"document_count"`
	NumberedSections    int  `json:"numbered_sections"`
	HasNumberedSections bool `json:"has_numbered_sections"`
	TotalTextLength     int  `json:"total_text_length"`
}

// AuditReadiness breaks down the audit readiness score.
type AuditReadiness struct {
	Score             int      `json:"score"`
	TermGroupsPresent []string `json:"term_groups_present"`
	CoverageBonus     int      `json:"coverage_bonus"`
}

// AnalysisResult is the full public result shape.
type AnalysisResult struct {
	AnalysisID                string                   `json:"analysis_id"`
	StartedAt                 time.Time                `json:"started_at"`
	CompletedAt               time.Time                `json:"completed_at"`
	OverallScore              int                      `json:"overall_score"`
	ContentScore              int                      `json:"content_score"`
	StructureScore            int                      `json:"structure_score"`
	AuditReadinessScore       int                      `json:"audit_readiness_score"`
	DocumentRelevance         []DocumentRelevanceIssue `json:"document_relevance"`
	CanImprove                bool                     `json:"can_improve"`
	CanMerge                  bool                     `json:"can_merge"`
	ShouldGenerateFromScratch bool                     `json:"should_generate_from_scratch"`
	ContentCoverage           []ComplianceMatch        `json:"content_coverage"`
	StructuralAnalysis        *StructuralAnalysis      `json:"structural_analysis,omitempty"`
	AuditReadiness            *AuditReadiness          `json:"audit_readiness,omitempty"`
	Recommendations           []Recommendation         `json:"recommendations"`
	Covered                   CoverageBucket           `json:"covered"`
	Partial                   CoverageBucket           `json:"partial"`
	Missing                   CoverageBucket           `json:"missing"`
	CoverageMap               map[string]Status        `json:"coverage_map"`
}

// LightweightResult is the reduced result for low-latency callers: scores,
// relevance, and flags only.
type LightweightResult struct {
	AnalysisID                string                   `json:"analysis_id"`
	OverallScore              int                      `json:"overall_score"`
	ContentScore              int                      `json:"content_score"`
	StructureScore            int                      `json:"structure_score"`
	AuditReadinessScore       int                      `json:"audit_readiness_score"`
	DocumentRelevance         []DocumentRelevanceIssue `json:"document_relevance"`
	CanImprove                bool                     `json:"can_improve"`
	CanMerge                  bool                     `json:"can_merge"`
	ShouldGenerateFromScratch bool                     `json:"should_generate_from_scratch"`
}
