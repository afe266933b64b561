package analysis

// Tuning holds the engine's heuristic thresholds. The values have no
// documented derivation; they are preserved as overridable configuration so
// they can be calibrated against real audit outcomes without code changes.
type Tuning struct {
	// Confidence tier boundaries for the assessor.
	HighConfidence   float64 `json:"high_confidence"`
	MediumConfidence float64 `json:"medium_confidence"`

	// Relevance gate.
	RelevanceThreshold int     `json:"relevance_threshold"` // document relevant iff score >= threshold
	BlockFraction      float64 `json:"block_fraction"`      // block iff fraction below threshold exceeds this

	// Segmentation.
	SegmentMinChars  int `json:"segment_min_chars"`
	SegmentKeepScore int `json:"segment_keep_score"`
	SegmentCap       int `json:"segment_cap"`
	LineWindow       int `json:"line_window"`
	WindowMinChars   int `json:"window_min_chars"`
	WindowCap        int `json:"window_cap"`

	// Evidence quoting.
	QuoteCap      int `json:"quote_cap"`
	QuoteMaxChars int `json:"quote_max_chars"`

	// Confidence formula bounds.
	ConfidenceFloor   float64 `json:"confidence_floor"`
	ConfidenceCeiling float64 `json:"confidence_ceiling"`

	// Assessor batching.
	ValidationBatchSize int `json:"validation_batch_size"`

	// Calibration caps.
	ContentScoreCap int `json:"content_score_cap"`
	AuditScoreCap   int `json:"audit_score_cap"`
	AuditBaseScore  int `json:"audit_base_score"`

	// Recommendation prompt sizing.
	GapPromptCap    int `json:"gap_prompt_cap"`
	PolishPromptCap int `json:"polish_prompt_cap"`
	FallbackCap     int `json:"fallback_cap"`
	PolishScoreBar  int `json:"polish_score_bar"` // covered items below this are polish candidates
}

// DefaultTuning returns the production threshold set.
func DefaultTuning() (t Tuning) {
	t = Tuning{
		HighConfidence:   0.70,
		MediumConfidence: 0.45,

		RelevanceThreshold: 60,
		BlockFraction:      0.5,

		SegmentMinChars:  50,
		SegmentKeepScore: 2,
		SegmentCap:       5,
		LineWindow:       5,
		WindowMinChars:   80,
		WindowCap:        3,

		QuoteCap:      3,
		QuoteMaxChars: 200,

		ConfidenceFloor:   0.4,
		ConfidenceCeiling: 0.98,

		ValidationBatchSize: 5,

		ContentScoreCap: 95,
		AuditScoreCap:   95,
		AuditBaseScore:  70,

		GapPromptCap:    6,
		PolishPromptCap: 5,
		FallbackCap:     5,
		PolishScoreBar:  95,
	}
	return t
}
