package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/producex-ai/axiom-sub001/pkg/checklist"
)

// genericVocabulary is the fixed set of generic compliance terms. A term only
// counts for a requirement when it literally appears in the requirement text.
var genericVocabulary = []string{
	"policy", "procedure", "training", "monitoring", "verification",
	"documentation", "record", "assessment", "control", "testing",
	"inspection", "audit", "review", "validation", "criteria",
	"frequency", "responsibility", "implementation",
}

// phraseStopWords are generic connectives excluded from multi-word phrase
// derivation.
var phraseStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "shall": true, "must": true, "should": true, "have": true,
	"been": true, "from": true, "are": true, "is": true, "of": true,
	"to": true, "a": true, "an": true, "in": true, "be": true, "its": true,
	"any": true, "all": true, "where": true, "when": true, "which": true,
	"such": true, "other": true, "their": true, "there": true,
}

var (
	quotedTermPattern    = regexp.MustCompile(`["']([^"']{3,100})["']`)
	sectionHeaderPattern = regexp.MustCompile(`(?m)^\d+\.\s+[A-Z][^\n]*$`)
	paragraphSplit       = regexp.MustCompile(`\n\s*\n`)
	wordPattern          = regexp.MustCompile(`[A-Za-z][A-Za-z0-9\-]*`)
)

// elementPattern is one detectable procedural element. The pattern is only
// tested when the category keyword appears in the requirement's own text.
type elementPattern struct {
	Key     string
	Keyword string
	Pattern *regexp.Regexp
}

//nolint:gochecknoglobals // Detection configuration constants
var elementPatterns = []elementPattern{
	{Key: "testing", Keyword: "test", Pattern: regexp.MustCompile(`(?i)\b(test(s|ed|ing)?|laborator(y|ies)|sampl(e|es|ing))\b`)},
	{Key: "assessment", Keyword: "assess", Pattern: regexp.MustCompile(`(?i)\b(assess(ment|ments|ed|ing)?|evaluat(e|es|ed|ion|ions))\b`)},
	{Key: "documentation", Keyword: "document", Pattern: regexp.MustCompile(`(?i)\b(document(s|ed|ation)?|record(s|ed|ing)?|log(s|ged|book)?)\b`)},
	{Key: "criteria", Keyword: "criteria", Pattern: regexp.MustCompile(`(?i)\b(criteri(a|on)|threshold(s)?|limit(s)?|specification(s)?|tolerance(s)?)\b`)},
	{Key: "procedure", Keyword: "procedure", Pattern: regexp.MustCompile(`(?i)\b(procedure(s)?|protocol(s)?|process(es)?|instruction(s)?)\b`)},
	{Key: "monitoring", Keyword: "monitor", Pattern: regexp.MustCompile(`(?i)\b(monitor(s|ed|ing)?|surveillance|observ(e|ed|ation|ations))\b`)},
	{Key: "frequency", Keyword: "frequen", Pattern: regexp.MustCompile(`(?i)\b(daily|weekly|monthly|quarterly|annual(ly)?|frequency|schedule(d|s)?)\b`)},
	{Key: "responsibility", Keyword: "responsib", Pattern: regexp.MustCompile(`(?i)\b(responsib(le|ility|ilities)|designated|assigned|accountable)\b`)},
}

// Extractor finds supporting evidence for requirements in document text.
type Extractor struct {
	tuning Tuning
}

// NewExtractor creates a new extractor instance.
func NewExtractor(tuning Tuning) (extractor *Extractor) {
	extractor = &Extractor{
		tuning: tuning,
	}
	return extractor
}

// ExtractFacts runs extraction for every requirement independently. One
// requirement's extraction never reads another's result, so order has no
// effect. A failure on one requirement is converted to a zero-confidence
// not-found fact rather than aborting the batch.
func (e *Extractor) ExtractFacts(requirements []checklist.Requirement, docs []Document) (facts []ExtractedFact) {
	facts = make([]ExtractedFact, 0, len(requirements))
	for _, req := range requirements {
		facts = append(facts, e.extractOne(req, docs))
	}
	return facts
}

// extractOne extracts evidence for a single requirement.
func (e *Extractor) extractOne(req checklist.Requirement, docs []Document) (fact ExtractedFact) {
	defer func() {
		if r := recover(); r != nil {
			fact = notFoundFact(req)
			fact.RequirementText = fmt.Sprintf("%s (extraction failed: %v)", req.Text(), r)
		}
	}()

	specific, generic := deriveKeywords(req)

	segments := e.collectSegments(docs, specific, generic)
	if len(segments) == 0 {
		fact = notFoundFact(req)
		return fact
	}

	combined := combineSegments(segments)
	details := detectElements(req, combined)

	specificMatches := 0
	genericMatches := 0
	for _, seg := range segments {
		specificMatches += seg.specific
		genericMatches += seg.generic
	}

	quality := MatchQuality{
		HasSpecificTerms:    specificMatches > 0,
		HasGenericTerms:     genericMatches > 0,
		SectionCount:        len(segments),
		TotalMatchLength:    len(combined),
		ContextualRelevance: contextScore(specificMatches, genericMatches),
		SpecificMatches:     specificMatches,
		GenericMatches:      genericMatches,
	}

	fact = ExtractedFact{
		RequirementID:   req.ID,
		RequirementText: req.Text(),
		TopicMentioned:  true,
		Details:         details,
		Quotes:          e.buildQuotes(segments, specific),
		SourceFile:      segments[0].source,
		Confidence:      e.confidence(quality, details),
		MatchQuality:    quality,
	}

	return fact
}

// notFoundFact is the zero-evidence fact: confidence exactly 0 and topic not
// mentioned.
func notFoundFact(req checklist.Requirement) (fact ExtractedFact) {
	fact = ExtractedFact{
		RequirementID:   req.ID,
		RequirementText: req.Text(),
		TopicMentioned:  false,
		Details:         map[string]string{},
		Quotes:          []string{},
		Confidence:      0,
	}
	return fact
}

// deriveKeywords builds the specific and generic term sets for a requirement.
func deriveKeywords(req checklist.Requirement) (specific []string, generic []string) {
	seen := map[string]bool{}
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || seen[term] {
			return
		}
		seen[term] = true
		specific = append(specific, term)
	}

	// Supplied keywords carry the most signal.
	for _, kw := range req.Keywords {
		add(kw)
	}

	text := req.Text()

	// Quoted substrings in title/description.
	for _, m := range quotedTermPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	// Title words longer than 4 characters.
	for _, word := range wordPattern.FindAllString(req.Title, -1) {
		if len(word) > 4 {
			add(word)
		}
	}

	// Up to 3 multi-word phrases, 3-4 words and longer than 12 characters,
	// not bounded by generic connectives.
	specific = append(specific, derivePhrases(text, seen)...)

	lower := strings.ToLower(text)
	for _, term := range genericVocabulary {
		if strings.Contains(lower, term) {
			generic = append(generic, term)
		}
	}

	return specific, generic
}

// derivePhrases extracts up to 3 consecutive-word phrases from requirement
// text.
func derivePhrases(text string, seen map[string]bool) (phrases []string) {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	for _, size := range []int{3, 4} {
		for i := 0; i+size <= len(words) && len(phrases) < 3; i++ {
			window := words[i : i+size]
			if phraseStopWords[window[0]] || phraseStopWords[window[size-1]] {
				continue
			}
			phrase := strings.Join(window, " ")
			if len(phrase) <= 12 || seen[phrase] {
				continue
			}
			seen[phrase] = true
			phrases = append(phrases, phrase)
		}
		if len(phrases) >= 3 {
			break
		}
	}

	return phrases
}

// segment is one candidate evidence region with its term counts.
type segment struct {
	text     string
	source   string
	specific int
	generic  int
	score    int
}

// collectSegments segments all documents, scores each segment, and keeps the
// strongest ones. Falls back to a line scan when section and paragraph
// segmentation finds nothing.
func (e *Extractor) collectSegments(docs []Document, specific, generic []string) (kept []segment) {
	candidates := []segment{}
	for _, doc := range docs {
		for _, part := range splitDocument(doc.Text) {
			part = strings.TrimSpace(part)
			if len(part) < e.tuning.SegmentMinChars {
				continue
			}
			seg := scoreSegment(part, doc.FileName, specific, generic)
			if seg.score >= e.tuning.SegmentKeepScore {
				candidates = append(candidates, seg)
			}
		}
	}

	kept = dedupeSegments(candidates)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	if len(kept) > e.tuning.SegmentCap {
		kept = kept[:e.tuning.SegmentCap]
	}

	if len(kept) == 0 && len(specific) > 0 {
		kept = e.lineScan(docs, specific, generic)
	}

	return kept
}

// splitDocument splits text at numbered section headers when present,
// otherwise at blank lines.
func splitDocument(text string) (parts []string) {
	headers := sectionHeaderPattern.FindAllStringIndex(text, -1)
	if len(headers) >= 2 {
		starts := make([]int, 0, len(headers)+1)
		if headers[0][0] > 0 {
			starts = append(starts, 0)
		}
		for _, h := range headers {
			starts = append(starts, h[0])
		}
		for i, start := range starts {
			end := len(text)
			if i+1 < len(starts) {
				end = starts[i+1]
			}
			parts = append(parts, text[start:end])
		}
		return parts
	}

	parts = paragraphSplit.Split(text, -1)
	return parts
}

// scoreSegment counts term presence and computes the keep score
// 2*specific + generic.
func scoreSegment(text, source string, specific, generic []string) (seg segment) {
	lower := strings.ToLower(text)
	seg = segment{text: text, source: source}
	for _, term := range specific {
		if strings.Contains(lower, term) {
			seg.specific++
		}
	}
	for _, term := range generic {
		if strings.Contains(lower, term) {
			seg.generic++
		}
	}
	seg.score = 2*seg.specific + seg.generic
	return seg
}

// dedupeSegments drops segments with identical leading content, keyed on the
// first 100 characters.
func dedupeSegments(segments []segment) (unique []segment) {
	seen := map[string]bool{}
	for _, seg := range segments {
		key := seg.text
		if len(key) > 100 {
			key = key[:100]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, seg)
	}
	return unique
}

// lineScan is the fallback when no segment qualifies: any line containing a
// specific term pulls in a surrounding window of lines.
func (e *Extractor) lineScan(docs []Document, specific, generic []string) (windows []segment) {
	for _, doc := range docs {
		lines := strings.Split(doc.Text, "\n")
		for i := 0; i < len(lines) && len(windows) < e.tuning.WindowCap; i++ {
			lower := strings.ToLower(lines[i])
			hit := false
			for _, term := range specific {
				if strings.Contains(lower, term) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}

			start := i - e.tuning.LineWindow
			if start < 0 {
				start = 0
			}
			end := i + e.tuning.LineWindow + 1
			if end > len(lines) {
				end = len(lines)
			}
			window := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
			if len(window) < e.tuning.WindowMinChars {
				continue
			}

			windows = append(windows, scoreSegment(window, doc.FileName, specific, generic))
			i = end // do not re-window the same lines
		}
		if len(windows) >= e.tuning.WindowCap {
			break
		}
	}
	return windows
}

func combineSegments(segments []segment) (combined string) {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.text)
	}
	combined = strings.Join(parts, "\n\n")
	return combined
}

// detectElements tests the fixed element categories, but only those whose
// keyword appears in the requirement's own text.
func detectElements(req checklist.Requirement, evidence string) (details map[string]string) {
	details = map[string]string{}
	reqLower := strings.ToLower(req.Text())
	for _, ep := range elementPatterns {
		if !strings.Contains(reqLower, ep.Keyword) {
			continue
		}
		if ep.Pattern.MatchString(evidence) {
			details[ep.Key] = "yes"
		} else {
			details[ep.Key] = "not_found"
		}
	}
	return details
}

// contextScore rates how topical the evidence is.
func contextScore(specificMatches, genericMatches int) (score float64) {
	switch {
	case specificMatches > 0:
		score = 0.85
	case genericMatches >= 2:
		score = 0.6
	default:
		score = 0.4
	}
	return score
}

// confidence computes the calibrated confidence for found evidence. The
// result is clamped to [floor, ceiling]; the zero-evidence case never reaches
// here.
func (e *Extractor) confidence(quality MatchQuality, details map[string]string) (confidence float64) {
	confidence = e.tuning.ConfidenceFloor

	switch {
	case quality.SpecificMatches >= 3:
		confidence += 0.35
	case quality.SpecificMatches >= 2:
		confidence += 0.28
	case quality.SpecificMatches >= 1:
		confidence += 0.20
	}

	switch {
	case quality.GenericMatches >= 5:
		confidence += 0.15
	case quality.GenericMatches >= 3:
		confidence += 0.12
	case quality.GenericMatches >= 2:
		confidence += 0.08
	}

	switch {
	case quality.TotalMatchLength >= 800:
		confidence += 0.15
	case quality.TotalMatchLength >= 400:
		confidence += 0.12
	case quality.TotalMatchLength >= 200:
		confidence += 0.08
	}

	confidence += 0.15 * quality.ContextualRelevance
	confidence += 0.15 * elementCoverage(details)

	if confidence < e.tuning.ConfidenceFloor {
		confidence = e.tuning.ConfidenceFloor
	}
	if confidence > e.tuning.ConfidenceCeiling {
		confidence = e.tuning.ConfidenceCeiling
	}

	return confidence
}

// elementCoverage is the fraction of detected elements confirmed present.
func elementCoverage(details map[string]string) (coverage float64) {
	if len(details) == 0 {
		return coverage
	}
	yes := 0
	for _, v := range details {
		if v == "yes" {
			yes++
		}
	}
	coverage = float64(yes) / float64(len(details))
	return coverage
}

// buildQuotes extracts short excerpts around the strongest term hits.
func (e *Extractor) buildQuotes(segments []segment, specific []string) (quotes []string) {
	quotes = []string{}
	for _, seg := range segments {
		if len(quotes) >= e.tuning.QuoteCap {
			break
		}
		quotes = append(quotes, excerpt(seg.text, specific, e.tuning.QuoteMaxChars))
	}
	return quotes
}

// excerpt returns up to maxChars of text centered on the first specific-term
// hit, or the leading text when no term matches.
func excerpt(text string, specific []string, maxChars int) (quote string) {
	flat := strings.Join(strings.Fields(text), " ")
	lower := strings.ToLower(flat)

	idx := -1
	for _, term := range specific {
		pos := strings.Index(lower, term)
		if pos >= 0 && (idx < 0 || pos < idx) {
			idx = pos
		}
	}

	start := 0
	if idx > maxChars/4 {
		start = idx - maxChars/4
	}
	end := start + maxChars
	if end > len(flat) {
		end = len(flat)
	}

	quote = strings.TrimSpace(flat[start:end])
	return quote
}
