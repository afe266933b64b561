package analysis

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	codeFencePattern        = regexp.MustCompile("```(?:json)?")
	trailingCommaPattern    = regexp.MustCompile(`,\s*([}\]])`)
	controlWhitespace       = regexp.MustCompile(`[\n\r\t]+`)
	recommendationsFragment = regexp.MustCompile(`(?s)"recommendations"\s*:\s*\[.*\]`)
)

// stripCodeFences removes markdown code fences anywhere in the text.
func stripCodeFences(text string) (cleaned string) {
	cleaned = codeFencePattern.ReplaceAllString(text, "")
	cleaned = strings.TrimSpace(cleaned)
	return cleaned
}

// extractFirstJSONObject returns the substring from the first top-level '{'
// to the last '}'.
func extractFirstJSONObject(text string) (jsonText string, err error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		err = errors.New("no JSON object found in response")
		return jsonText, err
	}
	jsonText = text[start : end+1]
	return jsonText, err
}

// repairJSON runs the tolerant pipeline over a raw model response: strip code
// fences, isolate the first object, drop trailing commas, collapse control
// whitespace, then validate.
func repairJSON(raw string) (clean string, err error) {
	clean = stripCodeFences(raw)

	clean, err = extractFirstJSONObject(clean)
	if err != nil {
		return clean, err
	}

	clean = trailingCommaPattern.ReplaceAllString(clean, "$1")
	clean = controlWhitespace.ReplaceAllString(clean, " ")

	if !gjson.Valid(clean) {
		err = errors.New("response is not valid JSON after repair")
		return clean, err
	}

	return clean, err
}

// parseRecommendations extracts a recommendation list from a model response.
// It first runs the full repair pipeline; if the object as a whole cannot be
// salvaged it attempts a narrower repair on just the recommendations array.
func parseRecommendations(raw string) (recommendations []Recommendation, err error) {
	clean, repairErr := repairJSON(raw)
	if repairErr == nil {
		list := gjson.Get(clean, "recommendations")
		if list.IsArray() {
			err = json.Unmarshal([]byte(list.Raw), &recommendations)
			if err == nil {
				return recommendations, err
			}
		}
	}

	// Narrow repair: pull the "recommendations": [...] fragment out of the
	// otherwise broken text and rebuild a minimal object around it.
	stripped := stripCodeFences(raw)
	fragment := recommendationsFragment.FindString(stripped)
	if fragment == "" {
		err = errors.New("no recommendations fragment found in response")
		return recommendations, err
	}

	arrayPart := fragment[strings.Index(fragment, "["):]
	arrayPart = trailingCommaPattern.ReplaceAllString(arrayPart, "$1")
	arrayPart = controlWhitespace.ReplaceAllString(arrayPart, " ")

	var wrapped string
	wrapped, err = sjson.SetRaw("{}", "recommendations", arrayPart)
	if err != nil {
		err = errors.Wrap(err, "failed to rebuild recommendations object")
		return recommendations, err
	}
	if !gjson.Valid(wrapped) {
		err = errors.New("recommendations fragment is not valid JSON")
		return recommendations, err
	}

	err = json.Unmarshal([]byte(gjson.Get(wrapped, "recommendations").Raw), &recommendations)
	if err != nil {
		err = errors.Wrap(err, "failed to parse repaired recommendations")
		return recommendations, err
	}

	return recommendations, err
}
