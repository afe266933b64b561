package checklist

import (
	"sort"
	"strconv"
)

// Normalize converts any of the checklist shapes produced by upstream loaders
// into a flat, de-duplicated requirement list. Recognized shapes:
//
//   - flat array of requirement objects
//   - object keyed by numeric index
//   - {"requirements": [...]}
//   - {"sections": {"<name>": {"questions": [...]}}}
//
// Unknown shapes yield an empty list rather than an error; callers degrade
// gracefully to "no requirements".
func Normalize(raw interface{}) (requirements []Requirement) {
	requirements = []Requirement{}

	switch value := raw.(type) {
	case []interface{}:
		requirements = fromArray(value)
	case map[string]interface{}:
		if nested, ok := value["requirements"].([]interface{}); ok {
			requirements = fromArray(nested)
			break
		}
		if sections, ok := value["sections"].(map[string]interface{}); ok {
			requirements = fromSections(sections)
			break
		}
		if numericKeyed(value) {
			requirements = fromNumericKeys(value)
		}
	}

	requirements = dedupe(requirements)

	return requirements
}

// fromArray maps a flat array of requirement objects.
func fromArray(items []interface{}) (requirements []Requirement) {
	requirements = []Requirement{}
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		req := fromMap(entry)
		if req.ID != "" {
			requirements = append(requirements, req)
		}
	}
	return requirements
}

// fromNumericKeys maps an object keyed by numeric index, ordered by key.
func fromNumericKeys(value map[string]interface{}) (requirements []Requirement) {
	keys := make([]int, 0, len(value))
	byKey := make(map[int]map[string]interface{}, len(value))
	for k, v := range value {
		idx, convErr := strconv.Atoi(k)
		if convErr != nil {
			continue
		}
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		keys = append(keys, idx)
		byKey[idx] = entry
	}
	sort.Ints(keys)

	requirements = []Requirement{}
	for _, idx := range keys {
		req := fromMap(byKey[idx])
		if req.ID != "" {
			requirements = append(requirements, req)
		}
	}
	return requirements
}

// fromSections flattens {"sections": {...: {"questions": [...]}}}. Section
// keys are visited in sorted order since JSON object order is not preserved.
func fromSections(sections map[string]interface{}) (requirements []Requirement) {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	requirements = []Requirement{}
	for _, name := range names {
		section, ok := sections[name].(map[string]interface{})
		if !ok {
			continue
		}
		questions, ok := section["questions"].([]interface{})
		if !ok {
			continue
		}
		requirements = append(requirements, fromArray(questions)...)
	}
	return requirements
}

// fromMap extracts a requirement from a single loosely typed entry.
func fromMap(entry map[string]interface{}) (req Requirement) {
	req.ID = stringField(entry, "id", "code", "requirement_id")
	req.Title = stringField(entry, "title", "text", "question", "requirement")
	req.Description = stringField(entry, "description", "details")

	if rawKeywords, ok := entry["keywords"].([]interface{}); ok {
		for _, kw := range rawKeywords {
			s, ok := kw.(string)
			if ok && s != "" {
				req.Keywords = append(req.Keywords, s)
			}
		}
	}

	return req
}

func stringField(entry map[string]interface{}, names ...string) (value string) {
	for _, name := range names {
		s, ok := entry[name].(string)
		if ok && s != "" {
			value = s
			return value
		}
	}
	return value
}

func numericKeyed(value map[string]interface{}) (numeric bool) {
	if len(value) == 0 {
		return numeric
	}
	for k := range value {
		_, convErr := strconv.Atoi(k)
		if convErr != nil {
			return numeric
		}
	}
	numeric = true
	return numeric
}

// dedupe drops repeated requirement ids, keeping the first occurrence.
func dedupe(requirements []Requirement) (unique []Requirement) {
	unique = []Requirement{}
	seen := make(map[string]bool, len(requirements))
	for _, req := range requirements {
		if seen[req.ID] {
			continue
		}
		seen[req.ID] = true
		unique = append(unique, req)
	}
	return unique
}
