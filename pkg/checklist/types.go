package checklist

// Requirement is one checklist line item for a compliance submodule,
// identified by a stable code such as "1.01.02". Requirements are immutable
// for the duration of an analysis run.
type Requirement struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Text returns the requirement title and description joined for keyword
// matching.
func (r Requirement) Text() (text string) {
	text = r.Title
	if r.Description != "" {
		text += " " + r.Description
	}
	return text
}
