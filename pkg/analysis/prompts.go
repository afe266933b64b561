package analysis

import (
	"fmt"
	"strings"

	"github.com/producex-ai/axiom-sub001/pkg/checklist"
)

const (
	docExcerptChars    = 1500
	promptRequirements = 25
)

// buildRelevancePrompt creates the document relevance scoring prompt.
func buildRelevancePrompt(docs []Document, requirements []checklist.Requirement, subModuleDescription string) (prompt string) {
	topic := subModuleDescription
	if topic == "" {
		topic = "the audit submodule described by the requirements below"
	}

	var docSection strings.Builder
	for _, doc := range docs {
		excerpt := doc.Text
		if len(excerpt) > docExcerptChars {
			excerpt = excerpt[:docExcerptChars] + "..."
		}
		docSection.WriteString(fmt.Sprintf("--- DOCUMENT: %s ---\n%s\n\n", doc.FileName, excerpt))
	}

	prompt = fmt.Sprintf(`You are a compliance auditor checking whether uploaded documents belong to the audit submodule being analyzed.

SUBMODULE TOPIC:
%s

CHECKLIST REQUIREMENTS:
%s

UPLOADED DOCUMENTS:
%s
For EACH document, score 0-100 how well its topic matches the submodule topic. A pest control plan submitted to a cleaning-chemicals submodule scores low even if it is a good pest control plan.

Return ONLY valid JSON in this exact format (no markdown, no commentary):
{
  "documents": [
    {
      "document_name": "exact file name",
      "relevance_score": 85,
      "reasoning": "why this score",
      "identified_topic": "what this document is actually about",
      "requirements_addressed": ["requirement ids this document speaks to"],
      "requirements_missing": ["requirement ids it cannot address"],
      "suggested_topic": "the submodule this document actually fits",
      "recommendation": "what the user should do"
    }
  ]
}`, topic, requirementList(requirements), docSection.String())

	return prompt
}

// buildValidationPrompt creates the batch adjudication prompt for
// medium-confidence findings.
func buildValidationPrompt(facts []ExtractedFact) (prompt string) {
	var items strings.Builder
	for i, fact := range facts {
		items.WriteString(fmt.Sprintf("ITEM %d\nrequirement_id: %s\nrequirement: %s\nevidence quotes:\n", i+1, fact.RequirementID, fact.RequirementText))
		for _, quote := range fact.Quotes {
			items.WriteString("  - \"" + quote + "\"\n")
		}
		if len(fact.Details) > 0 {
			items.WriteString(fmt.Sprintf("detected elements: %v\n", fact.Details))
		}
		items.WriteString("\n")
	}

	prompt = fmt.Sprintf(`You are a compliance assessor. For each finding below, judge whether the quoted evidence actually satisfies the requirement.

Verdicts:
- "covered": the evidence clearly satisfies the requirement
- "partial": the evidence is on topic but incomplete
- "missing": the evidence does not satisfy the requirement

FINDINGS:
%s
Return ONLY valid JSON in this exact format (no markdown, no commentary):
{
  "verdicts": [
    {
      "requirement_id": "id from the item",
      "verdict": "covered|partial|missing",
      "missing_elements": ["what is absent, empty array if covered"]
    }
  ]
}`, items.String())

	return prompt
}

// buildGapRecommendationPrompt creates the recommendation prompt over
// uncovered or partially covered requirements.
func buildGapRecommendationPrompt(gaps []ComplianceMatch) (prompt string) {
	prompt = fmt.Sprintf(`You are a compliance consultant helping improve audit documents. The gaps below are requirements the documents do not fully cover.

GAPS:
%s
Produce 3-5 actionable recommendations. Each must name the requirement it fixes, describe the concrete text to add or change, and reference the existing document location via the text anchor when one exists.

Return ONLY valid JSON in this exact format (no markdown, no commentary):
{
  "recommendations": [
    {
      "priority": "high|medium|low",
      "requirement_id": "id of the gap being fixed",
      "title": "short imperative title",
      "description": "specific guidance on what to add or change",
      "text_anchor": "existing text to place the change near, if any"
    }
  ]
}`, gapList(gaps))

	return prompt
}

// buildPolishPrompt creates the improvement prompt used when every
// requirement is covered but some scores leave room.
func buildPolishPrompt(candidates []ComplianceMatch) (prompt string) {
	prompt = fmt.Sprintf(`You are a compliance consultant. Every requirement below is already covered; suggest refinements that would raise the quality of the evidence.

COVERED REQUIREMENTS WITH ROOM TO IMPROVE:
%s
Produce 3-5 improvement suggestions. These are polish items, not gaps; keep priorities at "medium" or "low".

Return ONLY valid JSON in this exact format (no markdown, no commentary):
{
  "recommendations": [
    {
      "priority": "medium|low",
      "requirement_id": "id being refined",
      "title": "short imperative title",
      "description": "specific refinement",
      "text_anchor": "existing text to refine, if any"
    }
  ]
}`, gapList(candidates))

	return prompt
}

// requirementList renders requirement ids and titles, capped for prompt size.
func requirementList(requirements []checklist.Requirement) (list string) {
	var b strings.Builder
	for i, req := range requirements {
		if i >= promptRequirements {
			b.WriteString(fmt.Sprintf("... and %d more\n", len(requirements)-promptRequirements))
			break
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", req.ID, req.Title))
	}
	list = b.String()
	return list
}

// gapList renders matches with their evidence state for recommendation
// prompts.
func gapList(matches []ComplianceMatch) (list string) {
	var b strings.Builder
	for _, match := range matches {
		b.WriteString(fmt.Sprintf("- %s (%s, score %d)\n", match.RequirementID, match.Status, match.Score))
		if match.Evidence != "" {
			evidence := match.Evidence
			if len(evidence) > 300 {
				evidence = evidence[:300] + "..."
			}
			b.WriteString("  existing evidence: " + evidence + "\n")
		}
		if match.TextAnchor != "" {
			b.WriteString("  text anchor: " + match.TextAnchor + "\n")
		}
		if len(match.MissingElements) > 0 {
			b.WriteString("  missing: " + strings.Join(match.MissingElements, ", ") + "\n")
		}
	}
	list = b.String()
	return list
}
