package detect

import (
	"fmt"
	"strings"
)

const (
	maxExplainedPhrases  = 10
	maxExplainedSnippets = 3
)

// moduleLabels maps detection types to the plain-English descriptions
// shown to analysts.
var moduleLabels = map[DetectionType]string{
	TypeExplicitFilterDeference: "The analyst deferred to system recommendations",
	TypeEuphemizedAutomation:    "The analyst used procedural language to avoid judgment",
	TypePolicyInversion:         "Policy compliance was used to justify inaction",
	TypeDistributiveWarrant:     "The analyst used threshold arithmetic to ignore the total",
	TypeAggregateBlindness:      "Individual amounts were analyzed without considering the aggregate",
}

// cleanMessage is rendered for rationales with no deference detected.
const cleanMessage = "No filter-deference detected. Rationale shows independent judgment."

// ModuleLabel returns the display name for a detection type. Unknown
// types fall back to the raw tag.
func ModuleLabel(t DetectionType) string {
	if label, ok := moduleLabels[t]; ok {
		return label
	}
	return string(t)
}

// Explain renders a combined result into a human-readable narrative.
// Pure presentation: no side effects, the result is never mutated.
func Explain(result CombinedResult) string {
	if !result.Flagged {
		return cleanMessage
	}

	var b strings.Builder

	b.WriteString("FILTER-DEFERENCE DETECTED\n\n")
	fmt.Fprintf(&b, "Your rationale contains %d instance(s) of filter-deference language.\n\n", result.MatchCount)

	for _, module := range result.FlaggedModules {
		fmt.Fprintf(&b, "- %s\n", ModuleLabel(module))
	}
	b.WriteString("\n")

	phrases := result.Matches
	if len(phrases) > maxExplainedPhrases {
		phrases = phrases[:maxExplainedPhrases]
	}
	for i, phrase := range phrases {
		fmt.Fprintf(&b, "%d. %q\n", i+1, phrase)
	}

	if len(result.MatchLocations) > 0 {
		b.WriteString("\nCONTEXT:\n")
		snippets := result.MatchLocations
		if len(snippets) > maxExplainedSnippets {
			snippets = snippets[:maxExplainedSnippets]
		}
		for _, loc := range snippets {
			fmt.Fprintf(&b, "- ...%s...\n", loc.Context)
		}
	}

	b.WriteString("\nREGULATORY RISK:\n")
	b.WriteString("This reasoning structure appears in FCA enforcement findings where reliance on filters replaced independent judgment.\n")
	b.WriteString("Relevant cases: Nationwide (£264.8M), Barclays (£72M), Mako/Coinbase (£3.5M+).\n\n")
	b.WriteString("This language pattern indicates judgment may have been outsourced to procedural filters.")

	return b.String()
}
