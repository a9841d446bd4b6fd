package lexicon

import (
	"regexp"
	"strings"
)

// Pattern pairs a human-readable phrase label with its compiled matcher.
// Matching always runs against normalized text, so patterns are written
// lowercase with single spaces.
type Pattern struct {
	Label   string
	Matcher *regexp.Regexp
}

// Set is an ordered collection of patterns. Order is irrelevant for
// detection but keeps presentation deterministic.
type Set []Pattern

// Registry holds the canonical pattern sets used by the detection
// modules. A registry is immutable once constructed; tests can build
// alternate registries without touching module logic.
type Registry struct {
	ExplicitDeference     Set
	EuphemizedAutomation  Set
	EvidenceOfAbsence     Set
	PolicyCitation        Set
	NegativeOutcome       Set
	ThresholdAbsolutism   Set
	Distributive          Set
	AggregateAnalysis     Set
	SubstantiveIndicators Set
	ProceduralContexts    Set

	// AggregateMarkers are checked as plain substrings, not patterns.
	AggregateMarkers []string
}

// Location records one occurrence of a matched phrase. Position and
// context are both in normalized-text coordinates.
type Location struct {
	Phrase   string `json:"phrase"`
	Position int    `json:"position"`
	Context  string `json:"context"`
}

// ScanResult holds the raw output of scanning one pattern set.
type ScanResult struct {
	// Labels contains one entry per matched pattern, in set order,
	// before any deduplication.
	Labels    []string
	Locations []Location
}

const contextRadius = 30

// Normalize lowercases text and collapses all runs of whitespace
// (including newlines) to single spaces. All matching operates on the
// normalized form.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Scan searches normalized text for every pattern in the set. Each
// matched pattern contributes its label once; every occurrence of a
// matched pattern contributes one location with a surrounding snippet.
func Scan(set Set, normalized string) ScanResult {
	var result ScanResult

	for _, p := range set {
		idxs := p.Matcher.FindAllStringIndex(normalized, -1)
		if len(idxs) == 0 {
			continue
		}

		result.Labels = append(result.Labels, p.Label)
		for _, idx := range idxs {
			result.Locations = append(result.Locations, Location{
				Phrase:   p.Label,
				Position: idx[0],
				Context:  Snippet(normalized, idx[0], idx[1]),
			})
		}
	}

	return result
}

// Snippet extracts the text around a match, clamped to the string bounds.
func Snippet(normalized string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(normalized) {
		hi = len(normalized)
	}
	return strings.TrimSpace(normalized[lo:hi])
}

// mustPattern builds a Pattern, panicking on a bad expression. Pattern
// sets are process-wide configuration compiled once at start, so a bad
// expression is a programming error.
func mustPattern(label, expr string) Pattern {
	return Pattern{Label: label, Matcher: regexp.MustCompile(expr)}
}
