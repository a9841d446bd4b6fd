// Package substantive decides whether a rationale demonstrates
// independent risk reasoning. The detection modules use it as a
// suppressor so that procedural language is not penalized when real
// analysis accompanies it.
package substantive

import (
	"regexp"

	"github.com/peskyphilly/crucible-mvp/internal/lexicon"
)

const windowRadius = 30

// negationRe matches a negation word sitting immediately before an
// indicator occurrence.
var negationRe = regexp.MustCompile(`(?:^|\s)(?:not|no|neither|nor)\s+$`)

// Filter is a boolean gate, not a score: it reports whether any
// substantive indicator survives the negation and procedural-context
// checks.
type Filter struct {
	indicators lexicon.Set
	procedural lexicon.Set
}

// NewFilter builds a filter from an indicator set and the
// procedural-context patterns that disqualify an indicator occurrence.
func NewFilter(indicators, procedural lexicon.Set) *Filter {
	return &Filter{indicators: indicators, procedural: procedural}
}

// Detect scans normalized text for substantive indicator terms. An
// occurrence is discarded when it is negated (not/no/neither/nor right
// before it) or when its surrounding window matches a procedural
// context, meaning the indicator word is itself part of a euphemism.
// Returns true on the first surviving occurrence.
func (f *Filter) Detect(normalized string) bool {
	for _, indicator := range f.indicators {
		for _, idx := range indicator.Matcher.FindAllStringIndex(normalized, -1) {
			if f.qualifies(normalized, idx[0], idx[1]) {
				return true
			}
		}
	}
	return false
}

func (f *Filter) qualifies(normalized string, start, end int) bool {
	prefixLo := start - 12
	if prefixLo < 0 {
		prefixLo = 0
	}
	if negationRe.MatchString(normalized[prefixLo:start]) {
		return false
	}

	lo := start - windowRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + windowRadius
	if hi > len(normalized) {
		hi = len(normalized)
	}
	window := normalized[lo:hi]

	for _, ctx := range f.procedural {
		if ctx.Matcher.MatchString(window) {
			return false
		}
	}

	return true
}
