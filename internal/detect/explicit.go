package detect

import "github.com/peskyphilly/crucible-mvp/internal/lexicon"

// ExplicitDeference flags direct reliance on a system recommendation,
// policy citation, or threshold comparison. These phrases flag
// unconditionally: substantive analysis elsewhere in the rationale does
// not excuse them.
type ExplicitDeference struct {
	patterns lexicon.Set
}

// NewExplicitDeference builds the module from the explicit-deference set.
func NewExplicitDeference(patterns lexicon.Set) *ExplicitDeference {
	return &ExplicitDeference{patterns: patterns}
}

func (m *ExplicitDeference) Type() DetectionType { return TypeExplicitFilterDeference }

func (m *ExplicitDeference) Evaluate(in Input) ModuleResult {
	scan := lexicon.Scan(m.patterns, in.Normalized)

	return ModuleResult{
		Flagged:        len(scan.Labels) >= 1,
		Matches:        dedupe(scan.Labels),
		MatchCount:     len(scan.Labels),
		MatchLocations: scan.Locations,
		DetectionType:  TypeExplicitFilterDeference,
	}
}
