package detect

import "github.com/peskyphilly/crucible-mvp/internal/lexicon"

// inactionSuffix decorates the negative-outcome phrases that completed
// the inversion: policy compliance cited as sufficient reason to stop.
const inactionSuffix = " (compliance cited to justify inaction)"

// PolicyInversion flags rationales that treat policy or threshold
// compliance as sufficient justification for inaction, rather than as a
// floor above which judgment still applies. Fully suppressed when the
// rationale shows substantive analysis, even if every lexical condition
// holds; the suppressed lexical hits are discarded, not reported.
type PolicyInversion struct {
	citations  lexicon.Set
	thresholds lexicon.Set
	outcomes   lexicon.Set
}

// NewPolicyInversion builds the module from the policy-citation,
// threshold-absolutism, and negative-outcome sets.
func NewPolicyInversion(citations, thresholds, outcomes lexicon.Set) *PolicyInversion {
	return &PolicyInversion{citations: citations, thresholds: thresholds, outcomes: outcomes}
}

func (m *PolicyInversion) Type() DetectionType { return TypePolicyInversion }

func (m *PolicyInversion) Evaluate(in Input) ModuleResult {
	result := ModuleResult{DetectionType: TypePolicyInversion, Matches: []string{}}

	if in.Substantive {
		return result
	}

	citScan := lexicon.Scan(m.citations, in.Normalized)
	thrScan := lexicon.Scan(m.thresholds, in.Normalized)
	if len(citScan.Labels) == 0 && len(thrScan.Labels) == 0 {
		return result
	}

	outScan := lexicon.Scan(m.outcomes, in.Normalized)
	if len(outScan.Labels) == 0 {
		return result
	}

	labels := make([]string, 0, len(citScan.Labels)+len(thrScan.Labels)+len(outScan.Labels))
	labels = append(labels, citScan.Labels...)
	labels = append(labels, thrScan.Labels...)
	for _, label := range outScan.Labels {
		labels = append(labels, label+inactionSuffix)
	}

	locations := append(citScan.Locations, thrScan.Locations...)
	locations = append(locations, outScan.Locations...)

	return ModuleResult{
		Flagged:        true,
		Matches:        dedupe(labels),
		MatchCount:     len(labels),
		MatchLocations: locations,
		DetectionType:  TypePolicyInversion,
	}
}
