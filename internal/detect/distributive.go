package detect

import "github.com/peskyphilly/crucible-mvp/internal/lexicon"

// DistributiveWarrant flags the fallacy of inferring that an aggregate
// is fine because each individual part is fine. It is gated only by
// plain aggregate-marker presence, not by the substantive-analysis
// filter: distributive framing next to a negative outcome is suspect
// even in an otherwise analytical rationale, unless the text engages
// with the total at all.
type DistributiveWarrant struct {
	distributive lexicon.Set
	outcomes     lexicon.Set
}

// NewDistributiveWarrant builds the module from the distributive and
// negative-outcome sets.
func NewDistributiveWarrant(distributive, outcomes lexicon.Set) *DistributiveWarrant {
	return &DistributiveWarrant{distributive: distributive, outcomes: outcomes}
}

func (m *DistributiveWarrant) Type() DetectionType { return TypeDistributiveWarrant }

func (m *DistributiveWarrant) Evaluate(in Input) ModuleResult {
	result := ModuleResult{DetectionType: TypeDistributiveWarrant, Matches: []string{}}

	if in.Quantities.AggregateMarker {
		return result
	}

	distScan := lexicon.Scan(m.distributive, in.Normalized)
	if len(distScan.Labels) == 0 {
		return result
	}

	outScan := lexicon.Scan(m.outcomes, in.Normalized)
	if len(outScan.Labels) == 0 {
		return result
	}

	labels := append(distScan.Labels, outScan.Labels...)
	locations := append(distScan.Locations, outScan.Locations...)

	return ModuleResult{
		Flagged:        true,
		Matches:        dedupe(labels),
		MatchCount:     len(labels),
		MatchLocations: locations,
		DetectionType:  TypeDistributiveWarrant,
	}
}
