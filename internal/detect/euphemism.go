package detect

import "github.com/peskyphilly/crucible-mvp/internal/lexicon"

// absenceSuffix decorates evidence-of-absence matches so the
// explanation distinguishes them from euphemized-parameter phrases.
const absenceSuffix = " (absence cited as evidence)"

// EuphemizedAutomation flags procedural language that restates a
// system verdict without naming it. Euphemized-parameter phrases flag
// unconditionally; evidence-of-absence phrases only count when the
// rationale shows no substantive analysis.
type EuphemizedAutomation struct {
	parameters lexicon.Set
	absence    lexicon.Set
}

// NewEuphemizedAutomation builds the module from the
// euphemized-parameter and evidence-of-absence sets.
func NewEuphemizedAutomation(parameters, absence lexicon.Set) *EuphemizedAutomation {
	return &EuphemizedAutomation{parameters: parameters, absence: absence}
}

func (m *EuphemizedAutomation) Type() DetectionType { return TypeEuphemizedAutomation }

func (m *EuphemizedAutomation) Evaluate(in Input) ModuleResult {
	scan := lexicon.Scan(m.parameters, in.Normalized)

	labels := scan.Labels
	locations := scan.Locations

	if !in.Substantive {
		absScan := lexicon.Scan(m.absence, in.Normalized)
		for _, label := range absScan.Labels {
			labels = append(labels, label+absenceSuffix)
		}
		locations = append(locations, absScan.Locations...)
	}

	return ModuleResult{
		Flagged:        len(labels) > 0,
		Matches:        dedupe(labels),
		MatchCount:     len(labels),
		MatchLocations: locations,
		DetectionType:  TypeEuphemizedAutomation,
	}
}
