package detect

import (
	"github.com/peskyphilly/crucible-mvp/internal/lexicon"
	"github.com/peskyphilly/crucible-mvp/internal/quantity"
)

// DetectionType identifies one of the five detection modules.
type DetectionType string

const (
	TypeExplicitFilterDeference DetectionType = "EXPLICIT_FILTER_DEFERENCE"
	TypeEuphemizedAutomation    DetectionType = "EUPHEMIZED_AUTOMATION"
	TypePolicyInversion         DetectionType = "POLICY_INVERSION"
	TypeDistributiveWarrant     DetectionType = "DISTRIBUTIVE_WARRANT"
	TypeAggregateBlindness      DetectionType = "AGGREGATE_BLINDNESS"
)

// Input carries the shared per-call state every module consumes. It is
// computed once per analysis and never mutated by the modules.
type Input struct {
	Normalized  string
	Substantive bool
	Quantities  quantity.Extraction
	Threshold   float64
}

// Module is one independent detection check. Evaluate must be a pure
// function of its input: no hidden state, no ordering dependency on
// other modules.
type Module interface {
	Type() DetectionType
	Evaluate(in Input) ModuleResult
}

// ModuleResult is the verdict of a single module.
//
// MatchCount counts label occurrences before deduplication while
// Matches is deduplicated, so MatchCount can exceed len(Matches). Both
// fields are read downstream (audit log, explanation text), so the
// asymmetry is kept as-is.
type ModuleResult struct {
	Flagged        bool               `json:"flagged"`
	Matches        []string           `json:"matches"`
	MatchCount     int                `json:"match_count"`
	MatchLocations []lexicon.Location `json:"match_locations"`
	DetectionType  DetectionType      `json:"detection_type"`
	Metadata       *AggregateMetadata `json:"metadata,omitempty"`
}

// AggregateMetadata reports what the aggregate blindness module
// extracted, regardless of whether it flagged. Sum is nil when no
// amounts were found.
type AggregateMetadata struct {
	Amounts           []float64        `json:"amounts"`
	Ranges            []quantity.Range `json:"ranges"`
	TransactionCount  *int             `json:"transaction_count"`
	Sum               *float64         `json:"sum"`
	EstimatedTotal    *float64         `json:"estimated_total,omitempty"`
	AggregateAnalysis bool             `json:"aggregate_analysis"`
}

// CombinedResult is the merged verdict across all five modules.
// Matches, MatchCount, and MatchLocations only include contributions
// from modules that flagged; DetectionBreakdown is always populated for
// all five modules regardless of flag state.
type CombinedResult struct {
	Flagged            bool                           `json:"flagged"`
	Matches            []string                       `json:"matches"`
	MatchCount         int                            `json:"match_count"`
	MatchLocations     []lexicon.Location             `json:"match_locations"`
	FlaggedModules     []DetectionType                `json:"flagged_modules"`
	DetectionBreakdown map[DetectionType]ModuleResult `json:"detection_breakdown"`
}

// dedupe removes duplicate labels while preserving first-seen order.
func dedupe(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
