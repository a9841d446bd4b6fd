package detect

import (
	"fmt"

	"github.com/peskyphilly/crucible-mvp/internal/lexicon"
)

// aggregateMultiple scales the policy threshold to decide when a
// combined total is material: a computed aggregate has to exceed five
// times the per-item threshold before a sub-rule fires.
const aggregateMultiple = 5

// AggregateBlindness flags rationales that evaluate only per-item
// figures when the combined exposure is material. Three independent
// sub-rules each fire on their own; all of them stand down when the
// text contains explicit aggregate-analysis phrasing, which is a
// stronger signal than a plain aggregation word.
type AggregateBlindness struct {
	aggregateAnalysis lexicon.Set
	distributive      lexicon.Set
}

// NewAggregateBlindness builds the module from the aggregate-analysis
// and distributive sets.
func NewAggregateBlindness(aggregateAnalysis, distributive lexicon.Set) *AggregateBlindness {
	return &AggregateBlindness{aggregateAnalysis: aggregateAnalysis, distributive: distributive}
}

func (m *AggregateBlindness) Type() DetectionType { return TypeAggregateBlindness }

func (m *AggregateBlindness) Evaluate(in Input) ModuleResult {
	q := in.Quantities
	threshold := in.Threshold

	analysisScan := lexicon.Scan(m.aggregateAnalysis, in.Normalized)
	hasAnalysis := len(analysisScan.Labels) > 0

	meta := &AggregateMetadata{
		Amounts:           q.Amounts,
		Ranges:            q.Ranges,
		AggregateAnalysis: hasAnalysis,
	}
	if q.HasTransactionCount {
		count := q.TransactionCount
		meta.TransactionCount = &count
	}
	if len(q.Amounts) > 0 {
		sum := 0.0
		for _, a := range q.Amounts {
			sum += a
		}
		meta.Sum = &sum
	}

	var labels []string

	// Sub-rule 1: a sub-threshold range multiplied by the transaction
	// count exceeds the materiality line.
	if len(q.Ranges) > 0 && q.HasTransactionCount && !hasAnalysis {
		for _, r := range q.Ranges {
			estimated := r.Upper * float64(q.TransactionCount)
			if r.Upper < threshold && estimated > threshold*aggregateMultiple {
				meta.EstimatedTotal = &estimated
				labels = append(labels, fmt.Sprintf(
					"sub-threshold range x %d transactions (estimated total %.0f)",
					q.TransactionCount, estimated))
			}
		}
	}

	// Sub-rule 2: many individually small amounts summing past the
	// materiality line, with no aggregation language at all.
	if len(q.Amounts) > 3 && !q.AggregateMarker && !hasAnalysis {
		maxAmount := q.Amounts[0]
		for _, a := range q.Amounts[1:] {
			if a > maxAmount {
				maxAmount = a
			}
		}
		if maxAmount < threshold && *meta.Sum > threshold*aggregateMultiple {
			labels = append(labels, fmt.Sprintf(
				"%d sub-threshold amounts summing to %.0f", len(q.Amounts), *meta.Sum))
		}
	}

	// Sub-rule 3: distributive framing over sub-threshold amounts with
	// no engagement with the total.
	if !hasAnalysis && !q.AggregateMarker && len(q.Amounts) > 0 {
		distScan := lexicon.Scan(m.distributive, in.Normalized)
		if len(distScan.Labels) > 0 {
			maxAmount := q.Amounts[0]
			for _, a := range q.Amounts[1:] {
				if a > maxAmount {
					maxAmount = a
				}
			}
			if maxAmount < threshold {
				labels = append(labels, "distributive framing over sub-threshold amounts")
			}
		}
	}

	return ModuleResult{
		Flagged:        len(labels) > 0,
		Matches:        dedupe(labels),
		MatchCount:     len(labels),
		MatchLocations: []lexicon.Location{},
		DetectionType:  TypeAggregateBlindness,
		Metadata:       meta,
	}
}
