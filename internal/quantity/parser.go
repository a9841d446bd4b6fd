// Package quantity extracts monetary amounts, ranges, and transaction
// counts from rationale text. Extraction is best-effort: tokens that
// fail to parse are skipped, never surfaced as errors.
package quantity

import (
	"regexp"
	"strconv"
	"strings"
)

// Range is a lower/upper pair of monetary amounts.
type Range struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Extraction bundles everything the parser found in one text.
type Extraction struct {
	Amounts             []float64 `json:"amounts"`
	Ranges              []Range   `json:"ranges"`
	TransactionCount    int       `json:"transaction_count"`
	HasTransactionCount bool      `json:"has_transaction_count"`
	AggregateMarker     bool      `json:"aggregate_marker"`
}

// Parser extracts quantities from normalized text. The aggregate marker
// word list is injected at construction so tests can substitute it.
type Parser struct {
	markers []string

	amountRe *regexp.Regexp
	rangeRe  *regexp.Regexp
	txRe     *regexp.Regexp
}

// amountToken matches an optional currency symbol, digit groups with
// optional thousands separators, an optional decimal part, and an
// optional magnitude suffix.
const amountToken = `(?:([£$€])\s*)?(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?\s*(k\b|m\b|thousand\b|million\b)?`

// NewParser creates a parser using the given aggregate marker words.
func NewParser(markers []string) *Parser {
	return &Parser{
		markers:  markers,
		amountRe: regexp.MustCompile(amountToken),
		rangeRe:  regexp.MustCompile(amountToken + `\s*(?:-|–|—|to)\s*` + amountToken),
		txRe:     regexp.MustCompile(`(\d[\d,]*)\s+(?:deposits?|transactions?|transfers?|payments?)\b`),
	}
}

// Extract runs all extractors over the normalized text.
func (p *Parser) Extract(normalized string) Extraction {
	ex := Extraction{
		Amounts:         p.ExtractAmounts(normalized),
		Ranges:          p.ExtractRanges(normalized),
		AggregateMarker: p.HasAggregateMarker(normalized),
	}
	ex.TransactionCount, ex.HasTransactionCount = p.ExtractTransactionCount(normalized)
	return ex
}

// ExtractAmounts finds all monetary amount tokens and normalizes them to
// numeric values. A bare integer with no currency symbol, thousands
// separator, or magnitude suffix is not treated as monetary; this keeps
// transaction counts and day counts out of the amount list.
func (p *Parser) ExtractAmounts(normalized string) []float64 {
	var amounts []float64

	for _, m := range p.amountRe.FindAllStringSubmatch(normalized, -1) {
		value, monetary, ok := parseToken(m[1], m[2], m[3], m[4])
		if ok && monetary {
			amounts = append(amounts, value)
		}
	}

	return amounts
}

// ExtractRanges finds "amount - amount" and "amount to amount" spans.
// At least one endpoint must look monetary; the other endpoint inherits
// the monetary reading from the range shape.
func (p *Parser) ExtractRanges(normalized string) []Range {
	var ranges []Range

	for _, m := range p.rangeRe.FindAllStringSubmatch(normalized, -1) {
		lower, lowerMonetary, lowerOK := parseToken(m[1], m[2], m[3], m[4])
		upper, upperMonetary, upperOK := parseToken(m[5], m[6], m[7], m[8])
		if !lowerOK || !upperOK {
			continue
		}
		if !lowerMonetary && !upperMonetary {
			continue
		}
		ranges = append(ranges, Range{Lower: lower, Upper: upper})
	}

	return ranges
}

// ExtractTransactionCount returns the first integer immediately followed
// by a transaction noun. Multiple counts in the same text are not
// aggregated; only the first is reported.
func (p *Parser) ExtractTransactionCount(normalized string) (int, bool) {
	m := p.txRe.FindStringSubmatch(normalized)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// HasAggregateMarker reports whether any aggregation word appears as a
// substring of the text.
func (p *Parser) HasAggregateMarker(normalized string) bool {
	for _, marker := range p.markers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}

// parseToken converts the captured pieces of an amount token into a
// numeric value. monetary reports whether the token carries a currency
// symbol, thousands separator, or magnitude suffix; ok is false when the
// numeric literal is malformed and the token should be skipped.
func parseToken(symbol, digits, decimal, suffix string) (value float64, monetary, ok bool) {
	raw := strings.ReplaceAll(digits, ",", "") + decimal

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, false
	}

	switch strings.TrimSpace(suffix) {
	case "k", "thousand":
		value *= 1_000
	case "m", "million":
		value *= 1_000_000
	}

	monetary = symbol != "" || suffix != "" || strings.Contains(digits, ",")
	return value, monetary, true
}
