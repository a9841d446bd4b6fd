package detect

import (
	"reflect"
	"testing"

	"github.com/peskyphilly/crucible-mvp/internal/logger"
)

const (
	deferentRationale = "Transaction reviewed. Below reporting threshold, no further action required per policy."

	cleanRationale = "The customer's deposits show a structuring pattern inconsistent with the declared business. " +
		"An aggregate of £180,000 over six weeks is far out of line with stated revenue. " +
		"Escalating to the MLRO for investigation of the source of funds."

	aggregateRationale = "Customer made 15 deposits of £3,000 to £5,000 during the review period. " +
		"Amounts are modest and the customer is a long-standing client."
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(Config{}, logger.NewNop())
}

func TestAnalyzeDeferentRationale(t *testing.T) {
	engine := newTestEngine(t)
	result := engine.Analyze(deferentRationale)

	if !result.Flagged {
		t.Fatal("deferent rationale not flagged")
	}
	if result.MatchCount < 3 {
		t.Errorf("match count = %d, want at least 3", result.MatchCount)
	}

	found := false
	for _, module := range result.FlaggedModules {
		if module == TypeExplicitFilterDeference {
			found = true
		}
	}
	if !found {
		t.Errorf("explicit deference missing from flagged modules: %v", result.FlaggedModules)
	}

	expected := map[string]bool{
		"below threshold":            false,
		"no further action required": false,
		"per policy":                 false,
	}
	for _, match := range result.Matches {
		if _, ok := expected[match]; ok {
			expected[match] = true
		}
	}
	for phrase, seen := range expected {
		if !seen {
			t.Errorf("expected phrase %q in matches %v", phrase, result.Matches)
		}
	}
}

func TestAnalyzeCleanRationale(t *testing.T) {
	engine := newTestEngine(t)
	result := engine.Analyze(cleanRationale)

	if result.Flagged {
		t.Errorf("clean rationale flagged: modules=%v matches=%v", result.FlaggedModules, result.Matches)
	}
	if result.MatchCount != 0 {
		t.Errorf("match count = %d, want 0", result.MatchCount)
	}
	if len(result.Matches) != 0 {
		t.Errorf("matches = %v, want none", result.Matches)
	}
}

func TestAnalyzeAggregateArithmetic(t *testing.T) {
	engine := newTestEngine(t)
	result := engine.Analyze(aggregateRationale)

	if !result.Flagged {
		t.Fatal("aggregate blindness not flagged")
	}

	module, ok := result.DetectionBreakdown[TypeAggregateBlindness]
	if !ok {
		t.Fatal("aggregate module missing from breakdown")
	}
	if !module.Flagged {
		t.Fatal("aggregate module did not flag")
	}
	if module.Metadata == nil {
		t.Fatal("aggregate metadata missing")
	}
	if module.Metadata.TransactionCount == nil || *module.Metadata.TransactionCount != 15 {
		t.Error("transaction count not extracted")
	}
	if module.Metadata.EstimatedTotal == nil || *module.Metadata.EstimatedTotal != 75000 {
		t.Errorf("estimated total = %v, want 75000", module.Metadata.EstimatedTotal)
	}
}

func TestAnalyzeAggregateSuppression(t *testing.T) {
	engine := newTestEngine(t)
	suppressed := aggregateRationale +
		" However, the aggregate of £60,000 represents a material change in the pattern as a whole and merits review."

	result := engine.Analyze(suppressed)

	module := result.DetectionBreakdown[TypeAggregateBlindness]
	if module.Flagged {
		t.Errorf("aggregate module should stand down: %v", module.Matches)
	}
	if module.Metadata == nil || !module.Metadata.AggregateAnalysis {
		t.Error("metadata should record aggregate-analysis phrasing")
	}
}

func TestBreakdownAlwaysComplete(t *testing.T) {
	engine := newTestEngine(t)

	for _, text := range []string{deferentRationale, cleanRationale, ""} {
		result := engine.Analyze(text)
		if len(result.DetectionBreakdown) != 5 {
			t.Errorf("breakdown has %d entries for %q, want 5", len(result.DetectionBreakdown), text)
		}
		for _, moduleType := range []DetectionType{
			TypeExplicitFilterDeference,
			TypeEuphemizedAutomation,
			TypePolicyInversion,
			TypeDistributiveWarrant,
			TypeAggregateBlindness,
		} {
			if _, ok := result.DetectionBreakdown[moduleType]; !ok {
				t.Errorf("breakdown missing %s", moduleType)
			}
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	text := deferentRationale + " Each deposit was individually cleared. Screening showed no flags."

	first := engine.Analyze(text)
	for i := 0; i < 10; i++ {
		next := engine.Analyze(text)
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("analysis not deterministic on run %d:\nfirst: %+v\nnext:  %+v", i, first, next)
		}
	}
}

func TestAnalyzeNormalizationInsensitive(t *testing.T) {
	engine := newTestEngine(t)

	messy := "  Transaction   REVIEWED.\nBelow reporting\tthreshold, no further action required PER POLICY. "
	tidy := "transaction reviewed. below reporting threshold, no further action required per policy."

	got := engine.Analyze(messy)
	want := engine.Analyze(tidy)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("whitespace and case changed the verdict:\nmessy: %+v\ntidy:  %+v", got, want)
	}
}

func TestAnalyzeWithThreshold(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("HigherThresholdStandsDown", func(t *testing.T) {
		// upper 5000 < 20000 and 75000 > 20000*5 is false, so raising
		// the threshold past the materiality line stands the rule down.
		result := engine.AnalyzeWithThreshold(aggregateRationale, 20000)
		module := result.DetectionBreakdown[TypeAggregateBlindness]
		if module.Flagged {
			t.Errorf("aggregate rule fired past the materiality line: %v", module.Matches)
		}
	})

	t.Run("NonPositiveFallsBack", func(t *testing.T) {
		got := engine.AnalyzeWithThreshold(aggregateRationale, 0)
		want := engine.Analyze(aggregateRationale)
		if !reflect.DeepEqual(got, want) {
			t.Error("non-positive threshold should fall back to the configured one")
		}
	})
}

func TestEmptyRationale(t *testing.T) {
	engine := newTestEngine(t)
	result := engine.Analyze("")

	if result.Flagged {
		t.Error("empty rationale flagged")
	}
	if result.Matches == nil || result.FlaggedModules == nil {
		t.Error("slices should be empty, not nil")
	}
}

func TestAnalyzeFlagMonotonicity(t *testing.T) {
	engine := newTestEngine(t)

	// Once a rationale is flagged, piling on further matching language
	// must never flip the combined flag back off, even when a later
	// sentence would suppress an individual module.
	additions := []string{
		"Amounts are within risk parameters.",
		"No alerts were raised during screening.",
		"Each transaction individually is acceptable.",
		"In accordance with policy, no escalation.",
		"Customer made 15 deposits of £3,000 to £5,000.",
		"The source of funds appears consistent with the declared business.",
	}

	text := deferentRationale
	base := engine.Analyze(text)
	if !base.Flagged {
		t.Fatal("base rationale not flagged")
	}

	for _, addition := range additions {
		text = text + " " + addition
		result := engine.Analyze(text)
		if !result.Flagged {
			t.Fatalf("flag dropped after appending %q", addition)
		}
	}
}
