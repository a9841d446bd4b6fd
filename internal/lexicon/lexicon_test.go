package lexicon

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Run("LowercaseAndCollapse", func(t *testing.T) {
		got := Normalize("  Mixed   CASE\n\ttext  ")
		if got != "mixed case text" {
			t.Errorf("Normalize returned %q", got)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := Normalize("Per  Policy,\nno further ACTION required")
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent: %q vs %q", once, twice)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		if got := Normalize("   \n\t  "); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestScan(t *testing.T) {
	set := Set{
		mustPattern("per policy", `per policy`),
		mustPattern("no flags", `no flags`),
	}

	t.Run("LabelOncePerPattern", func(t *testing.T) {
		result := Scan(set, "per policy we stop. per policy we always stop.")
		if len(result.Labels) != 1 {
			t.Fatalf("expected 1 label, got %d: %v", len(result.Labels), result.Labels)
		}
		if result.Labels[0] != "per policy" {
			t.Errorf("unexpected label %q", result.Labels[0])
		}
	})

	t.Run("LocationPerOccurrence", func(t *testing.T) {
		result := Scan(set, "per policy we stop. per policy we always stop.")
		if len(result.Locations) != 2 {
			t.Fatalf("expected 2 locations, got %d", len(result.Locations))
		}
		if result.Locations[0].Position != 0 {
			t.Errorf("first occurrence position = %d, want 0", result.Locations[0].Position)
		}
		if result.Locations[1].Position != 20 {
			t.Errorf("second occurrence position = %d, want 20", result.Locations[1].Position)
		}
	})

	t.Run("SnippetContainsMatch", func(t *testing.T) {
		result := Scan(set, "screening returned no flags so the case was closed without review")
		if len(result.Locations) != 1 {
			t.Fatalf("expected 1 location, got %d", len(result.Locations))
		}
		if !strings.Contains(result.Locations[0].Context, "no flags") {
			t.Errorf("snippet %q does not contain the match", result.Locations[0].Context)
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		result := Scan(set, "independent judgment, fully reasoned")
		if len(result.Labels) != 0 || len(result.Locations) != 0 {
			t.Errorf("expected empty result, got %+v", result)
		}
	})
}

func TestSnippetClamping(t *testing.T) {
	text := "short"
	if got := Snippet(text, 0, len(text)); got != "short" {
		t.Errorf("Snippet = %q", got)
	}
}

func TestDefaults(t *testing.T) {
	reg := Defaults()

	t.Run("AllSetsPopulated", func(t *testing.T) {
		sets := map[string]Set{
			"ExplicitDeference":     reg.ExplicitDeference,
			"EuphemizedAutomation":  reg.EuphemizedAutomation,
			"EvidenceOfAbsence":     reg.EvidenceOfAbsence,
			"PolicyCitation":        reg.PolicyCitation,
			"NegativeOutcome":       reg.NegativeOutcome,
			"ThresholdAbsolutism":   reg.ThresholdAbsolutism,
			"Distributive":          reg.Distributive,
			"AggregateAnalysis":     reg.AggregateAnalysis,
			"SubstantiveIndicators": reg.SubstantiveIndicators,
			"ProceduralContexts":    reg.ProceduralContexts,
		}
		for name, set := range sets {
			if len(set) == 0 {
				t.Errorf("set %s is empty", name)
			}
		}
		if len(reg.AggregateMarkers) == 0 {
			t.Error("AggregateMarkers is empty")
		}
	})

	t.Run("ClearedDoesNotMatchClear", func(t *testing.T) {
		result := Scan(reg.NegativeOutcome, "this is a clear breach of expectations")
		for _, label := range result.Labels {
			if label == "cleared" {
				t.Error("bare 'clear' matched the cleared pattern")
			}
		}
	})

	t.Run("AcceptableDoesNotMatchUnacceptable", func(t *testing.T) {
		result := Scan(reg.NegativeOutcome, "this pattern is unacceptable and must be escalated")
		for _, label := range result.Labels {
			if label == "acceptable" {
				t.Error("'unacceptable' matched the acceptable pattern")
			}
		}
	})

	t.Run("BelowReportingThreshold", func(t *testing.T) {
		result := Scan(reg.ExplicitDeference, "deposits are below reporting thresholds")
		found := false
		for _, label := range result.Labels {
			if label == "below threshold" {
				found = true
			}
		}
		if !found {
			t.Error("'below reporting thresholds' did not match")
		}
	})
}
