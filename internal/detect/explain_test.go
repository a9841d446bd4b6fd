package detect

import (
	"strings"
	"testing"

	"github.com/peskyphilly/crucible-mvp/internal/lexicon"
)

func TestExplainClean(t *testing.T) {
	got := Explain(CombinedResult{Flagged: false})
	if !strings.Contains(got, "independent judgment") {
		t.Errorf("clean message = %q", got)
	}
}

func TestExplainFlagged(t *testing.T) {
	result := CombinedResult{
		Flagged:        true,
		Matches:        []string{"per policy", "below threshold"},
		MatchCount:     3,
		FlaggedModules: []DetectionType{TypeExplicitFilterDeference},
		MatchLocations: []lexicon.Location{
			{Phrase: "per policy", Position: 10, Context: "closing the alert per policy as usual"},
		},
	}

	got := Explain(result)

	t.Run("Headline", func(t *testing.T) {
		if !strings.Contains(got, "FILTER-DEFERENCE DETECTED") {
			t.Error("headline missing")
		}
		if !strings.Contains(got, "3 instance(s)") {
			t.Error("instance count missing")
		}
	})

	t.Run("ModuleLabel", func(t *testing.T) {
		if !strings.Contains(got, ModuleLabel(TypeExplicitFilterDeference)) {
			t.Error("module label missing")
		}
	})

	t.Run("PhrasesNumbered", func(t *testing.T) {
		if !strings.Contains(got, `1. "per policy"`) {
			t.Errorf("first phrase missing:\n%s", got)
		}
		if !strings.Contains(got, `2. "below threshold"`) {
			t.Errorf("second phrase missing:\n%s", got)
		}
	})

	t.Run("ContextSnippet", func(t *testing.T) {
		if !strings.Contains(got, "closing the alert per policy") {
			t.Error("context snippet missing")
		}
	})

	t.Run("RegulatoryFooter", func(t *testing.T) {
		for _, fragment := range []string{"Nationwide", "Barclays", "£264.8M"} {
			if !strings.Contains(got, fragment) {
				t.Errorf("footer missing %q", fragment)
			}
		}
	})
}

func TestExplainTruncation(t *testing.T) {
	result := CombinedResult{
		Flagged:        true,
		MatchCount:     20,
		FlaggedModules: []DetectionType{TypeEuphemizedAutomation},
	}
	for i := 0; i < 20; i++ {
		result.Matches = append(result.Matches, "phrase")
		result.MatchLocations = append(result.MatchLocations, lexicon.Location{Context: "ctx"})
	}

	got := Explain(result)

	if strings.Contains(got, "11.") {
		t.Error("phrase list not truncated at 10")
	}
	if strings.Count(got, "- ...ctx...") > 3 {
		t.Error("snippet list not truncated at 3")
	}
}

func TestModuleLabelFallback(t *testing.T) {
	if got := ModuleLabel(DetectionType("UNKNOWN_MODULE")); got != "UNKNOWN_MODULE" {
		t.Errorf("fallback label = %q", got)
	}
}
