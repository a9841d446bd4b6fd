package session

import (
	"testing"

	"go.uber.org/zap"
)

func TestManager(t *testing.T) {
	m := NewManager(zap.NewNop())

	t.Run("StartAssignsID", func(t *testing.T) {
		s := m.Start("analyst-1")
		if s.ID == "" {
			t.Error("session ID is empty")
		}
		if s.AnalystID != "analyst-1" {
			t.Errorf("analyst ID = %q", s.AnalystID)
		}
	})

	t.Run("RecordAnalysisCounts", func(t *testing.T) {
		s := m.Start("analyst-2")
		m.RecordAnalysis(s.ID, true)
		m.RecordAnalysis(s.ID, false)
		m.RecordAnalysis(s.ID, true)

		got, ok := m.Get(s.ID)
		if !ok {
			t.Fatal("session not found")
		}
		if got.Analyses != 3 || got.Flagged != 2 {
			t.Errorf("analyses = %d flagged = %d", got.Analyses, got.Flagged)
		}
	})

	t.Run("UnknownSessionIgnored", func(t *testing.T) {
		m.RecordAnalysis("does-not-exist", true)
		m.RecordAnalysis("", true)
	})

	t.Run("EndRemoves", func(t *testing.T) {
		s := m.Start("analyst-3")
		m.RecordAnalysis(s.ID, true)

		ended, ok := m.End(s.ID)
		if !ok {
			t.Fatal("End did not find the session")
		}
		if ended.Analyses != 1 {
			t.Errorf("final state analyses = %d", ended.Analyses)
		}
		if _, ok := m.Get(s.ID); ok {
			t.Error("session still present after End")
		}
	})

	t.Run("EndMissing", func(t *testing.T) {
		if _, ok := m.End("does-not-exist"); ok {
			t.Error("End reported success for missing session")
		}
	})
}

func TestListOrdering(t *testing.T) {
	m := NewManager(zap.NewNop())

	first := m.Start("a")
	second := m.Start("b")

	// Touching the older session makes it the most recently active.
	m.RecordAnalysis(first.ID, false)

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("list length = %d", len(list))
	}
	if list[0].ID != first.ID {
		t.Errorf("most recently active session should come first, got %s", list[0].ID)
	}
	if list[1].ID != second.ID {
		t.Errorf("unexpected second entry %s", list[1].ID)
	}
}
