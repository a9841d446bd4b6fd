package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "corpse_nationwide.json", `{
		"id": "nationwide_2021",
		"institution": "Nationwide",
		"fine_amount": "264.8M",
		"title": "Structured deposits",
		"scenario": "Deposits below threshold.",
		"fca_criticism": "Reliance on thresholds.",
		"correct_approach": "Aggregate the activity."
	}`)
	writeFile(t, dir, "corpse_barclays.json", `{
		"id": "barclays_2015",
		"institution": "Barclays",
		"fine_amount": "72M",
		"title": "Reduced checks",
		"scenario": "Clean screening accepted.",
		"fca_criticism": "Lower standard applied.",
		"correct_approach": "Enhanced due diligence."
	}`)
	// Wrong prefix, should be ignored entirely.
	writeFile(t, dir, "notes.json", `{"id": "ignored"}`)

	store, err := Load(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	t.Run("Count", func(t *testing.T) {
		if store.Count() != 2 {
			t.Errorf("count = %d, want 2", store.Count())
		}
	})

	t.Run("Get", func(t *testing.T) {
		sc, ok := store.Get("nationwide_2021")
		if !ok {
			t.Fatal("scenario not found")
		}
		if sc.Institution != "Nationwide" || sc.FineAmount != "264.8M" {
			t.Errorf("unexpected scenario %+v", sc)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		if _, ok := store.Get("missing"); ok {
			t.Error("missing scenario reported as found")
		}
	})

	t.Run("ListSortedByID", func(t *testing.T) {
		list := store.List()
		if len(list) != 2 {
			t.Fatalf("list length = %d", len(list))
		}
		if list[0].ID != "barclays_2015" || list[1].ID != "nationwide_2021" {
			t.Errorf("list not sorted: %s, %s", list[0].ID, list[1].ID)
		}
	})
}

func TestLoadSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "corpse_ok.json", `{"id": "ok", "institution": "X"}`)
	writeFile(t, dir, "corpse_broken.json", `{not json`)
	writeFile(t, dir, "corpse_noid.json", `{"institution": "Y"}`)

	store, err := Load(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("count = %d, want 1 (bad files skipped)", store.Count())
	}
}

func TestLoadEmptyDir(t *testing.T) {
	store, err := Load(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("count = %d, want 0", store.Count())
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if store.Count() != 0 {
		t.Fatalf("count = %d", store.Count())
	}

	writeFile(t, dir, "corpse_new.json", `{"id": "new"}`)
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("count after reload = %d, want 1", store.Count())
	}
}
