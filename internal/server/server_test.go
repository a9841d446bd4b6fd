package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/peskyphilly/crucible-mvp/internal/config"
	"github.com/peskyphilly/crucible-mvp/internal/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	scenarioDir := filepath.Join(dir, "scenarios")
	if err := os.MkdirAll(scenarioDir, 0755); err != nil {
		t.Fatal(err)
	}
	scenarioJSON := `{
		"id": "nationwide_2021",
		"institution": "Nationwide",
		"fine_amount": "264.8M",
		"title": "Structured deposits",
		"scenario": "Deposits below threshold.",
		"fca_criticism": "Reliance on thresholds.",
		"correct_approach": "Aggregate the activity."
	}`
	if err := os.WriteFile(filepath.Join(scenarioDir, "corpse_nationwide.json"), []byte(scenarioJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.GetDefaults()
	cfg.Scenarios.Dir = scenarioDir
	cfg.Audit.Path = filepath.Join(dir, "audit_log.jsonl")
	cfg.Server.RateLimit.Enabled = false
	cfg.Cache.Enabled = false
	cfg.Archive.Enabled = false

	s, err := New(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	go s.wsHub.Run()
	return s
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestScenarioEndpoints(t *testing.T) {
	s := newTestServer(t)

	t.Run("List", func(t *testing.T) {
		rec := doRequest(s, "GET", "/api/scenarios", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var list []map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 {
			t.Errorf("scenario count = %d", len(list))
		}
	})

	t.Run("GetByID", func(t *testing.T) {
		rec := doRequest(s, "GET", "/api/scenarios/nationwide_2021", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := doRequest(s, "GET", "/api/scenarios/missing", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("FlaggedRationale", func(t *testing.T) {
		rec := doRequest(s, "POST", "/api/analyze", AnalyzeRequest{
			ScenarioID: "nationwide_2021",
			AnalystID:  "analyst-1",
			Rationale:  "Below reporting threshold, no further action required per policy.",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var resp AnalyzeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !resp.Result.Flagged {
			t.Error("deferent rationale not flagged")
		}
		if resp.Explanation == "" {
			t.Error("explanation missing")
		}
	})

	t.Run("CleanRationale", func(t *testing.T) {
		rec := doRequest(s, "POST", "/api/analyze", AnalyzeRequest{
			ScenarioID: "nationwide_2021",
			AnalystID:  "analyst-1",
			Rationale:  "The structuring pattern is inconsistent with the declared business. Escalating for source of funds review.",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var resp AnalyzeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Result.Flagged {
			t.Errorf("clean rationale flagged: %v", resp.Result.Matches)
		}
	})

	t.Run("MissingRationale", func(t *testing.T) {
		rec := doRequest(s, "POST", "/api/analyze", AnalyzeRequest{ScenarioID: "x"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("InvalidThreshold", func(t *testing.T) {
		negative := -5.0
		rec := doRequest(s, "POST", "/api/analyze", AnalyzeRequest{
			Rationale: "text", Threshold: &negative,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestAnalyzeWritesAuditTrail(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, "POST", "/api/analyze", AnalyzeRequest{
		ScenarioID: "nationwide_2021",
		AnalystID:  "analyst-1",
		Rationale:  "no further action required per policy",
	})

	rec := doRequest(s, "GET", "/api/audit/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats["total_analyses"] != float64(1) {
		t.Errorf("total_analyses = %v", stats["total_analyses"])
	}
	if stats["total_flagged"] != float64(1) {
		t.Errorf("total_flagged = %v", stats["total_flagged"])
	}
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, "POST", "/api/validate", ValidateRequest{
		QAHeadID:            "qa-1",
		ScenariosReviewed:   []string{"nationwide_2021"},
		PositiveCasesTested: 3,
		NegativeCasesTested: 2,
		ValidationResponses: map[string]bool{"detects_positive": true, "passes_negative": false},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["validation_outcome"] != "PARTIAL" {
		t.Errorf("outcome = %q", resp["validation_outcome"])
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, "POST", "/api/sessions", map[string]string{"analyst_id": "analyst-9"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	var sess map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}
	id, _ := sess["id"].(string)
	if id == "" {
		t.Fatal("session ID missing")
	}

	doRequest(s, "POST", "/api/analyze", AnalyzeRequest{
		ScenarioID: "nationwide_2021",
		SessionID:  id,
		Rationale:  "no further action required per policy",
	})

	rec = doRequest(s, "GET", "/api/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got["analyses"] != float64(1) || got["flagged"] != float64(1) {
		t.Errorf("session counters = %v / %v", got["analyses"], got["flagged"])
	}

	rec = doRequest(s, "DELETE", "/api/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	rec = doRequest(s, "GET", "/api/sessions/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d", rec.Code)
	}
}

func TestAuditExportFormats(t *testing.T) {
	s := newTestServer(t)
	doRequest(s, "POST", "/api/analyze", AnalyzeRequest{
		ScenarioID: "nationwide_2021",
		Rationale:  "per policy, no further action required",
	})

	t.Run("CSV", func(t *testing.T) {
		rec := doRequest(s, "GET", "/api/audit/export?format=csv", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "text/csv" {
			t.Errorf("content type = %q", got)
		}
	})

	t.Run("Parquet", func(t *testing.T) {
		rec := doRequest(s, "GET", "/api/audit/export?format=parquet", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Body.Len() == 0 {
			t.Error("empty parquet body")
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		rec := doRequest(s, "GET", "/api/audit/export?format=xml", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestReloadDetection(t *testing.T) {
	s := newTestServer(t)

	cfg := config.GetDefaults()
	cfg.Detection.PolicyThreshold = 50000
	s.ReloadDetection(cfg)

	if s.config.Detection.PolicyThreshold != 50000 {
		t.Errorf("threshold = %f", s.config.Detection.PolicyThreshold)
	}
	if s.engine.Load() == nil {
		t.Fatal("engine missing after reload")
	}
}
