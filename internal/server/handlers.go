package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/peskyphilly/crucible-mvp/internal/archive"
	"github.com/peskyphilly/crucible-mvp/internal/detect"
	"github.com/peskyphilly/crucible-mvp/internal/websocket"
)

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	ScenarioID string   `json:"scenario_id"`
	AnalystID  string   `json:"analyst_id"`
	SessionID  string   `json:"session_id,omitempty"`
	Rationale  string   `json:"rationale"`
	Threshold  *float64 `json:"threshold,omitempty"`
}

// AnalyzeResponse is the body returned by POST /api/analyze.
type AnalyzeResponse struct {
	Result      detect.CombinedResult `json:"result"`
	Explanation string                `json:"explanation"`
	Cached      bool                  `json:"cached"`
}

// ValidateRequest is the body of POST /api/validate.
type ValidateRequest struct {
	QAHeadID            string          `json:"qa_head_id"`
	ScenariosReviewed   []string        `json:"scenarios_reviewed"`
	PositiveCasesTested int             `json:"positive_cases_tested"`
	NegativeCasesTested int             `json:"negative_cases_tested"`
	ValidationResponses map[string]bool `json:"validation_responses"`
	AdditionalNotes     string          `json:"additional_notes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":             "crucible",
		"version":          "0.1.0",
		"policy_threshold": s.config.Detection.PolicyThreshold,
		"scenarios":        s.scenarios.Count(),
		"audit_enabled":    s.config.Audit.Enabled,
		"cache_enabled":    s.cache != nil,
		"archive_enabled":  s.archive != nil,
		"total_analyses":   atomic.LoadInt64(&s.totalAnalyses),
		"total_flagged":    atomic.LoadInt64(&s.totalFlagged),
		"uptime":           time.Since(s.startTime).String(),
	})
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.scenarios.List())
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sc, ok := s.scenarios.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("scenario %q not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, sc)
}

// handleAnalyze runs the detection engine over a submitted rationale,
// records the result on the audit trail, and broadcasts it to the
// dashboard.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rationale == "" {
		s.writeError(w, http.StatusBadRequest, "rationale is required")
		return
	}

	threshold := s.config.Detection.PolicyThreshold
	if req.Threshold != nil {
		if *req.Threshold <= 0 {
			s.writeError(w, http.StatusBadRequest, "threshold must be positive")
			return
		}
		threshold = *req.Threshold
	}

	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID).WithScenario(req.ScenarioID)

	start := time.Now()
	var result detect.CombinedResult
	cached := false

	if s.cache != nil {
		if hit, err := s.cache.Get(r.Context(), req.Rationale, threshold); err == nil && hit != nil {
			result = *hit
			cached = true
		}
	}

	if !cached {
		result = s.engine.Load().AnalyzeWithThreshold(req.Rationale, threshold)
		if s.cache != nil {
			if err := s.cache.Store(r.Context(), req.Rationale, threshold, result); err != nil {
				log.Warn("Failed to cache analysis result", zap.Error(err))
			}
		}
	}

	atomic.AddInt64(&s.totalAnalyses, 1)
	if result.Flagged {
		atomic.AddInt64(&s.totalFlagged, 1)
	}

	if s.config.Audit.Enabled {
		if err := s.auditLog.RecordAnalysis(req.ScenarioID, req.AnalystID, req.Rationale, result); err != nil {
			log.Error("Failed to append audit entry", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "failed to record audit entry")
			return
		}
	}

	if s.archive != nil {
		modules := make([]string, len(result.FlaggedModules))
		for i, m := range result.FlaggedModules {
			modules[i] = string(m)
		}
		record := &archive.Record{
			ScenarioID: req.ScenarioID,
			AnalystID:  req.AnalystID,
			Rationale:  req.Rationale,
			Flagged:    result.Flagged,
			MatchCount: result.MatchCount,
		}
		if err := s.archive.Insert(r.Context(), record, modules, result.Matches); err != nil {
			log.Warn("Failed to archive analysis record", zap.Error(err))
		}
	}

	s.sessions.RecordAnalysis(req.SessionID, result.Flagged)

	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeDetection,
		Timestamp: time.Now(),
		RequestID: requestID,
		Data: websocket.DetectionEvent{
			RequestID:      requestID,
			ScenarioID:     req.ScenarioID,
			AnalystID:      req.AnalystID,
			Flagged:        result.Flagged,
			MatchCount:     result.MatchCount,
			FlaggedModules: result.FlaggedModules,
			ProcessingMS:   float64(time.Since(start).Nanoseconds()) / 1e6,
		},
	})
	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeAudit,
		Timestamp: time.Now(),
		RequestID: requestID,
		Data: websocket.AuditEvent{
			EventType:  "RATIONALE_ANALYSIS",
			ScenarioID: req.ScenarioID,
			Flagged:    result.Flagged,
		},
	})

	log.Info("Rationale analyzed",
		zap.Bool("flagged", result.Flagged),
		zap.Int("match_count", result.MatchCount),
		zap.Bool("cached", cached),
	)

	s.writeJSON(w, http.StatusOK, AnalyzeResponse{
		Result:      result,
		Explanation: detect.Explain(result),
		Cached:      cached,
	})
}

// handleValidate records a QA validation session on the audit trail.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QAHeadID == "" {
		s.writeError(w, http.StatusBadRequest, "qa_head_id is required")
		return
	}

	if err := s.auditLog.RecordValidation(
		req.QAHeadID,
		req.ScenariosReviewed,
		req.ValidationResponses,
		req.AdditionalNotes,
		req.PositiveCasesTested,
		req.NegativeCasesTested,
	); err != nil {
		s.logger.Error("Failed to record validation session", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to record validation session")
		return
	}

	outcome := "PASSED"
	for _, ok := range req.ValidationResponses {
		if !ok {
			outcome = "PARTIAL"
			break
		}
	}

	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeAudit,
		Timestamp: time.Now(),
		Data:      websocket.AuditEvent{EventType: "VALIDATION_SESSION"},
	})

	s.writeJSON(w, http.StatusOK, map[string]string{"validation_outcome": outcome})
}

func (s *Server) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := s.auditLog.Recent(limit)
	if err != nil {
		s.logger.Error("Failed to read audit log", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to read audit log")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.auditLog.GetStats()
	if err != nil {
		s.logger.Error("Failed to read audit log", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to read audit log")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// handleAuditExport streams the audit log as CSV or Parquet.
func (s *Server) handleAuditExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="audit_log.csv"`)
		if err := s.auditLog.ExportCSV(w); err != nil {
			s.logger.Error("Failed to export audit log as CSV", zap.Error(err))
		}
	case "parquet":
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="audit_log.parquet"`)
		if err := s.auditLog.ExportParquet(w); err != nil {
			s.logger.Error("Failed to export audit log as Parquet", zap.Error(err))
		}
	default:
		s.writeError(w, http.StatusBadRequest, "format must be csv or parquet")
	}
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnalystID string `json:"analyst_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AnalystID == "" {
		s.writeError(w, http.StatusBadRequest, "analyst_id is required")
		return
	}

	s.writeJSON(w, http.StatusCreated, s.sessions.Start(req.AnalystID))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessions.List())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := s.sessions.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("session %q not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := s.sessions.End(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("session %q not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.GetStats(r.Context())
	if err != nil {
		s.logger.Error("Failed to read cache stats", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to read cache stats")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Clear(r.Context()); err != nil {
		s.logger.Error("Failed to clear cache", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleArchiveRecent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := s.archive.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to query archive", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to query archive")
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleArchiveStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.archive.GetStats(r.Context())
	if err != nil {
		s.logger.Error("Failed to query archive", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to query archive")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
