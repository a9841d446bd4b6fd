// Package audit provides the append-only JSONL audit trail. Entries are
// evidentiary, not cryptographically immutable: the log records that an
// analysis or validation session happened, one JSON object per line,
// and never mutates or deletes prior lines.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/peskyphilly/crucible-mvp/internal/detect"
	"go.uber.org/zap"
)

// Event types recorded in the log.
const (
	EventRationaleAnalysis = "RATIONALE_ANALYSIS"
	EventValidationSession = "VALIDATION_SESSION"
)

// Log is an append-only JSONL audit log.
type Log struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// AnalysisEntry is one logged analysis call.
type AnalysisEntry struct {
	Timestamp            string   `json:"timestamp"`
	EventType            string   `json:"event_type"`
	ScenarioID           string   `json:"scenario_id"`
	AnalystID            string   `json:"analyst_id"`
	Rationale            string   `json:"rationale"`
	RationaleLengthWords int      `json:"rationale_length_words"`
	Flagged              bool     `json:"flagged"`
	Matches              []string `json:"matches"`
	MatchCount           int      `json:"match_count"`
}

// ValidationEntry is one logged QA validation session.
type ValidationEntry struct {
	Timestamp           string          `json:"timestamp"`
	EventType           string          `json:"event_type"`
	QAHeadID            string          `json:"qa_head_id"`
	ScenariosReviewed   []string        `json:"scenarios_reviewed"`
	PositiveCasesTested int             `json:"positive_cases_tested"`
	NegativeCasesTested int             `json:"negative_cases_tested"`
	ValidationResponses map[string]bool `json:"validation_responses"`
	AdditionalNotes     string          `json:"additional_notes"`
	ValidationOutcome   string          `json:"validation_outcome"`
}

// Stats summarizes the log contents.
type Stats struct {
	TotalAnalyses     int     `json:"total_analyses"`
	TotalFlagged      int     `json:"total_flagged"`
	FlagRate          float64 `json:"flag_rate"`
	TotalValidations  int     `json:"total_validations"`
	ValidationsPassed int     `json:"validations_passed"`
}

// Open creates an audit log writing to the given path. The file is
// created lazily on first append.
func Open(path string, logger *zap.Logger) *Log {
	return &Log{path: path, logger: logger}
}

// RecordAnalysis appends one analysis entry.
func (l *Log) RecordAnalysis(scenarioID, analystID, rationale string, result detect.CombinedResult) error {
	entry := AnalysisEntry{
		Timestamp:            time.Now().Format(time.RFC3339Nano),
		EventType:            EventRationaleAnalysis,
		ScenarioID:           scenarioID,
		AnalystID:            analystID,
		Rationale:            rationale,
		RationaleLengthWords: len(strings.Fields(rationale)),
		Flagged:              result.Flagged,
		Matches:              result.Matches,
		MatchCount:           result.MatchCount,
	}

	return l.append(entry)
}

// RecordValidation appends one QA validation session entry. The outcome
// is PASSED only when every validation response is affirmative.
func (l *Log) RecordValidation(qaHeadID string, scenariosReviewed []string, responses map[string]bool, notes string, positiveCases, negativeCases int) error {
	outcome := "PASSED"
	for _, ok := range responses {
		if !ok {
			outcome = "PARTIAL"
			break
		}
	}

	entry := ValidationEntry{
		Timestamp:           time.Now().Format(time.RFC3339Nano),
		EventType:           EventValidationSession,
		QAHeadID:            qaHeadID,
		ScenariosReviewed:   scenariosReviewed,
		PositiveCasesTested: positiveCases,
		NegativeCasesTested: negativeCases,
		ValidationResponses: responses,
		AdditionalNotes:     notes,
		ValidationOutcome:   outcome,
	}

	return l.append(entry)
}

// append serializes and writes one entry under the log mutex.
func (l *Log) append(entry interface{}) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	l.logger.Debug("Audit entry appended", zap.String("path", l.path))
	return nil
}

// Recent returns the most recent entries, newest first.
func (l *Log) Recent(limit int) ([]map[string]interface{}, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	// Reverse to newest-first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return entries, nil
}

// GetStats calculates aggregate statistics from the log.
func (l *Log) GetStats() (*Stats, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, entry := range entries {
		switch entry["event_type"] {
		case EventRationaleAnalysis:
			stats.TotalAnalyses++
			if flagged, ok := entry["flagged"].(bool); ok && flagged {
				stats.TotalFlagged++
			}
		case EventValidationSession:
			stats.TotalValidations++
			if entry["validation_outcome"] == "PASSED" {
				stats.ValidationsPassed++
			}
		}
	}

	if stats.TotalAnalyses > 0 {
		stats.FlagRate = float64(stats.TotalFlagged) / float64(stats.TotalAnalyses) * 100
	}

	return stats, nil
}

// readAll parses every line of the log. A missing file is an empty log.
func (l *Log) readAll() ([]map[string]interface{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			l.logger.Warn("Skipping malformed audit line", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	return entries, nil
}
