package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/segmentio/parquet-go"
)

// exportRow is the flattened schema used for Parquet export. Nested
// fields (matches, validation responses) are carried as JSON strings so
// both event types share one schema.
type exportRow struct {
	Timestamp  string `parquet:"timestamp"`
	EventType  string `parquet:"event_type"`
	ScenarioID string `parquet:"scenario_id"`
	ActorID    string `parquet:"actor_id"`
	Flagged    bool   `parquet:"flagged"`
	MatchCount int32  `parquet:"match_count"`
	Detail     string `parquet:"detail"`
}

// ExportCSV writes the full log as CSV. The header is the sorted union
// of every key observed across entries; nested values are rendered as
// compact JSON.
func (l *Log) ExportCSV(w io.Writer) error {
	entries, err := l.readAll()
	if err != nil {
		return err
	}

	keySet := make(map[string]bool)
	for _, entry := range entries {
		for k := range entry {
			keySet[k] = true
		}
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	if err := cw.Write(keys); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(keys))
	for _, entry := range entries {
		for i, k := range keys {
			row[i] = cellValue(entry[k])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportParquet writes the full log as a Parquet file with the
// flattened export schema.
func (l *Log) ExportParquet(w io.Writer) error {
	entries, err := l.readAll()
	if err != nil {
		return err
	}

	pw := parquet.NewWriter(w, parquet.SchemaOf(exportRow{}))
	for _, entry := range entries {
		row := flattenEntry(entry)
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("failed to write Parquet row: %w", err)
		}
	}

	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to finalize Parquet file: %w", err)
	}

	return nil
}

func flattenEntry(entry map[string]interface{}) exportRow {
	row := exportRow{
		Timestamp: stringValue(entry["timestamp"]),
		EventType: stringValue(entry["event_type"]),
	}

	switch row.EventType {
	case EventValidationSession:
		row.ActorID = stringValue(entry["qa_head_id"])
	default:
		row.ScenarioID = stringValue(entry["scenario_id"])
		row.ActorID = stringValue(entry["analyst_id"])
	}

	if flagged, ok := entry["flagged"].(bool); ok {
		row.Flagged = flagged
	}
	if count, ok := entry["match_count"].(float64); ok {
		row.MatchCount = int32(count)
	}

	detail, _ := json.Marshal(entry)
	row.Detail = string(detail)
	return row
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func cellValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	case float64:
		// JSON numbers decode as float64; render integers without a
		// fractional part.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
