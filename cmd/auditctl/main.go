// auditctl inspects and exports the Crucible audit trail from the
// command line.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/peskyphilly/crucible-mvp/internal/audit"
)

func main() {
	fs := flag.NewFlagSet("auditctl", flag.ExitOnError)
	logPath := fs.String("log", "audit_log.jsonl", "Path to the audit log")
	outputPath := fs.String("output", "", "Output file path (defaults per format)")
	limit := fs.Int("limit", 20, "Number of entries to show")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	command := os.Args[1]
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}

	log := audit.Open(*logPath, zap.NewNop())

	var err error
	switch command {
	case "stats":
		err = runStats(log)
	case "recent":
		err = runRecent(log, *limit)
	case "csv":
		err = runExport(*outputPath, "audit_log.csv", log.ExportCSV)
	case "parquet":
		err = runExport(*outputPath, "audit_log.parquet", log.ExportParquet)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "auditctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  stats     Show audit log statistics\n")
	fmt.Fprintf(os.Stderr, "  recent    Show recent entries\n")
	fmt.Fprintf(os.Stderr, "  csv       Export the log as CSV\n")
	fmt.Fprintf(os.Stderr, "  parquet   Export the log as Parquet\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s stats --log audit_log.jsonl\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s recent --limit 10\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s parquet --output exports/audit.parquet\n", os.Args[0])
}

func runStats(log *audit.Log) error {
	stats, err := log.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("Analyses:     %d\n", stats.TotalAnalyses)
	fmt.Printf("Flagged:      %d (%.1f%%)\n", stats.TotalFlagged, stats.FlagRate)
	fmt.Printf("Validations:  %d\n", stats.TotalValidations)
	fmt.Printf("Passed:       %d\n", stats.ValidationsPassed)
	return nil
}

func runRecent(log *audit.Log, limit int) error {
	entries, err := log.Recent(limit)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}

func runExport(outputPath, defaultName string, export func(w io.Writer) error) error {
	if outputPath == "" {
		outputPath = defaultName
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := export(file); err != nil {
		return err
	}

	fmt.Printf("Exported audit log to %s\n", outputPath)
	return nil
}
