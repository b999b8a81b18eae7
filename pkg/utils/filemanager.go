// =============================================================================
// Sport Passport Converter - File Manager Utility
// =============================================================================
//
// This module provides the file helpers around a conversion run:
//   - Run identifiers
//   - Output and sidecar log paths
//   - The corrections log (every change made to the data)
//   - The summary log (counts, skipped rows, timings)
//
// LOG FILES:
//   - Logs are plain text written next to the output file.
//   - <output>.corrections.log lists auto and manual corrections by type.
//   - <output>.summary.log holds the run statistics.
//   - Neither is part of the CSV output.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/sport-passport-converter/internal/types"
)

const (
	logRule     = "================================================================================\n"
	sectionRule = "--------------------------------------------------------------------------------\n"
	timeLayout  = "2006-01-02 15:04:05"
)

// =============================================================================
// RUN IDENTIFIERS AND PATHS
// =============================================================================

// NewRunID returns a random identifier for one conversion run.
func NewRunID() string {
	return uuid.New().String()
}

// CorrectionsLogPath is the corrections log written next to outputPath.
func CorrectionsLogPath(outputPath string) string {
	return outputPath + ".corrections.log"
}

// SummaryLogPath is the summary log written next to outputPath.
func SummaryLogPath(outputPath string) string {
	return outputPath + ".summary.log"
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// CORRECTIONS LOG
// =============================================================================

// WriteCorrectionsLog writes every applied correction, grouped by type, and
// every manual correction.
//
// PARAMETERS:
//   - path: The log file to create.
//   - runID: The run identifier printed in the header.
//   - corrections: The correction ledger.
//   - manual: The operator's manual corrections.
//
// RETURNS:
//   - An error if writing fails.
func WriteCorrectionsLog(path, runID string, corrections []types.CorrectionRecord, manual []types.ManualCorrection) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corrections log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Sport Passport Converter - Corrections Log\n"+
		"Run ID:            %s\n"+
		"Generated:         %s\n"+
		"Auto Corrections:  %d\n"+
		"Manual Corrections: %d\n"+
		logRule+"\n",
		runID, time.Now().Format(timeLayout), len(corrections), len(manual))

	byType := make(map[string][]types.CorrectionRecord)
	for _, c := range corrections {
		byType[c.Type] = append(byType[c.Type], c)
	}
	typeNames := make([]string, 0, len(byType))
	for t := range byType {
		typeNames = append(typeNames, t)
	}
	sort.Strings(typeNames)

	for _, t := range typeNames {
		list := byType[t]
		fmt.Fprintf(writer, "%s (%d)\n", TypeLabel(t), len(list))
		writer.WriteString(sectionRule)
		for _, c := range list {
			fmt.Fprintf(writer, "  Row %-6d %-24s %q -> %q\n", c.RowIndex+2, c.Field, c.Original, c.Corrected)
		}
		writer.WriteString("\n")
	}

	if len(manual) > 0 {
		writer.WriteString("Manual Corrections\n")
		writer.WriteString(sectionRule)
		for _, m := range manual {
			fmt.Fprintf(writer, "  Row %-6d %-24s %q -> %q\n", m.RowIndex+2, m.Field, m.Original, m.Corrected)
		}
		writer.WriteString("\n")
	}

	writer.WriteString(logRule + "End of Corrections Log\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush corrections log: %w", err)
	}
	return nil
}

// TypeLabel turns a correction type tag such as "us_to_uk_date" into a
// heading ("Us To Uk Date").
func TypeLabel(t string) string {
	words := strings.Split(t, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// RunSummary contains summary information about one conversion.
type RunSummary struct {
	RunID      string
	InputFile  string
	OutputFile string
	StartTime  time.Time
	EndTime    time.Time

	TotalRows   int
	WrittenRows int
	EmptyRows   int
	CSVRepairs  int
	Corrections int
	ByType      map[string]int
	Manual      int
	Skipped     []types.SkippedRow
}

// WriteSummaryLog writes a run summary to a log file.
//
// PARAMETERS:
//   - path: The log file to create.
//   - summary: The run summary.
//
// RETURNS:
//   - An error if writing fails.
func WriteSummaryLog(path string, summary RunSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "Sport Passport Converter - Processing Summary\n"+
		logRule+"\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Input:          %s\n"+
		"  Output:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Rows:          %d\n"+
		"  Rows Written:        %d\n"+
		"  Rows Skipped:        %d\n"+
		"  Empty Rows Dropped:  %d\n"+
		"  CSV Comma Repairs:   %d\n"+
		"  Auto Corrections:    %d\n"+
		"  Manual Corrections:  %d\n\n",
		summary.RunID,
		summary.InputFile,
		summary.OutputFile,
		summary.StartTime.Format(timeLayout),
		summary.EndTime.Format(timeLayout),
		duration.String(),
		summary.TotalRows,
		summary.WrittenRows,
		len(summary.Skipped),
		summary.EmptyRows,
		summary.CSVRepairs,
		summary.Corrections,
		summary.Manual)

	if len(summary.ByType) > 0 {
		writer.WriteString("Corrections by Type:\n")
		writer.WriteString(sectionRule)
		names := make([]string, 0, len(summary.ByType))
		for t := range summary.ByType {
			names = append(names, t)
		}
		sort.Strings(names)
		for _, t := range names {
			fmt.Fprintf(writer, "  %-24s %d\n", t, summary.ByType[t])
		}
		writer.WriteString("\n")
	}

	if len(summary.Skipped) > 0 {
		writer.WriteString("Skipped Rows:\n")
		writer.WriteString(sectionRule)
		for _, sk := range summary.Skipped {
			fmt.Fprintf(writer, "  Row %-6d %s: %s\n", sk.RowIndex+2, sk.Name, sk.Reason)
		}
		writer.WriteString("\n")
	}

	writer.WriteString(logRule + "End of Summary\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary file: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
