// package formatter provides functions to export enrichment run reports and
// source metrics to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tagx/internal/enrich"
	"github.com/desertthunder/tagx/internal/metrics"
	"github.com/desertthunder/tagx/internal/shared"
)

// ReportToCSV converts a RunResult to CSV format with columns: Path, Artist,
// Title, Genres, Year, Album, Status, Error
func ReportToCSV(report *enrich.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Path", "Artist", "Title", "Genres", "Year", "Album", "Status", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, res := range report.Results {
		status := "enriched"
		errMsg := ""
		if res.Err != nil {
			status = "failed"
			errMsg = res.Err.Error()
		}
		record := []string{
			res.Track.Path,
			res.Track.Artist,
			res.Track.Title,
			strings.Join(res.Genres, "; "),
			res.Year,
			res.Album,
			status,
			errMsg,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a RunResult to Markdown format with a summary
// section followed by a per-track listing
func ReportToMarkdown(report *enrich.RunResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Enrichment Report\n\n")
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", report.TotalTracks))
	buf.WriteString(fmt.Sprintf("**Enriched**: %d\n", report.SuccessCount))
	buf.WriteString(fmt.Sprintf("**Failed**: %d\n", report.FailedCount))
	if report.CancelledCount > 0 {
		buf.WriteString(fmt.Sprintf("**Cancelled**: %d\n", report.CancelledCount))
	}
	if report.CacheHits > 0 {
		buf.WriteString(fmt.Sprintf("**Cache hits**: %d\n", report.CacheHits))
	}
	if report.RelaxedCount > 0 {
		buf.WriteString(fmt.Sprintf("**Relaxed threshold**: %d\n", report.RelaxedCount))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, res := range report.Results {
		if res.Err != nil {
			buf.WriteString(fmt.Sprintf("%d. %s - %s: FAILED (%v)\n", i+1, res.Track.Artist, res.Track.Title, res.Err))
			continue
		}
		yearPart := ""
		if res.Year != "" {
			yearPart = fmt.Sprintf(" [%s]", res.Year)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s: %s\n", i+1, res.Track.Artist, res.Track.Title, yearPart, strings.Join(res.Genres, ", ")))
	}

	return buf.Bytes(), nil
}

// ReportToText converts a RunResult to plain text format
func ReportToText(report *enrich.RunResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Enriched: %d/%d", report.SuccessCount, report.TotalTracks))
	if report.FailedCount > 0 {
		buf.WriteString(fmt.Sprintf(", failed: %d", report.FailedCount))
	}
	if report.CancelledCount > 0 {
		buf.WriteString(fmt.Sprintf(", cancelled: %d", report.CancelledCount))
	}
	buf.WriteString("\n\n")

	for i, res := range report.Results {
		if res.Err != nil {
			buf.WriteString(fmt.Sprintf("%d. %s - %s: failed\n", i+1, res.Track.Artist, res.Track.Title))
			continue
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s: %s\n", i+1, res.Track.Artist, res.Track.Title, strings.Join(res.Genres, ", ")))
	}

	return buf.Bytes(), nil
}

// ReportToJSON generates an indented JSON representation of a RunResult
func ReportToJSON(report *enrich.RunResult) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// MetricsRow pairs a source name with its derived snapshot for stable output
// ordering.
type MetricsRow struct {
	Source   string           `json:"source"`
	Snapshot metrics.Snapshot `json:"metrics"`
}

// MetricsRows collects snapshots for every recorded source, sorted by name.
func MetricsRows(tracker *metrics.Tracker) []MetricsRow {
	sources := tracker.Sources()
	sort.Strings(sources)

	rows := make([]MetricsRow, 0, len(sources))
	for _, source := range sources {
		rows = append(rows, MetricsRow{Source: source, Snapshot: tracker.Get(source)})
	}
	return rows
}

// MetricsToCSV converts tracker snapshots to CSV format with columns: Source,
// Calls, SuccessRate, AvgLatency, RateLimitHits, RateLimitRatio
func MetricsToCSV(tracker *metrics.Tracker) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Source", "Calls", "SuccessRate", "AvgLatency", "RateLimitHits", "RateLimitRatio"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range MetricsRows(tracker) {
		record := []string{
			row.Source,
			strconv.FormatInt(row.Snapshot.TotalCalls, 10),
			strconv.FormatFloat(row.Snapshot.SuccessRate, 'f', 4, 64),
			row.Snapshot.AvgLatency.String(),
			strconv.FormatInt(row.Snapshot.RateLimitHits, 10),
			strconv.FormatFloat(row.Snapshot.RateLimitRatio, 'f', 4, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// MetricsToText renders tracker snapshots as an aligned plain-text table.
func MetricsToText(tracker *metrics.Tracker) []byte {
	var buf bytes.Buffer

	rows := MetricsRows(tracker)
	if len(rows) == 0 {
		buf.WriteString("No metrics recorded.\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("%-12s %8s %9s %12s %8s\n", "SOURCE", "CALLS", "SUCCESS", "AVG LATENCY", "LIMITED"))
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("%-12s %8d %8.1f%% %12s %8d\n",
			row.Source,
			row.Snapshot.TotalCalls,
			row.Snapshot.SuccessRate*100,
			row.Snapshot.AvgLatency.Round(time.Millisecond).String(),
			row.Snapshot.RateLimitHits,
		))
	}

	return buf.Bytes()
}

// MetricsToJSON generates an indented JSON representation of all snapshots.
func MetricsToJSON(tracker *metrics.Tracker) ([]byte, error) {
	return shared.MarshalJSON(MetricsRows(tracker), true)
}

// WriteReport exports a RunResult to the given path, picking the format from
// the file extension (.csv, .md, .json; anything else is plain text).
func WriteReport(report *enrich.RunResult, path string) (string, error) {
	if path == "" {
		path = "tagx_report.txt"
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasSuffix(path, ".csv"):
		data, err = ReportToCSV(report)
	case strings.HasSuffix(path, ".md"):
		data, err = ReportToMarkdown(report)
	case strings.HasSuffix(path, ".json"):
		data, err = ReportToJSON(report)
	default:
		data, err = ReportToText(report)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}
