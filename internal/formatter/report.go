// package formatter exports missing-track reports to CSV, JSON, and plain
// text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/discosync/discosync/internal/models"
)

// MissingReport is the report payload for one destination.
type MissingReport struct {
	Destination models.Platform       `json:"destination"`
	GeneratedAt time.Time             `json:"generated_at"`
	Tracks      []models.MissingTrack `json:"tracks"`
}

// NewMissingReport assembles a report for the given destination.
func NewMissingReport(destination models.Platform, tracks []models.MissingTrack) *MissingReport {
	return &MissingReport{
		Destination: destination,
		GeneratedAt: time.Now(),
		Tracks:      tracks,
	}
}

// ExportToCSV converts the report to CSV with columns: Artist, Title,
// Position, Release ID, Folder ID, Searched At
func ExportToCSV(report *MissingReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Artist", "Title", "Position", "Release ID", "Folder ID", "Searched At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range report.Tracks {
		record := []string{
			track.Artist,
			track.Title,
			track.Position,
			strconv.FormatInt(track.ReleaseID, 10),
			strconv.FormatInt(track.FolderID, 10),
			track.SearchedAt.Format(time.RFC3339),
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

// ExportToJSON converts the report to indented JSON.
func ExportToJSON(report *MissingReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// ExportToText converts the report to a plain text listing.
func ExportToText(report *MissingReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Missing on %s: %d tracks\n\n", report.Destination, len(report.Tracks)))
	for i, track := range report.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (release %d, %s)\n",
			i+1, track.Artist, track.Title, track.ReleaseID, track.Position))
	}

	return buf.Bytes(), nil
}

// WriteCSVReport writes the report to path as CSV and returns the path.
func WriteCSVReport(report *MissingReport, path string) (string, error) {
	if path == "" {
		path = defaultPath(report, "csv")
	}

	data, err := ExportToCSV(report)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// WriteJSONReport writes the report to path as JSON and returns the path.
func WriteJSONReport(report *MissingReport, path string) (string, error) {
	if path == "" {
		path = defaultPath(report, "json")
	}

	data, err := ExportToJSON(report)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return path, nil
}

func defaultPath(report *MissingReport, ext string) string {
	return fmt.Sprintf("missing_%s_%s.%s", report.Destination,
		report.GeneratedAt.Format("2006-01-02"), ext)
}
