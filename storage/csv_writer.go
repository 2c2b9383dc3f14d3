package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"regatta-resume/models"
)

// Export headers.
var (
	AuditHeader   = []string{"Regatta Name", "Club", "Start Date (UTC)", "Results URL", "Status"}
	MatchesHeader = []string{"Regatta Name", "Club", "Start Date (UTC)", "Matched Row Text"}
)

// csvFile is a header-first CSV file flushed after every write.
type csvFile struct {
	file   *os.File
	writer *csv.Writer
}

// createCSV creates (or truncates) path and writes header. Intermediate
// directories are created automatically.
func createCSV(path string, header []string) (*csvFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	return &csvFile{file: f, writer: w}, nil
}

func (c *csvFile) write(row []string) error {
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}
	c.writer.Flush()
	return c.writer.Error()
}

func (c *csvFile) close() error {
	c.writer.Flush()
	return c.file.Close()
}

// CSVRecorder writes the audit log of every visited listing and the export
// of every matched row. It is safe for concurrent use.
type CSVRecorder struct {
	mu      sync.Mutex
	audit   *csvFile
	matches *csvFile
}

// NewCSVRecorder creates both export files, truncating previous runs.
func NewCSVRecorder(auditPath, matchesPath string) (*CSVRecorder, error) {
	audit, err := createCSV(auditPath, AuditHeader)
	if err != nil {
		return nil, err
	}
	matches, err := createCSV(matchesPath, MatchesHeader)
	if err != nil {
		_ = audit.close()
		return nil, err
	}
	return &CSVRecorder{audit: audit, matches: matches}, nil
}

// RecordAudit appends one listing and the detail code it ended with.
func (c *CSVRecorder) RecordAudit(l models.RegattaListing, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.audit.write([]string{l.Name, l.HostName, l.StartDate(), l.ResultsURL, status})
}

// RecordMatch appends one matched row.
func (c *CSVRecorder) RecordMatch(l models.RegattaListing, rowText string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matches.write([]string{l.Name, l.HostName, l.StartDate(), rowText})
}

// Close flushes and closes both files.
func (c *CSVRecorder) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.audit.close()
	if mErr := c.matches.close(); err == nil {
		err = mErr
	}
	return err
}
