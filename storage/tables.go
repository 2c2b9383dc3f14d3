package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"regatta-resume/models"
)

// FileTables keeps the two editable tables as CSV files.
type FileTables struct {
	PrimaryPath   string
	SecondaryPath string
}

// NewFileTables creates a TableStore over the given files.
func NewFileTables(primaryPath, secondaryPath string) *FileTables {
	return &FileTables{PrimaryPath: primaryPath, SecondaryPath: secondaryPath}
}

func (f *FileTables) LoadPrimary() (*models.Table, error) { return ReadTable(f.PrimaryPath) }
func (f *FileTables) SavePrimary(t *models.Table) error { return WriteTable(f.PrimaryPath, t) }
func (f *FileTables) LoadSecondary() (*models.Table, error) { return ReadTable(f.SecondaryPath) }

type stagedFile struct {
	tmp, path string
}

// SaveTables writes the tables together. Both are staged to temporary files
// and nothing is replaced unless every stage succeeds. A nil table is left
// as it is on disk.
func (f *FileTables) SaveTables(primary, secondary *models.Table) error {
	var staged []stagedFile
	discard := func() {
		for _, s := range staged {
			_ = os.Remove(s.tmp)
		}
	}

	for _, t := range []struct {
		path  string
		table *models.Table
	}{{f.PrimaryPath, primary}, {f.SecondaryPath, secondary}} {
		if t.table == nil {
			continue
		}
		tmp, err := stageTable(t.path, t.table)
		if err != nil {
			discard()
			return err
		}
		staged = append(staged, stagedFile{tmp: tmp, path: t.path})
	}

	for _, s := range staged {
		if err := os.Rename(s.tmp, s.path); err != nil {
			discard()
			return fmt.Errorf("csv: replace %q: %w", s.path, err)
		}
	}
	return nil
}

// ReadTable loads a header-first CSV file. A missing file is ErrNotFound.
func ReadTable(path string) (*models.Table, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	if len(records) == 0 {
		return &models.Table{}, nil
	}
	return &models.Table{Header: records[0], Rows: records[1:]}, nil
}

// WriteTable replaces path with t, header first.
func WriteTable(path string, t *models.Table) error {
	tmp, err := stageTable(path, t)
	if err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// stageTable writes t next to path and returns the temporary file name.
func stageTable(path string, t *models.Table) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("csv: create output dir: %w", err)
	}
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("csv: create file %q: %w", tmp, err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(t.Header); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("csv: write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("csv: write rows: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("csv: close %q: %w", tmp, err)
	}
	return tmp, nil
}

// ParticipationTable renders participation rows in ParticipationColumns order.
func ParticipationTable(rows []models.ParticipationRow) *models.Table {
	t := &models.Table{Header: append([]string(nil), models.ParticipationColumns...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Regatta, r.Result, r.Date, r.Source, r.Place, r.Total})
	}
	return t
}
