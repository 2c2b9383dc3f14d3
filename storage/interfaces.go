package storage

import (
	"context"
	"errors"
	"strings"

	"regatta-resume/models"
)

// ErrNotFound is returned when a requested record or file does not exist.
var ErrNotFound = errors.New("storage: not found")

// ResultStore persists sailors, regattas and results. Inserts are idempotent
// on their natural keys.
type ResultStore interface {
	// GetOrCreateSailor matches on the normalized name; created reports an insert.
	GetOrCreateSailor(ctx context.Context, name string) (s *models.Sailor, created bool, err error)
	// GetOrCreateRegatta matches on ExternalID.
	GetOrCreateRegatta(ctx context.Context, r models.Regatta) (reg *models.Regatta, created bool, err error)
	// InsertResult is a no-op returning false when (sailor, regatta, division) exists.
	InsertResult(ctx context.Context, r models.Result) (bool, error)
	SailorByName(ctx context.Context, name string) (*models.Sailor, error)
	ResultsForSailor(ctx context.Context, sailorID int64) ([]models.ResultRecord, error)
}

// RunStore keeps the durable run records.
type RunStore interface {
	CreateRun(ctx context.Context) (*models.Run, error)
	UpdateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	LatestRun(ctx context.Context) (*models.Run, error)
	RequestCancel(ctx context.Context, id string) error
}

// Store is a full relational backend.
type Store interface {
	ResultStore
	RunStore
	Close() error
}

// TableStore loads and saves the two editable tables: the primary
// participation table and the secondary results table. SaveTables replaces
// both or neither; a nil table is skipped.
type TableStore interface {
	LoadPrimary() (*models.Table, error)
	SavePrimary(t *models.Table) error
	LoadSecondary() (*models.Table, error)
	SaveTables(primary, secondary *models.Table) error
}

// Recorder receives per-listing outcomes of a name-search run.
type Recorder interface {
	RecordAudit(l models.RegattaListing, status string) error
	RecordMatch(l models.RegattaListing, rowText string) error
	Close() error
}

// NormalizeName is the sailor match key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
