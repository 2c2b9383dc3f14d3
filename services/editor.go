package services

import (
	"errors"
	"fmt"
	"strconv"

	"regatta-resume/models"
	"regatta-resume/storage"
	"regatta-resume/utils"
)

// EditableFields are the only columns an edit may touch.
var EditableFields = []string{ColSource, ColRegatta, ColDate, ColPlace, ColResult}

// ErrNoEdits is returned for an empty batch.
var ErrNoEdits = errors.New("missing edits")

// Edit is one cell-level change addressed by global RowID.
type Edit struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value any    `json:"value"`
}

// EditError identifies the edit that made a batch invalid.
type EditError struct {
	Index  int
	Reason string
}

func (e *EditError) Error() string {
	return fmt.Sprintf("edit %d: %s", e.Index, e.Reason)
}

// Editor applies edit batches to the two editable tables.
type Editor struct {
	tables storage.TableStore
	logger *utils.Logger
}

// NewEditor creates an Editor over tables.
func NewEditor(tables storage.TableStore, logger *utils.Logger) *Editor {
	return &Editor{tables: tables, logger: logger}
}

// View returns the canonical rows of both tables with their global RowIDs.
func (e *Editor) View() ([]models.ViewRow, error) {
	primary, secondary, err := e.load()
	if err != nil {
		return nil, err
	}
	view, _ := BuildView(primary, secondary)
	return view, nil
}

// Apply validates the whole batch and then writes it. Any invalid edit
// rejects the batch with no mutation.
func (e *Editor) Apply(edits []Edit) error {
	if len(edits) == 0 {
		return ErrNoEdits
	}
	primary, secondary, err := e.load()
	if err != nil {
		return err
	}
	shaped := CanonicalTable(ShapeTable(secondary))
	space := models.RowSpace{Primary: primary.Len(), Secondary: shaped.Len()}

	if err := ValidateEdits(edits, space); err != nil {
		return err
	}

	for _, ed := range edits {
		table, local, _ := space.Resolve(ed.Row)
		target := primary
		if table == 1 {
			target = shaped
		}
		target.Set(local, ed.Field, stringValue(ed.Value))
	}

	var savePrimary, saveSecondary *models.Table
	if primary.Len() > 0 {
		savePrimary = primary
	}
	if secondary != nil {
		saveSecondary = shaped
	}
	if err := e.tables.SaveTables(savePrimary, saveSecondary); err != nil {
		return fmt.Errorf("save tables: %w", err)
	}
	e.logger.Info("[editor] Applied %d edits", len(edits))
	return nil
}

// ValidateEdits checks every edit against the field allowlist and space.
func ValidateEdits(edits []Edit, space models.RowSpace) error {
	for i, ed := range edits {
		if !isEditable(ed.Field) {
			return &EditError{Index: i, Reason: fmt.Sprintf("field %q not editable", ed.Field)}
		}
		if _, _, ok := space.Resolve(ed.Row); !ok {
			return &EditError{Index: i, Reason: fmt.Sprintf("row %d out of range", ed.Row)}
		}
		switch ed.Value.(type) {
		case nil, string, float64, int, int64, bool:
		default:
			return &EditError{Index: i, Reason: fmt.Sprintf("unsupported value type %T", ed.Value)}
		}
	}
	return nil
}

func (e *Editor) load() (*models.Table, *models.Table, error) {
	primary, err := e.tables.LoadPrimary()
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("load primary table: %w", err)
	}
	secondary, err := e.tables.LoadSecondary()
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("load secondary table: %w", err)
	}
	return primary, secondary, nil
}

func isEditable(field string) bool {
	for _, f := range EditableFields {
		if f == field {
			return true
		}
	}
	return false
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
