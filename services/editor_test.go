package services

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"regatta-resume/models"
	"regatta-resume/storage"
)

// memTables is an in-memory TableStore that counts saves.
type memTables struct {
	primary, secondary        *models.Table
	primarySaves, secondSaves int
	failSave                  error
}

func clone(t *models.Table) *models.Table {
	if t == nil {
		return nil
	}
	out := &models.Table{Header: append([]string(nil), t.Header...)}
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, append([]string(nil), r...))
	}
	return out
}

func (m *memTables) LoadPrimary() (*models.Table, error) {
	if m.primary == nil {
		return nil, storage.ErrNotFound
	}
	return clone(m.primary), nil
}

func (m *memTables) SavePrimary(t *models.Table) error {
	if m.failSave != nil {
		return m.failSave
	}
	m.primarySaves++
	m.primary = clone(t)
	return nil
}

func (m *memTables) LoadSecondary() (*models.Table, error) {
	if m.secondary == nil {
		return nil, storage.ErrNotFound
	}
	return clone(m.secondary), nil
}

func (m *memTables) SaveTables(primary, secondary *models.Table) error {
	if m.failSave != nil {
		return m.failSave
	}
	if primary != nil {
		m.primarySaves++
		m.primary = clone(primary)
	}
	if secondary != nil {
		m.secondSaves++
		m.secondary = clone(secondary)
	}
	return nil
}

func newTables() *memTables {
	return &memTables{
		primary: &models.Table{
			Header: models.ParticipationColumns,
			Rows: [][]string{
				{"Fall Champs", "3/18", "Oct 12, 2024", "HS", "3", "18"},
				{"Spring Open", "DNF", "Apr 2, 2024", "College", "", ""},
			},
		},
		secondary: &models.Table{
			Header: []string{"Regatta Name", "Club", "Start Date (UTC)", "Matched Row Text"},
			Rows:   [][]string{{"Club Race", "SYC", "2024-05-05T00:00:00Z", "7 | Jane Doe"}},
		},
	}
}

func TestEditorApply(t *testing.T) {
	Convey("Given two editable tables", t, func() {
		tables := newTables()
		editor := NewEditor(tables, newTestLogger())

		Convey("A valid batch writes both tables", func() {
			err := editor.Apply([]Edit{
				{Row: 0, Field: "Place", Value: "2"},
				{Row: 1, Field: "Source", Value: nil},
				{Row: 2, Field: "Result", Value: float64(5)},
			})
			So(err, ShouldBeNil)
			So(tables.primarySaves, ShouldEqual, 1)
			So(tables.secondSaves, ShouldEqual, 1)
			So(tables.primary.Value(0, "Place"), ShouldEqual, "2")
			So(tables.primary.Value(1, "Source"), ShouldEqual, "")
			So(tables.secondary.Header, ShouldResemble, models.CanonicalColumns)
			So(tables.secondary.Value(0, "Result"), ShouldEqual, "5")
			So(tables.secondary.Value(0, "Place"), ShouldEqual, "7 |")
			So(tables.secondary.Value(0, "Date"), ShouldEqual, "2024-05-05")
		})

		Convey("The view numbers rows the same way edits address them", func() {
			So(editor.Apply([]Edit{{Row: 2, Field: "Regatta", Value: "Club Race II"}}), ShouldBeNil)
			view, err := editor.View()
			So(err, ShouldBeNil)
			So(view, ShouldHaveLength, 3)
			So(view[2].RowID, ShouldEqual, 2)
			So(view[2].Regatta, ShouldEqual, "Club Race II")
		})

		Convey("One bad edit among nine valid ones rejects the whole batch", func() {
			before := clone(tables.primary)
			var edits []Edit
			for i := 0; i < 9; i++ {
				edits = append(edits, Edit{Row: i % 3, Field: "Regatta", Value: "changed"})
			}
			edits = append(edits[:4], append([]Edit{{Row: 0, Field: "Total", Value: "1"}}, edits[4:]...)...)

			err := editor.Apply(edits)
			var editErr *EditError
			So(errors.As(err, &editErr), ShouldBeTrue)
			So(editErr.Index, ShouldEqual, 4)
			So(editErr.Reason, ShouldContainSubstring, "not editable")
			So(tables.primarySaves+tables.secondSaves, ShouldEqual, 0)
			So(tables.primary, ShouldResemble, before)
		})

		Convey("A row outside both tables is rejected", func() {
			err := editor.Apply([]Edit{{Row: 0, Field: "Place", Value: "1"}, {Row: 3, Field: "Place", Value: "1"}})
			var editErr *EditError
			So(errors.As(err, &editErr), ShouldBeTrue)
			So(editErr.Index, ShouldEqual, 1)
			So(editErr.Reason, ShouldEqual, "row 3 out of range")

			err = editor.Apply([]Edit{{Row: -1, Field: "Place", Value: "1"}})
			So(errors.As(err, &editErr), ShouldBeTrue)
			So(editErr.Index, ShouldEqual, 0)
		})

		Convey("An empty batch is rejected", func() {
			So(editor.Apply(nil), ShouldEqual, ErrNoEdits)
		})

		Convey("A save failure is returned and neither table changes", func() {
			before := clone(tables.primary)
			tables.failSave = errors.New("disk full")
			err := editor.Apply([]Edit{{Row: 0, Field: "Place", Value: "1"}, {Row: 2, Field: "Place", Value: "1"}})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "disk full")
			So(tables.primarySaves+tables.secondSaves, ShouldEqual, 0)
			So(tables.primary, ShouldResemble, before)
		})
	})

	Convey("Given only the secondary table", t, func() {
		tables := newTables()
		tables.primary = nil
		editor := NewEditor(tables, newTestLogger())

		Convey("Row 0 addresses the secondary table", func() {
			So(editor.Apply([]Edit{{Row: 0, Field: "Source", Value: "Club"}}), ShouldBeNil)
			So(tables.primarySaves, ShouldEqual, 0)
			So(tables.secondary.Value(0, "Source"), ShouldEqual, "Club")
		})
	})
}

func TestValidateEditsRowSpace(t *testing.T) {
	space := models.RowSpace{Primary: 2, Secondary: 3}
	for row := 0; row < 5; row++ {
		if err := ValidateEdits([]Edit{{Row: row, Field: "Date"}}, space); err != nil {
			t.Errorf("row %d: unexpected error %v", row, err)
		}
	}
	if err := ValidateEdits([]Edit{{Row: 5, Field: "Date"}}, space); err == nil {
		t.Error("row 5 should be out of range")
	}
}
