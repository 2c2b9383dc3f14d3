package services

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"regatta-resume/models"
)

const clipLen = 3

// Column names recognised when shaping a results table.
const (
	ColSource      = "Source"
	ColRegatta     = "Regatta"
	ColRegattaName = "Regatta Name"
	ColDate        = "Date"
	ColStartDate   = "Start Date (UTC)"
	ColPlace       = "Place"
	ColResult      = "Result"
	ColMatchedText = "Matched Row Text"
)

// column resolves one logical field to a per-row accessor.
type column func(row int) string

// resolve tries the canonical name first, then any legacy alternatives, and
// synthesizes an empty column when none exists.
func resolve(t *models.Table, names ...string) column {
	return resolveOr(t, func(int) string { return "" }, names...)
}

func resolveOr(t *models.Table, fallback column, names ...string) column {
	for _, name := range names {
		if _, ok := t.ColumnIndex(name); ok {
			name := name
			return func(row int) string { return t.Value(row, name) }
		}
	}
	return fallback
}

// ShapeTable projects a table with heterogeneous columns onto canonical rows.
// Place and Result come from their own columns when present, otherwise each
// is clipped separately from the matched row text.
func ShapeTable(t *models.Table) []models.CanonicalRow {
	if t == nil {
		return nil
	}
	text := resolve(t, ColMatchedText)
	source := resolve(t, ColSource)
	regatta := resolve(t, ColRegatta, ColRegattaName)
	date := resolve(t, ColDate, ColStartDate)
	place := resolveOr(t, func(i int) string { return ClipPlace(text(i)) }, ColPlace)
	result := resolveOr(t, func(i int) string { return ClipResult(text(i)) }, ColResult)

	out := make([]models.CanonicalRow, len(t.Rows))
	for i := range t.Rows {
		out[i] = models.CanonicalRow{
			Source:  source(i),
			Regatta: regatta(i),
			Date:    ShapeDate(date(i)),
			Place:   place(i),
			Result:  result(i),
		}
	}
	return out
}

// ShapeDate formats a permissively parsed date as YYYY-MM-DD in UTC. Text
// that does not parse is returned unchanged.
func ShapeDate(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	t, err := dateparse.ParseIn(trimmed, time.UTC)
	if err != nil {
		return s
	}
	return t.UTC().Format("2006-01-02")
}

// ClipPlace derives Place from matched row text: its first three characters.
func ClipPlace(text string) string {
	return clip(text)
}

// ClipResult derives Result from matched row text. It reads the same leading
// characters as ClipPlace but is computed on its own.
func ClipResult(text string) string {
	return clip(text)
}

func clip(text string) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) > clipLen {
		r = r[:clipLen]
	}
	return string(r)
}

// CanonicalTable renders canonical rows as a table in CanonicalColumns order.
func CanonicalTable(rows []models.CanonicalRow) *models.Table {
	t := &models.Table{Header: append([]string(nil), models.CanonicalColumns...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Source, r.Regatta, r.Date, r.Place, r.Result})
	}
	return t
}

// BuildView concatenates the primary and secondary tables into one canonical
// view with global RowIDs.
func BuildView(primary, secondary *models.Table) ([]models.ViewRow, models.RowSpace) {
	first := ShapeTable(primary)
	second := ShapeTable(secondary)
	space := models.RowSpace{Primary: len(first), Secondary: len(second)}

	view := make([]models.ViewRow, 0, space.Len())
	for i, r := range first {
		view = append(view, models.ViewRow{RowID: space.GlobalID(0, i), CanonicalRow: r})
	}
	for j, r := range second {
		view = append(view, models.ViewRow{RowID: space.GlobalID(1, j), CanonicalRow: r})
	}
	return view, space
}
