package models

import "strings"

// CellDelimiter joins cell values into the flat text of a harvested row.
const CellDelimiter = " | "

// TableKind tags the page structure a row was harvested from.
type TableKind string

const (
	KindClassicTable TableKind = "classic-table"
	KindAriaGrid     TableKind = "aria-grid"
	KindAgGrid       TableKind = "ag-grid"
	KindVirtualized  TableKind = "virtualized-table"
	KindDataGrid     TableKind = "data-grid"
	KindPageText     TableKind = "page-text"
)

// RawRow is either Delimited flat text or an ordered list of Cells.
type RawRow interface {
	Text() string
	Cells() []string
}

// Delimited is a row known only by its joined text.
type Delimited string

// Text returns the row text unchanged.
func (d Delimited) Text() string { return string(d) }

// Cells splits the text on CellDelimiter.
func (d Delimited) Cells() []string {
	if d == "" {
		return nil
	}
	parts := strings.Split(string(d), CellDelimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Cells is a row with positional cell values. Empty cells are kept so that
// column indices stay aligned with the header.
type Cells []string

// Text joins the non-empty cells with CellDelimiter.
func (c Cells) Text() string {
	parts := make([]string, 0, len(c))
	for _, v := range c {
		v = strings.TrimSpace(v)
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, CellDelimiter)
}

// Cells returns a copy of the cell values.
func (c Cells) Cells() []string {
	out := make([]string, len(c))
	copy(out, c)
	return out
}

// HarvestedRow is one distinct data row seen on a rendered results page.
type HarvestedRow struct {
	Position int
	Raw      RawRow
	Kind     TableKind
}

// Text returns the flat delimited text that keys the row.
func (r HarvestedRow) Text() string {
	if r.Raw == nil {
		return ""
	}
	return r.Raw.Text()
}

// Field names used in a ColumnMap.
const (
	FieldName       = "name"
	FieldPoints     = "points"
	FieldSailNumber = "sail_number"
	FieldBoat       = "boat"
	FieldDivision   = "division"
)

// ColumnMap maps semantic fields to column positions for one page.
// Absent fields are simply not present.
type ColumnMap map[string]int

// Index returns the mapped column for field.
func (m ColumnMap) Index(field string) (int, bool) {
	i, ok := m[field]
	return i, ok
}

// Detail codes reported for one results page.
const (
	DetailRowsHarvested = "rows_harvested"
	DetailMatched       = "matched_in_rows"
	DetailTimeout       = "timeout_waiting_for_rows"
	DetailNameNotFound  = "name_not_found_in_rows"
	DetailFallback      = "no_structured_rows_fallback"
	DetailNoRows        = "no_rows_found"
	DetailPageLoadError = "page_load_error"
)

// Harvest is everything read from one rendered results page.
type Harvest struct {
	URL    string
	Kind   TableKind
	Header []string
	Rows   []HarvestedRow
	Detail string
}

// Texts returns the flat text of every harvested row in order.
func (h *Harvest) Texts() []string {
	out := make([]string, len(h.Rows))
	for i, r := range h.Rows {
		out[i] = r.Text()
	}
	return out
}

// InspectionReport describes a results page for diagnosing column mapping.
type InspectionReport struct {
	ListingID    string     `json:"listing_id"`
	URL          string     `json:"url"`
	TableType    TableKind  `json:"table_type"`
	Detail       string     `json:"detail"`
	Headers      []string   `json:"headers"`
	HeaderCount  int        `json:"header_count"`
	SampleRows   [][]string `json:"sample_rows"`
	ColumnCounts []int      `json:"column_counts"`
	TotalRows    int        `json:"total_rows"`
	ColumnMap    ColumnMap  `json:"column_map"`
}
