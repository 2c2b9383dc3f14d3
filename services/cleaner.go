package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"regatta-resume/models"
	"regatta-resume/utils"
)

const (
	minNameLen = 2
	minPoints  = 1
	maxPoints  = 1000
)

var (
	// ordinalRegexp captures a placement token like "3", "3rd" or "12th"
	ordinalRegexp = regexp.MustCompile(`(?i)\b(\d{1,4})(?:st|nd|rd|th)?\b`)
	// numericNameRegexp matches names that are really sail numbers
	numericNameRegexp = regexp.MustCompile(`^[0-9]+$`)
)

// Cleaner turns harvested rows into validated NormalizedResults.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses every row of a grid harvest. Placement is the row's harvest
// order; a leading row consumed as the header shifts positions down by one.
func (c *Cleaner) Clean(hv *models.Harvest) []models.NormalizedResult {
	if hv == nil || hv.Kind == models.KindPageText {
		return nil
	}
	cols, skip := ResolveColumns(hv)
	result := make([]models.NormalizedResult, 0, len(hv.Rows))

	for _, row := range hv.Rows[skip:] {
		r := ParseRow(row.Raw, row.Position-skip, cols)
		if r == nil {
			c.logger.Debug("[cleaner] Rejected row %d: %q", row.Position, row.Text())
			continue
		}
		result = append(result, *r)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d rows (dropped %d)",
		len(hv.Rows)-skip, len(result), len(hv.Rows)-skip-len(result))
	return result
}

// ParseRow converts one row into a NormalizedResult, or nil when the row is
// rejected. Placement is position; it is never read from a cell.
func ParseRow(raw models.RawRow, position int, cols models.ColumnMap) *models.NormalizedResult {
	if raw == nil || position < 1 {
		return nil
	}
	cells := raw.Cells()

	nameCell, ok := cell(cells, cols, models.FieldName)
	if !ok || len([]rune(strings.TrimSpace(nameCell))) < minNameLen {
		return nil
	}
	if isNumericName(nameCell) {
		return nil
	}
	name := normaliseText(firstLine(nameCell))
	if len([]rune(name)) < minNameLen {
		return nil
	}

	placement := position
	r := &models.NormalizedResult{
		Placement:  &placement,
		SailorName: name,
	}
	if v, ok := cell(cells, cols, models.FieldPoints); ok {
		r.Points = parsePoints(v)
	}
	if v, ok := cell(cells, cols, models.FieldSailNumber); ok {
		r.SailNumber = strings.TrimSpace(v)
	}
	if v, ok := cell(cells, cols, models.FieldBoat); ok {
		r.Boat = normaliseText(firstLine(v))
	}
	if v, ok := cell(cells, cols, models.FieldDivision); ok {
		r.Division = normaliseText(firstLine(v))
	}
	return r
}

// ParseOrdinal reads the first placement token from text.
func ParseOrdinal(text string) (int, bool) {
	m := ordinalRegexp.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// parsePoints accepts values in [1, 1000]; anything else is omitted.
func parsePoints(raw string) *float64 {
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	if val < minPoints || val > maxPoints {
		return nil
	}
	return &val
}

func cell(cells []string, cols models.ColumnMap, field string) (string, bool) {
	i, ok := cols.Index(field)
	if !ok || i < 0 || i >= len(cells) {
		return "", false
	}
	return cells[i], true
}

func isNumericName(s string) bool {
	stripped := strings.NewReplacer(" ", "", "-", "", "\n", "", "\t", "").Replace(s)
	return numericNameRegexp.MatchString(stripped)
}

// firstLine keeps the skipper when a cell lists skipper and crew.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
