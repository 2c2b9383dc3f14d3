package services

import (
	"strings"

	"regatta-resume/models"
)

var (
	nameSynonyms     = []string{"sailor", "name", "skipper", "helm"}
	divisionSynonyms = []string{"division", "fleet"}
	boatSynonyms     = []string{"boat", "team", "class"}
)

// MapColumns maps semantic fields to header positions by case-insensitive
// substring matching. The first matching header wins per field; fields with
// no match are absent from the map.
func MapColumns(header []string) models.ColumnMap {
	m := make(models.ColumnMap)
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for i, h := range norm {
		if containsAny(h, nameSynonyms) {
			m[models.FieldName] = i
			break
		}
	}

	// exact "net" beats anything "total ... point"
	if i, ok := firstIndex(norm, func(h string) bool { return h == "net" || h == "net points" }); ok {
		m[models.FieldPoints] = i
	} else if i, ok := firstIndex(norm, func(h string) bool {
		return strings.Contains(h, "total") && strings.Contains(h, "point")
	}); ok {
		m[models.FieldPoints] = i
	}

	if i, ok := firstIndex(norm, func(h string) bool {
		return strings.Contains(h, "sail") && containsAny(h, []string{"number", "no", "#"})
	}); ok {
		m[models.FieldSailNumber] = i
	}

	// a header already claimed above is never reused
	for _, f := range []struct {
		field    string
		synonyms []string
	}{
		{models.FieldDivision, divisionSynonyms},
		{models.FieldBoat, boatSynonyms},
	} {
		if i, ok := firstIndex(norm, func(h string) bool { return containsAny(h, f.synonyms) }); ok && !claimed(m, i) {
			m[f.field] = i
		}
	}

	return m
}

func claimed(m models.ColumnMap, i int) bool {
	for _, j := range m {
		if j == i {
			return true
		}
	}
	return false
}

// ResolveColumns derives the column map for one harvested page and reports
// how many leading rows were consumed as a header. Without a header, row 0
// stands in for it; if that still yields no name column the map falls back to
// positions (name second, points last when there are at least three cells).
func ResolveColumns(hv *models.Harvest) (models.ColumnMap, int) {
	if hv == nil {
		return models.ColumnMap{}, 0
	}
	if len(hv.Header) > 0 {
		m := MapColumns(hv.Header)
		if _, ok := m.Index(models.FieldName); ok || len(hv.Rows) == 0 {
			return m, 0
		}
		return positional(m, hv.Rows[0].Raw.Cells()), 0
	}
	if len(hv.Rows) == 0 {
		return models.ColumnMap{}, 0
	}

	first := hv.Rows[0].Raw.Cells()
	m := MapColumns(first)
	if _, ok := m.Index(models.FieldName); ok {
		return m, 1
	}
	return positional(models.ColumnMap{}, first), 0
}

func positional(m models.ColumnMap, cells []string) models.ColumnMap {
	if len(cells) >= 2 {
		for field, i := range m {
			if i == 1 {
				delete(m, field)
			}
		}
		m[models.FieldName] = 1
	}
	if _, ok := m.Index(models.FieldPoints); !ok && len(cells) >= 3 {
		m[models.FieldPoints] = len(cells) - 1
	}
	return m
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstIndex(items []string, match func(string) bool) (int, bool) {
	for i, s := range items {
		if match(s) {
			return i, true
		}
	}
	return 0, false
}
