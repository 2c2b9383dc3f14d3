package services

import (
	"strings"

	"regatta-resume/models"
)

// ScanResult is the outcome of searching one page for a sailor name.
type ScanResult struct {
	Found   bool
	Detail  string
	Matched []string
	All     []string
}

// Scan reports whether target occurs, case-insensitively, in any harvested
// row. A page-text fallback harvest is never searched; its detail code is
// passed through.
func Scan(hv *models.Harvest, target string) ScanResult {
	if hv == nil {
		return ScanResult{Detail: models.DetailNoRows}
	}
	all := hv.Texts()

	switch hv.Detail {
	case models.DetailTimeout, models.DetailFallback, models.DetailNoRows:
		return ScanResult{Detail: hv.Detail, All: all}
	}
	if len(all) == 0 {
		return ScanResult{Detail: models.DetailNoRows}
	}

	needle := strings.ToLower(strings.TrimSpace(target))
	var matched []string
	for _, text := range all {
		if needle != "" && strings.Contains(strings.ToLower(text), needle) {
			matched = append(matched, text)
		}
	}
	if len(matched) == 0 {
		return ScanResult{Detail: models.DetailNameNotFound, All: all}
	}
	return ScanResult{Found: true, Detail: models.DetailMatched, Matched: matched, All: all}
}

// MatchedResults turns matched rows into results for target, reading the
// placement from each row's leading ordinal. Rows without one are dropped.
func MatchedResults(hv *models.Harvest, target string) []models.NormalizedResult {
	if hv == nil || hv.Kind == models.KindPageText {
		return nil
	}
	needle := strings.ToLower(strings.TrimSpace(target))
	if needle == "" {
		return nil
	}

	var out []models.NormalizedResult
	for _, row := range hv.Rows {
		if !strings.Contains(strings.ToLower(row.Text()), needle) {
			continue
		}
		cells := row.Raw.Cells()
		lead := row.Text()
		if len(cells) > 0 {
			lead = cells[0]
		}
		place, ok := ParseOrdinal(lead)
		if !ok {
			continue
		}
		out = append(out, models.NormalizedResult{
			Placement:  &place,
			SailorName: normaliseText(target),
		})
	}
	return out
}
