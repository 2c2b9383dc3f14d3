package services

import (
	"testing"

	"regatta-resume/models"
)

func TestScanMatchesCaseInsensitively(t *testing.T) {
	hv := gridHarvest(nil,
		[]string{"1", "Jane DOE", "4"},
		[]string{"2", "John Roe", "9"},
		[]string{"3rd", "jane doe / crew", "12"},
	)
	got := Scan(hv, "  Jane Doe ")
	if !got.Found || got.Detail != models.DetailMatched {
		t.Fatalf("Scan = %+v", got)
	}
	if len(got.Matched) != 2 || len(got.All) != 3 {
		t.Errorf("matched %d of %d rows; want 2 of 3", len(got.Matched), len(got.All))
	}

	results := MatchedResults(hv, "Jane Doe")
	if len(results) != 2 || *results[0].Placement != 1 || *results[1].Placement != 3 {
		t.Errorf("MatchedResults = %+v", results)
	}
	if results[0].SailorName != "Jane Doe" {
		t.Errorf("SailorName = %q", results[0].SailorName)
	}
}

func TestScanDetailCodes(t *testing.T) {
	tests := []struct {
		name string
		hv   *models.Harvest
		want string
	}{
		{"timeout", &models.Harvest{Detail: models.DetailTimeout}, models.DetailTimeout},
		{"no rows", &models.Harvest{Detail: models.DetailNoRows}, models.DetailNoRows},
		{"fallback", &models.Harvest{
			Kind:   models.KindPageText,
			Rows:   []models.HarvestedRow{{Position: 1, Raw: models.Delimited("Jane Doe won"), Kind: models.KindPageText}},
			Detail: models.DetailFallback,
		}, models.DetailFallback},
		{"not found", gridHarvest(nil, []string{"1", "John Roe"}), models.DetailNameNotFound},
		{"nil", nil, models.DetailNoRows},
	}
	for _, tt := range tests {
		got := Scan(tt.hv, "Jane Doe")
		if got.Found || got.Detail != tt.want {
			t.Errorf("%s: Scan = %+v; want detail %q", tt.name, got, tt.want)
		}
	}
}

func TestMatchedResultsNeedOrdinal(t *testing.T) {
	hv := gridHarvest(nil, []string{"DNF", "Jane Doe"})
	if got := MatchedResults(hv, "Jane Doe"); len(got) != 0 {
		t.Errorf("expected no results without a placement, got %+v", got)
	}
}
