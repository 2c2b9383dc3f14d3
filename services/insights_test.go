package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"regatta-resume/models"
	"regatta-resume/storage"
	"regatta-resume/utils"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func sampleRecords() []models.ResultRecord {
	return []models.ResultRecord{
		{RegattaName: "Fall Champs", StartDate: day("2024-10-12"), Placement: 2, Role: RoleSkipper},
		{RegattaName: "Summer Series", StartDate: day("2024-07-01"), Placement: 12, Role: RoleCrew},
		{RegattaName: "Spring Open", StartDate: day("2024-04-02"), Placement: 1, Role: RoleSkipper},
		{RegattaName: "Spring Open", StartDate: day("2024-04-02"), Placement: 5},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(storage.NewMemoryStore(), utils.NewDiscardLogger())
	r := svc.Generate(sampleRecords())
	if r.TotalRegattas != 3 {
		t.Errorf("TotalRegattas: got %d, want 3", r.TotalRegattas)
	}
	if r.BestFinish != 1 {
		t.Errorf("BestFinish: got %d, want 1", r.BestFinish)
	}
	if r.Top3Count != 2 || r.Top10Count != 3 {
		t.Errorf("Top3/Top10: got %d/%d, want 2/3", r.Top3Count, r.Top10Count)
	}
	if r.SkipperCount != 2 || r.CrewCount != 1 {
		t.Errorf("Skipper/Crew: got %d/%d, want 2/1", r.SkipperCount, r.CrewCount)
	}
	if r.AveragePlacement != 5 {
		t.Errorf("AveragePlacement: got %.1f, want 5", r.AveragePlacement)
	}
	if !r.FirstRegatta.Equal(day("2024-04-02")) || !r.LastRegatta.Equal(day("2024-10-12")) {
		t.Errorf("date range: %v → %v", r.FirstRegatta, r.LastRegatta)
	}
	if len(r.RecentPodiums) != 2 || r.RecentPodiums[0].RegattaName != "Fall Champs" {
		t.Errorf("RecentPodiums: %+v", r.RecentPodiums)
	}
}

func TestConsistency(t *testing.T) {
	if Consistency([]float64{4}) != nil {
		t.Error("Consistency of one placement should be nil")
	}
	got := Consistency([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if got == nil || *got != 2 {
		t.Errorf("Consistency = %v; want 2", got)
	}
}

func TestFormatPlacement(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{1, "1st"}, {2, "2nd"}, {3, "3rd"}, {4, "4th"},
		{11, "11th"}, {12, "12th"}, {13, "13th"},
		{21, "21st"}, {22, "22nd"}, {101, "101st"}, {0, "N/A"},
	}
	for _, tt := range tests {
		if got := FormatPlacement(tt.in); got != tt.want {
			t.Errorf("FormatPlacement(%d) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestInsightForSailor(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s, _, _ := store.GetOrCreateSailor(ctx, "Jane Doe")
	reg, _, _ := store.GetOrCreateRegatta(ctx, models.Regatta{ExternalID: "r1", Name: "Fall Champs", StartDate: day("2024-10-12")})
	_, _ = store.InsertResult(ctx, models.Result{SailorID: s.ID, RegattaID: reg.ID, Placement: 3})

	svc := NewInsightService(store, utils.NewDiscardLogger())
	stats, err := svc.ForSailor(ctx, "  JANE doe ")
	if err != nil {
		t.Fatalf("ForSailor: %v", err)
	}
	if stats.SailorName != "Jane Doe" || stats.TotalRegattas != 1 || stats.BestFinish != 3 {
		t.Errorf("stats = %+v", stats)
	}

	var buf bytes.Buffer
	svc.Print(&buf, stats)
	if !strings.Contains(buf.String(), "3rd") || !strings.Contains(buf.String(), "Fall Champs") {
		t.Errorf("Print output missing podium:\n%s", buf.String())
	}

	if _, err := svc.ForSailor(ctx, "Nobody"); err == nil {
		t.Error("expected error for unknown sailor")
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(storage.NewMemoryStore(), utils.NewDiscardLogger())
	r := svc.Generate(nil)
	if r.TotalRegattas != 0 || r.Consistency != nil {
		t.Errorf("expected empty stats for empty input")
	}
}
