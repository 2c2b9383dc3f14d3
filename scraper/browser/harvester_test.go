package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"regatta-resume/models"
	"regatta-resume/utils"
)

// fakePage records navigation and answers the page-text fallback script.
type fakePage struct {
	navigated string
	navErr    error
	pageText  string
	scrolls   int
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = url
	return p.navErr
}

func (p *fakePage) Evaluate(_ context.Context, script string, out any) error {
	switch script {
	case scrollScript:
		p.scrolls++
	case pageTextScript:
		if s, ok := out.(*string); ok {
			*s = p.pageText
		}
	}
	return nil
}

// scriptedAdapter detects after detectAfter probes and serves one row batch per pass.
type scriptedAdapter struct {
	kind        models.TableKind
	detectAfter int
	probes      int
	passes      [][][]string
	pass        int
	header      []string
}

func (a *scriptedAdapter) Kind() models.TableKind { return a.kind }

func (a *scriptedAdapter) Detect(context.Context, Page) (bool, error) {
	a.probes++
	if a.detectAfter < 0 {
		return false, nil
	}
	return a.probes > a.detectAfter, nil
}

func (a *scriptedAdapter) ExtractRows(context.Context, Page) ([][]string, error) {
	if a.pass >= len(a.passes) {
		return a.passes[len(a.passes)-1], nil
	}
	rows := a.passes[a.pass]
	a.pass++
	return rows, nil
}

func (a *scriptedAdapter) ExtractHeader(context.Context, Page) ([]string, error) {
	return a.header, nil
}

func newTestHarvester(page Page, adapters ...TableAdapter) *Harvester {
	return NewHarvester(page, utils.NewDiscardLogger(),
		WithAdapters(adapters...),
		WithSettle(0),
		WithPollInterval(time.Millisecond),
	)
}

func TestHarvestAccumulatesDistinctRows(t *testing.T) {
	adapter := &scriptedAdapter{
		kind: models.KindClassicTable,
		passes: [][][]string{
			{{"1", "Jane Doe", "4"}, {"2", "John Roe", "9"}},
			{{"2", "John Roe", "9"}, {"3", "Ann Poe", "12"}},
			{{"3", "Ann Poe", "12"}},
		},
		header: []string{"Place", "Sailors", "Net"},
	}
	page := &fakePage{}
	h := newTestHarvester(page, adapter)

	hv, err := h.Harvest(context.Background(), "https://example.com/r", time.Second)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if page.navigated != "https://example.com/r" {
		t.Errorf("navigated to %q", page.navigated)
	}
	if hv.Detail != models.DetailRowsHarvested {
		t.Errorf("Detail = %q", hv.Detail)
	}
	want := []string{"1 | Jane Doe | 4", "2 | John Roe | 9", "3 | Ann Poe | 12"}
	got := hv.Texts()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("rows = %v; want %v", got, want)
	}
	for i, r := range hv.Rows {
		if r.Position != i+1 {
			t.Errorf("row %d position = %d", i, r.Position)
		}
	}
	if len(hv.Header) != 3 || hv.Header[1] != "Sailors" {
		t.Errorf("header = %v", hv.Header)
	}
}

func TestHarvestStopsAfterTwoIdlePasses(t *testing.T) {
	adapter := &scriptedAdapter{
		kind:   models.KindAriaGrid,
		passes: [][][]string{{{"1", "Jane Doe"}}},
	}
	page := &fakePage{}
	h := newTestHarvester(page, adapter)

	if _, err := h.Harvest(context.Background(), "u", time.Second); err != nil {
		t.Fatal(err)
	}
	// pass 1 adds, passes 2 and 3 add nothing -> stop before scrolling on pass 3
	if adapter.pass != 1 || page.scrolls != 2 {
		t.Errorf("scrolls = %d; want 2", page.scrolls)
	}
}

func TestHarvestDuplicateTextAcrossPassesKeptOnce(t *testing.T) {
	adapter := &scriptedAdapter{
		kind: models.KindAgGrid,
		passes: [][][]string{
			{{"1", "Jane Doe"}},
			{{"1", "Jane Doe"}, {"1", "Jane Doe"}},
		},
	}
	hv, err := newTestHarvester(&fakePage{}, adapter).Harvest(context.Background(), "u", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(hv.Rows) != 1 {
		t.Errorf("got %d rows, want 1", len(hv.Rows))
	}
}

func TestHarvestFirstDetectingAdapterWins(t *testing.T) {
	never := &scriptedAdapter{kind: models.KindClassicTable, detectAfter: -1}
	grid := &scriptedAdapter{kind: models.KindDataGrid, passes: [][][]string{{{"1", "Jane"}}}}
	aria := &scriptedAdapter{kind: models.KindAriaGrid, passes: [][][]string{{{"9", "Other"}}}}

	hv, err := newTestHarvester(&fakePage{}, never, grid, aria).Harvest(context.Background(), "u", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if hv.Kind != models.KindDataGrid {
		t.Errorf("Kind = %q; want data-grid", hv.Kind)
	}
	if aria.pass != 0 {
		t.Error("lower-priority adapter should not be read")
	}
}

func TestHarvestTimeout(t *testing.T) {
	never := &scriptedAdapter{kind: models.KindClassicTable, detectAfter: -1}
	hv, err := newTestHarvester(&fakePage{}, never).Harvest(context.Background(), "u", 5*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if hv.Detail != models.DetailTimeout {
		t.Errorf("Detail = %q; want %q", hv.Detail, models.DetailTimeout)
	}
	if len(hv.Rows) != 0 {
		t.Errorf("expected no rows on timeout")
	}
}

func TestHarvestWaitsForLateRows(t *testing.T) {
	late := &scriptedAdapter{kind: models.KindVirtualized, detectAfter: 3, passes: [][][]string{{{"1", "Jane"}}}}
	hv, err := newTestHarvester(&fakePage{}, late).Harvest(context.Background(), "u", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(hv.Rows) != 1 {
		t.Errorf("got %d rows, want 1", len(hv.Rows))
	}
}

func TestHarvestFallsBackToPageText(t *testing.T) {
	empty := &scriptedAdapter{kind: models.KindClassicTable, passes: [][][]string{{{"", " "}}}}
	page := &fakePage{pageText: "  Results will be posted soon  "}

	hv, err := newTestHarvester(page, empty).Harvest(context.Background(), "u", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if hv.Detail != models.DetailFallback {
		t.Fatalf("Detail = %q; want %q", hv.Detail, models.DetailFallback)
	}
	if len(hv.Rows) != 1 || hv.Rows[0].Text() != "Results will be posted soon" {
		t.Errorf("fallback rows = %v", hv.Texts())
	}

	page.pageText = ""
	empty.pass = 0
	hv, _ = newTestHarvester(page, empty).Harvest(context.Background(), "u", time.Second)
	if hv.Detail != models.DetailNoRows {
		t.Errorf("Detail = %q; want %q", hv.Detail, models.DetailNoRows)
	}
}

func TestHarvestNavigationError(t *testing.T) {
	page := &fakePage{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	if _, err := newTestHarvester(page).Harvest(context.Background(), "u", time.Second); err == nil {
		t.Error("expected navigation error")
	}
}

func TestInspectSamplesRows(t *testing.T) {
	var passes [][]string
	for i := 1; i <= 8; i++ {
		passes = append(passes, []string{string(rune('0' + i)), "Sailor", "", "10"})
	}
	adapter := &scriptedAdapter{
		kind:   models.KindClassicTable,
		passes: [][][]string{passes},
		header: []string{"Pl", "Sailor", "Boat", "Net"},
	}
	report, err := newTestHarvester(&fakePage{}, adapter).Inspect(context.Background(), "abc", "u", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalRows != 8 || len(report.SampleRows) != sampleRowCount {
		t.Errorf("TotalRows=%d samples=%d", report.TotalRows, len(report.SampleRows))
	}
	if report.ColumnCounts[0] != 4 {
		t.Errorf("ColumnCounts[0] = %d; want 4 (empty cells kept)", report.ColumnCounts[0])
	}
	if report.HeaderCount != 4 || report.TableType != models.KindClassicTable {
		t.Errorf("report = %+v", report)
	}
}

func TestQuoteEscapesSelectors(t *testing.T) {
	if got := quote("[role='row']"); got != `"[role='row']"` {
		t.Errorf("quote = %s", got)
	}
}
