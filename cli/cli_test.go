package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"regatta-resume/models"
	"regatta-resume/services"
	"regatta-resume/storage"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	want := []string{"run", "sites", "inspect", "view", "edit", "stats", "cancel", "status"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v; want the %s command", name, cmd, err, name)
		}
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"run", "--strategy", "bogus"}, "unknown strategy"},
		{[]string{"run", "--name", "J"}, "at least 2"},
		{[]string{"run"}, "cannot be empty"},
		{[]string{"run", "--name", "Jane Doe", "--start-date", "2024-05-01", "--end-date", "2024-01-01"}, "before or equal"},
		{[]string{"run", "--name", "Jane Doe", "--max", "5000"}, "cannot exceed"},
		{[]string{"run", "--strategy", "api", "--format", "xml"}, "invalid format"},
	}
	for _, tt := range tests {
		root := NewRootCmd()
		root.SetArgs(tt.args)
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		err := root.Execute()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Execute(%v) = %v; want error containing %q", tt.args, err, tt.want)
		}
	}
}

func TestInspectedColumns(t *testing.T) {
	withHeader := &models.InspectionReport{
		Headers:    []string{"Place", "Sailor", "Net"},
		SampleRows: [][]string{{"1", "Jane Doe", "4"}},
	}
	cols := inspectedColumns(withHeader)
	if i, _ := cols.Index(models.FieldName); i != 1 {
		t.Errorf("name column = %d; want 1", i)
	}
	if i, _ := cols.Index(models.FieldPoints); i != 2 {
		t.Errorf("points column = %d; want 2", i)
	}

	headless := &models.InspectionReport{
		SampleRows: [][]string{{"1", "Jane Doe", "J/70", "12"}},
	}
	cols = inspectedColumns(headless)
	if i, _ := cols.Index(models.FieldName); i != 1 {
		t.Errorf("positional name column = %d; want 1", i)
	}
	if i, _ := cols.Index(models.FieldPoints); i != 3 {
		t.Errorf("positional points column = %d; want 3", i)
	}
}

func TestReadEditsFromStdin(t *testing.T) {
	in := strings.NewReader(`{"edits":[{"row":0,"field":"Place","value":"2"},{"row":3,"field":"Result","value":7}]}`)
	payload, err := readEdits(in, "-")
	if err != nil {
		t.Fatalf("readEdits: %v", err)
	}
	want := []services.Edit{
		{Row: 0, Field: "Place", Value: "2"},
		{Row: 3, Field: "Result", Value: float64(7)},
	}
	if len(payload.Edits) != len(want) {
		t.Fatalf("got %d edits; want %d", len(payload.Edits), len(want))
	}
	for i, e := range want {
		if payload.Edits[i] != e {
			t.Errorf("edit[%d] = %+v; want %+v", i, payload.Edits[i], e)
		}
	}

	if _, err := readEdits(strings.NewReader("not json"), "-"); err == nil {
		t.Error("expected decode error")
	}
	if _, err := readEdits(nil, "/does/not/exist.json"); err == nil {
		t.Error("expected open error")
	}
}

func TestRunOutput(t *testing.T) {
	start := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)
	run := models.Run{
		ID:     "r1",
		Status: models.RunCancelled,
		Stats:  models.RunStats{RegattasScraped: 2, SailorsAdded: 1, ResultsAdded: 3},
	}
	listings := []services.ListingOutcome{{
		Listing: models.RegattaListing{ID: "a1", Name: "Spring Open", Start: start},
		Detail:  models.DetailMatched,
		Matched: []string{"1 | Jane Doe | 4"},
		Results: make([]models.NormalizedResult, 1),
	}}

	out := newRunOutput(run, listings)
	if out.CompletedAt != nil {
		t.Errorf("CompletedAt = %v; want nil for an unfinished run", out.CompletedAt)
	}
	if len(out.Listings) != 1 || out.Listings[0].Date != "2024-06-01" || out.Listings[0].Results != 1 {
		t.Errorf("Listings = %+v", out.Listings)
	}

	var buf bytes.Buffer
	if err := writeRunText(&buf, out, true); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Run r1: cancelled", "Results added    : 3", "Spring Open"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestTargetRun(t *testing.T) {
	ctx := context.Background()
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	store := storage.NewMemoryStore()

	if _, err := targetRun(cmd, store, nil); err == nil {
		t.Error("expected error with no runs")
	}

	first, _ := store.CreateRun(ctx)
	second, _ := store.CreateRun(ctx)

	latest, err := targetRun(cmd, store, nil)
	if err != nil || latest.ID != second.ID {
		t.Errorf("latest = %v, %v; want %s", latest, err, second.ID)
	}
	byID, err := targetRun(cmd, store, []string{first.ID})
	if err != nil || byID.ID != first.ID {
		t.Errorf("by id = %v, %v; want %s", byID, err, first.ID)
	}
}
