package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"regatta-resume/models"
	"regatta-resume/services"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// RunOutput is the printable summary of one run.
type RunOutput struct {
	RunID       string           `json:"run_id"`
	Status      models.RunStatus `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Stats       models.RunStats  `json:"stats"`
	Error       string           `json:"error,omitempty"`
	Listings    []ListingOutput  `json:"listings,omitempty"`
}

// ListingOutput is one processed listing.
type ListingOutput struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Date    string   `json:"date"`
	Detail  string   `json:"detail,omitempty"`
	Results int      `json:"results"`
	Matched []string `json:"matched,omitempty"`
}

func newRunOutput(run models.Run, listings []services.ListingOutcome) *RunOutput {
	out := &RunOutput{
		RunID:     run.ID,
		Status:    run.Status,
		StartedAt: run.StartedAt,
		Stats:     run.Stats,
		Error:     run.ErrorMessage,
	}
	if !run.CompletedAt.IsZero() {
		completed := run.CompletedAt
		out.CompletedAt = &completed
	}
	for _, l := range listings {
		out.Listings = append(out.Listings, ListingOutput{
			ID:      l.Listing.ID,
			Name:    l.Listing.Name,
			Date:    l.Listing.StartDate(),
			Detail:  l.Detail,
			Results: len(l.Results),
			Matched: l.Matched,
		})
	}
	return out
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeRunText(w io.Writer, out *RunOutput, verbose bool) error {
	fmt.Fprintf(w, "Run %s: %s\n", out.RunID, out.Status)
	fmt.Fprintf(w, "  Regattas scraped : %d\n", out.Stats.RegattasScraped)
	fmt.Fprintf(w, "  Sailors added    : %d\n", out.Stats.SailorsAdded)
	fmt.Fprintf(w, "  Results added    : %d\n", out.Stats.ResultsAdded)
	if out.Error != "" {
		fmt.Fprintf(w, "  Error            : %s\n", out.Error)
	}
	if !verbose || len(out.Listings) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nDATE\tREGATTA\tDETAIL\tRESULTS")
	for _, l := range out.Listings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", l.Date, l.Name, l.Detail, l.Results)
	}
	return tw.Flush()
}

func writeRun(w io.Writer, out *RunOutput, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, out)
	}
	return writeRunText(w, out, flagVerbose)
}

func writeViewText(w io.Writer, rows []models.ViewRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No rows yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tSOURCE\tREGATTA\tDATE\tPLACE\tRESULT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.RowID, r.Source, r.Regatta, r.Date, r.Place, r.Result)
	}
	return tw.Flush()
}
