package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"regatta-resume/models"
	"regatta-resume/services"
	"regatta-resume/storage"
)

func newSitesCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "sites <sailor name>",
		Short: "Read a sailor's Techscore participation into the primary table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if err := ValidateSailorName(name); err != nil {
				return err
			}
			out, err := parseFormat(format)
			if err != nil {
				return err
			}
			a, err := loadApp()
			if err != nil {
				return err
			}

			rows, err := services.CollectParticipation(cmd.Context(), a.techscore(), a.tables(), strings.TrimSpace(name), a.logger)
			if err != nil {
				return err
			}
			canonical := make([]models.CanonicalRow, len(rows))
			for i, r := range rows {
				canonical[i] = r.Canonical()
			}
			if out == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), canonical)
			}
			view := make([]models.ViewRow, len(canonical))
			for i, r := range canonical {
				view[i] = models.ViewRow{RowID: i, CanonicalRow: r}
			}
			return writeViewText(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <listing-id>",
		Short: "Describe the results table of one regatta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			chrome, err := a.launchBrowser()
			if err != nil {
				return fmt.Errorf("starting browser: %w", err)
			}
			defer chrome.Close()

			id := strings.TrimSpace(args[0])
			report, err := a.harvester(chrome).Inspect(cmd.Context(), id, a.cfg.ResultsURL(id), a.cfg.ScraperTimeout)
			if err != nil {
				return err
			}
			report.ColumnMap = inspectedColumns(report)
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}

// inspectedColumns maps the sampled rows the same way the row parser would.
func inspectedColumns(r *models.InspectionReport) models.ColumnMap {
	hv := &models.Harvest{Kind: r.TableType, Header: r.Headers}
	for i, cells := range r.SampleRows {
		hv.Rows = append(hv.Rows, models.HarvestedRow{
			Position: i + 1,
			Raw:      models.Cells(cells),
			Kind:     r.TableType,
		})
	}
	cols, _ := services.ResolveColumns(hv)
	return cols
}

func newViewCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show both editable tables with their row ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := parseFormat(format)
			if err != nil {
				return err
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			rows, err := services.NewEditor(a.tables(), a.logger).View()
			if err != nil {
				return err
			}
			if out == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			return writeViewText(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

// editPayload is the body of an edit file: {"edits": [{"row":0,"field":"Place","value":"2"}]}.
type editPayload struct {
	Edits []services.Edit `json:"edits"`
}

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <edits.json|->",
		Short: "Apply a batch of cell edits to the editable tables",
		Long: `Apply a batch of cell edits addressed by the row ids shown by "view".
The whole batch is rejected if any edit is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readEdits(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			editor := services.NewEditor(a.tables(), a.logger)
			if err := editor.Apply(payload.Edits); err != nil {
				return fmt.Errorf("applying edits: %w", err)
			}
			rows, err := editor.View()
			if err != nil {
				return err
			}
			return writeViewText(cmd.OutOrStdout(), rows)
		},
	}
}

func readEdits(stdin io.Reader, path string) (*editPayload, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening edits: %w", err)
		}
		defer f.Close()
		r = f
	}

	var payload editPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding edits: %w", err)
	}
	return &payload, nil
}

func newStatsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "stats <sailor name>",
		Short: "Summarise a sailor's stored results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if err := ValidateSailorName(name); err != nil {
				return err
			}
			out, err := parseFormat(format)
			if err != nil {
				return err
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			insights := services.NewInsightService(store, a.logger)
			stats, err := insights.ForSailor(cmd.Context(), name)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no stored results for %q", strings.TrimSpace(name))
			}
			if err != nil {
				return err
			}
			if out == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			insights.Print(cmd.OutOrStdout(), stats)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [run-id]",
		Short: "Ask a running scrape to stop after its current regatta",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := targetRun(cmd, store, args)
			if err != nil {
				return err
			}
			if run.Status != models.RunRunning {
				return fmt.Errorf("run %s is %s, nothing to cancel", run.ID, run.Status)
			}
			if err := store.RequestCancel(ctx, run.ID); err != nil {
				return fmt.Errorf("requesting cancel: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancel requested for run %s\n", run.ID)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show a run record (the latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := parseFormat(format)
			if err != nil {
				return err
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := targetRun(cmd, store, args)
			if err != nil {
				return err
			}
			return writeRun(cmd.OutOrStdout(), newRunOutput(*run, nil), out)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

// targetRun returns the run named in args, or the latest run.
func targetRun(cmd *cobra.Command, store storage.RunStore, args []string) (*models.Run, error) {
	var (
		run *models.Run
		err error
	)
	if len(args) == 1 {
		run, err = store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
	} else {
		run, err = store.LatestRun(cmd.Context())
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("no matching run")
	}
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}
	return run, nil
}
