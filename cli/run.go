package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"regatta-resume/metrics"
	"regatta-resume/models"
	"regatta-resume/scraper/clubspot"
	"regatta-resume/services"
	"regatta-resume/storage"
	"regatta-resume/utils"
)

const metricsShutdownTimeout = 5 * time.Second

var (
	flagName      string
	flagStartDate string
	flagEndDate   string
	flagMax       string
	flagContains  string
	flagStrategy  string
	flagTimeout   time.Duration
	flagSkipSites bool
	flagFormat    string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape regatta results into the store",
		Long: `Fetch regatta listings, visit each results page and store the results.

Strategies:
  name-search  look for --name on every results page (default)
  rendered     store the full roster of every results page
  api          store listing metadata only`,
		RunE: runPipeline,
	}

	cmd.Flags().StringVar(&flagName, "name", "", "Sailor name to search for")
	cmd.Flags().StringVar(&flagStartDate, "start-date", "", "Earliest regatta start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flagEndDate, "end-date", "", "Latest regatta start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&flagMax, "max", "", "Maximum regattas to visit (default from config)")
	cmd.Flags().StringVar(&flagContains, "contains", "", "Only regattas whose name contains this text")
	cmd.Flags().StringVar(&flagStrategy, "strategy", string(services.StrategyNameSearch), "Strategy: name-search, rendered or api")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Per-page wait for result rows (default from config)")
	cmd.Flags().BoolVar(&flagSkipSites, "skip-sites", false, "Do not read the Techscore sites first")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")

	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	strategy, err := services.ParseStrategy(flagStrategy)
	if err != nil {
		return err
	}
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(flagName)
	if name != "" || strategy == services.StrategyNameSearch {
		if err := ValidateSailorName(name); err != nil {
			return err
		}
	}
	if err := ValidateDateRange(flagStartDate, flagEndDate); err != nil {
		return err
	}
	if err := ValidateFilter(flagContains); err != nil {
		return err
	}
	maxCount, err := ValidateMaxRegattas(flagMax)
	if err != nil {
		return err
	}
	from, _ := clubspot.ParseBound(flagStartDate)
	to, _ := clubspot.ParseBound(flagEndDate)

	a, err := loadApp()
	if err != nil {
		return err
	}
	if maxCount == 0 {
		maxCount = a.cfg.MaxRegattas
	}
	timeout := flagTimeout
	if timeout <= 0 {
		timeout = a.cfg.ScraperTimeout
	}

	ctx := cmd.Context()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.NewCollector()
	if a.cfg.MetricsAddr != "" {
		stop := serveMetrics(a.cfg.MetricsAddr, m, a.logger)
		defer stop()
	}

	if name != "" && !flagSkipSites {
		if _, err := services.CollectParticipation(ctx, a.techscore(), a.tables(), name, a.logger); err != nil {
			a.logger.Warn("[run] Participation table not saved: %v", err)
		}
	}

	opts := []services.PipelineOption{
		services.WithThrottle(utils.NewThrottle(a.cfg.RateLimitMs)),
		services.WithMetrics(m),
		services.WithPageTimeout(timeout),
	}
	if strategy == services.StrategyNameSearch {
		rec, err := storage.NewCSVRecorder(a.cfg.SearchedCSV, a.cfg.ResultsCSV)
		if err != nil {
			return fmt.Errorf("opening exports: %w", err)
		}
		defer rec.Close()
		opts = append(opts, services.WithRecorder(rec))
	}

	fetcher := clubspot.NewFetcher(a.cfg.ClubspotAPIURL, a.cfg.ClubspotBaseURL, a.cfg.ClubspotAPILimit, a.retry(), a.logger)
	pipeline := services.NewPipeline(fetcher, a.opener(), store, a.logger, opts...)

	a.logger.Info("=== Regatta resume run starting ===")
	a.logger.Info("Strategy: %s | max: %d | page timeout: %v | rate: %dms",
		strategy, maxCount, timeout, a.cfg.RateLimitMs)

	report, runErr := pipeline.Run(ctx, services.RunRequest{
		Strategy:   strategy,
		SailorName: name,
		Filter: models.ListingFilter{
			Contains: strings.TrimSpace(flagContains),
			From:     from,
			To:       to,
			MaxCount: maxCount,
		},
	})
	if report != nil {
		if err := writeRun(cmd.OutOrStdout(), newRunOutput(report.Run, report.Listings), format); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

// serveMetrics exposes m on addr until the returned stop func is called.
func serveMetrics(addr string, m *metrics.Collector, logger *utils.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("[metrics] Serving /metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[metrics] Server failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("[metrics] Shutdown failed: %v", err)
		}
	}
}
