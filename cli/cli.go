// Package cli wires configuration, stores, scrapers and services into the
// regatta-resume commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"regatta-resume/config"
	"regatta-resume/scraper/browser"
	"regatta-resume/scraper/techscore"
	"regatta-resume/services"
	"regatta-resume/storage"
	"regatta-resume/utils"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

const retryBaseDelay = 2 * time.Second

var flagVerbose bool

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regatta-resume",
		Short: "Build a sailor's regatta resume from published results",
		Long: `A CLI tool that collects regatta results for a sailor.
Listings come from the Clubspot API, results pages are rendered in headless
Chrome, and sailor participation is read from the Techscore sites.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		newRunCmd(),
		newSitesCmd(),
		newInspectCmd(),
		newViewCmd(),
		newEditCmd(),
		newStatsCmd(),
		newCancelCmd(),
		newStatusCmd(),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

// app carries what every command needs after configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	level := utils.ParseLevel(cfg.LogLevel)
	if flagVerbose {
		level = utils.LevelDebug
	}
	return &app{cfg: cfg, logger: utils.NewLoggerAt(level)}, nil
}

func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	if a.cfg.Store == "memory" {
		a.logger.Warn("[store] Using the in-memory store; nothing outlives this process")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewPostgresStore(ctx, a.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	return store, nil
}

func (a *app) retry() *utils.RetryConfig {
	return &utils.RetryConfig{
		MaxAttempts: a.cfg.MaxRetries,
		BaseDelay:   retryBaseDelay,
		Logger:      a.logger,
	}
}

func (a *app) tables() *storage.FileTables {
	return storage.NewFileTables(a.cfg.ScraperDFPath, a.cfg.ResultsCSV)
}

func (a *app) techscore() *techscore.Client {
	sites := []techscore.Site{
		{Label: "HS", BaseURL: a.cfg.TechscoreHSURL},
		{Label: "College", BaseURL: a.cfg.TechscoreCollegeURL},
	}
	return techscore.NewClient(sites, a.retry(), a.logger)
}

func (a *app) launchBrowser() (*browser.Chrome, error) {
	return browser.Launch(browser.Options{
		ChromeBin:       a.cfg.ChromeBin,
		PageLoadTimeout: a.cfg.PageLoadTimeout,
	}, a.logger)
}

func (a *app) harvester(page browser.Page) *browser.Harvester {
	return browser.NewHarvester(page, a.logger,
		browser.WithPasses(a.cfg.HarvestPasses),
		browser.WithSettle(a.cfg.HarvestSettle),
	)
}

// opener launches one browser per run. The release func quits it.
func (a *app) opener() services.HarvesterOpener {
	return func(ctx context.Context) (services.PageHarvester, func(), error) {
		chrome, err := a.launchBrowser()
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			if err := chrome.Close(); err != nil {
				a.logger.Warn("[browser] Close failed: %v", err)
			}
		}
		return a.harvester(chrome), release, nil
	}
}
