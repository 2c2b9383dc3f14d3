package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"regatta-resume/metrics"
	"regatta-resume/models"
	"regatta-resume/storage"
	"regatta-resume/utils"
)

// Strategy selects how each listing is processed.
type Strategy string

const (
	// StrategyAPI records listing metadata only; no page is visited.
	StrategyAPI Strategy = "api"
	// StrategyRendered extracts the full roster of every results page.
	StrategyRendered Strategy = "rendered"
	// StrategyNameSearch looks for one sailor on every results page.
	StrategyNameSearch Strategy = "name-search"
)

const defaultPageTimeout = 12 * time.Second

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyAPI, StrategyRendered, StrategyNameSearch:
		return st, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want api, rendered or name-search)", s)
}

func (s Strategy) needsBrowser() bool { return s != StrategyAPI }

// ListingSource supplies the listings of one run.
type ListingSource interface {
	Fetch(ctx context.Context, filter models.ListingFilter) ([]models.RegattaListing, error)
}

// PageHarvester reads the rows of one results page.
type PageHarvester interface {
	Harvest(ctx context.Context, url string, timeout time.Duration) (*models.Harvest, error)
}

// HarvesterOpener acquires the browser for one run. The returned release
// func must be called on every exit path.
type HarvesterOpener func(ctx context.Context) (PageHarvester, func(), error)

// RunRequest is one pipeline invocation.
type RunRequest struct {
	Strategy   Strategy
	SailorName string
	Filter     models.ListingFilter
}

// ListingOutcome is what one listing produced.
type ListingOutcome struct {
	Listing models.RegattaListing
	Detail  string
	Matched []string
	Results []models.NormalizedResult
}

// RunReport is the final run record plus every processed listing.
type RunReport struct {
	Run      models.Run
	Listings []ListingOutcome
}

// Pipeline runs fetch, harvest, parse and persist for a batch of listings.
type Pipeline struct {
	listings    ListingSource
	open        HarvesterOpener
	store       storage.Store
	recorder    storage.Recorder
	throttle    *utils.Throttle
	metrics     *metrics.Collector
	cleaner     *Cleaner
	logger      *utils.Logger
	pageTimeout time.Duration
}

// PipelineOption customises a Pipeline.
type PipelineOption func(*Pipeline)

// WithRecorder sets where name-search audit and match rows are written.
func WithRecorder(r storage.Recorder) PipelineOption {
	return func(p *Pipeline) { p.recorder = r }
}

// WithThrottle spaces out page visits.
func WithThrottle(t *utils.Throttle) PipelineOption {
	return func(p *Pipeline) { p.throttle = t }
}

// WithMetrics records run counters on m.
func WithMetrics(m *metrics.Collector) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithPageTimeout bounds the wait for rows on each page.
func WithPageTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.pageTimeout = d
		}
	}
}

// NewPipeline creates a Pipeline. open may be nil when only StrategyAPI is used.
func NewPipeline(listings ListingSource, open HarvesterOpener, store storage.Store, logger *utils.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		listings:    listings,
		open:        open,
		store:       store,
		cleaner:     NewCleaner(logger),
		logger:      logger,
		pageTimeout: defaultPageTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one request. A listing fetch or browser start failure fails
// the run and is returned. A cancellation request seen between listings, or
// ctx ending mid-run, ends the run as cancelled with the partial stats and a
// nil error. Failures of single listings are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunReport, error) {
	if req.Strategy == StrategyNameSearch && strings.TrimSpace(req.SailorName) == "" {
		return nil, fmt.Errorf("name-search needs a sailor name")
	}

	rc, err := StartRun(ctx, p.store, p.logger)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	report := &RunReport{}
	rec := NewReconciler(p.store, p.metrics, p.logger)

	fail := func(cause error) (*RunReport, error) {
		_ = rc.Fail(ctx, rec.Stats(), cause)
		p.metrics.RunFinished(string(models.RunFailed))
		report.Run = rc.Run()
		return report, cause
	}
	cancel := func() (*RunReport, error) {
		_ = rc.Cancel(ctx, rec.Stats())
		p.metrics.RunFinished(string(models.RunCancelled))
		report.Run = rc.Run()
		return report, nil
	}

	listings, err := p.listings.Fetch(ctx, req.Filter)
	if err != nil {
		if ctx.Err() != nil {
			return cancel()
		}
		return fail(err)
	}
	p.logger.Info("[pipeline] %d regattas to process (strategy %s)", len(listings), req.Strategy)

	var harvester PageHarvester
	if req.Strategy.needsBrowser() && len(listings) > 0 {
		if p.open == nil {
			return fail(fmt.Errorf("strategy %s needs a browser", req.Strategy))
		}
		h, release, err := p.open(ctx)
		if err != nil {
			return fail(fmt.Errorf("start browser: %w", err))
		}
		defer release()
		harvester = h
	}

	for i, l := range listings {
		if ctx.Err() != nil {
			p.logger.Warn("[pipeline] Interrupted, stopping after %d/%d regattas", i, len(listings))
			return cancel()
		}
		if rc.CancelRequested(ctx) {
			p.logger.Warn("[pipeline] Cancel requested, stopping after %d/%d regattas", i, len(listings))
			return cancel()
		}
		if err := p.throttle.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Warn("[pipeline] Interrupted, stopping after %d/%d regattas", i, len(listings))
				return cancel()
			}
			return fail(err)
		}

		p.logger.Info("[pipeline] [%d/%d] %s", i+1, len(listings), l.Name)
		outcome, err := p.process(ctx, req, harvester, rec, l)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Warn("[pipeline] Interrupted during %s, stopping after %d/%d regattas", l.Name, i, len(listings))
				return cancel()
			}
			p.logger.Error("[pipeline] Skipping %s (%s): %v", l.Name, l.ID, err)
			p.metrics.UnitFailed()
			continue
		}
		report.Listings = append(report.Listings, outcome)
	}

	if err := rc.Complete(ctx, rec.Stats()); err != nil {
		return nil, err
	}
	p.metrics.RunFinished(string(models.RunCompleted))
	report.Run = rc.Run()
	return report, nil
}

func (p *Pipeline) process(ctx context.Context, req RunRequest, h PageHarvester, rec *Reconciler, l models.RegattaListing) (ListingOutcome, error) {
	outcome := ListingOutcome{Listing: l}
	if req.Strategy == StrategyAPI {
		return outcome, rec.Reconcile(ctx, l, nil)
	}

	hv, err := h.Harvest(ctx, l.ResultsURL, p.pageTimeout)
	if err != nil {
		p.metrics.PageDetail(models.DetailPageLoadError)
		p.audit(l, models.DetailPageLoadError)
		return outcome, err
	}
	p.metrics.RowsHarvested(string(hv.Kind), len(hv.Rows))

	switch req.Strategy {
	case StrategyNameSearch:
		scan := Scan(hv, req.SailorName)
		outcome.Detail = scan.Detail
		outcome.Matched = scan.Matched
		p.audit(l, scan.Detail)
		for _, text := range scan.Matched {
			p.match(l, text)
		}
		if scan.Found {
			outcome.Results = MatchedResults(hv, req.SailorName)
		}
	default:
		outcome.Detail = hv.Detail
		outcome.Results = p.cleaner.Clean(hv)
	}
	p.metrics.PageDetail(outcome.Detail)

	return outcome, rec.Reconcile(ctx, l, outcome.Results)
}

func (p *Pipeline) audit(l models.RegattaListing, status string) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordAudit(l, status); err != nil {
		p.logger.Warn("[pipeline] Audit write failed: %v", err)
	}
}

func (p *Pipeline) match(l models.RegattaListing, text string) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordMatch(l, text); err != nil {
		p.logger.Warn("[pipeline] Match write failed: %v", err)
	}
}
