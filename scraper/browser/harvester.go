// Package browser drives a headless browser over rendered results pages and
// harvests their data rows.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"regatta-resume/models"
	"regatta-resume/utils"
)

const (
	defaultPasses       = 16
	defaultSettle       = 250 * time.Millisecond
	defaultPollInterval = 250 * time.Millisecond
	idlePassLimit       = 2
	sampleRowCount      = 5
)

// Harvester extracts distinct data rows from rendered results pages.
type Harvester struct {
	page      Page
	adapters  []TableAdapter
	logger    *utils.Logger
	maxPasses int
	settle    time.Duration
	poll      time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// HarvesterOption customises a Harvester.
type HarvesterOption func(*Harvester)

// WithAdapters replaces the default table adapters.
func WithAdapters(adapters ...TableAdapter) HarvesterOption {
	return func(h *Harvester) { h.adapters = adapters }
}

// WithPasses bounds the number of extract/scroll passes.
func WithPasses(n int) HarvesterOption {
	return func(h *Harvester) {
		if n > 0 {
			h.maxPasses = n
		}
	}
}

// WithSettle sets the pause after each scroll.
func WithSettle(d time.Duration) HarvesterOption {
	return func(h *Harvester) { h.settle = d }
}

// WithPollInterval sets how often the page is probed while waiting for rows.
func WithPollInterval(d time.Duration) HarvesterOption {
	return func(h *Harvester) { h.poll = d }
}

// NewHarvester creates a Harvester over page.
func NewHarvester(page Page, logger *utils.Logger, opts ...HarvesterOption) *Harvester {
	h := &Harvester{
		page:      page,
		adapters:  DefaultAdapters(),
		logger:    logger,
		maxPasses: defaultPasses,
		settle:    defaultSettle,
		poll:      defaultPollInterval,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Harvest loads url and collects its data rows. A page that never shows rows
// within timeout is reported through the Detail code, not as an error.
func (h *Harvester) Harvest(ctx context.Context, url string, timeout time.Duration) (*models.Harvest, error) {
	if err := h.page.Navigate(ctx, url); err != nil {
		return nil, err
	}
	result, err := h.collect(ctx, timeout)
	if err != nil {
		return nil, err
	}
	result.URL = url
	return result, nil
}

func (h *Harvester) collect(ctx context.Context, timeout time.Duration) (*models.Harvest, error) {
	adapter, err := h.waitForRows(ctx, timeout)
	if err != nil {
		return nil, err
	}
	if adapter == nil {
		h.logger.Debug("[harvest] No rows after %v", timeout)
		return &models.Harvest{Detail: models.DetailTimeout}, nil
	}

	set := utils.NewRowSet()
	var rows []models.HarvestedRow
	idle := 0

	for pass := 0; pass < h.maxPasses; pass++ {
		cells, err := adapter.ExtractRows(ctx, h.page)
		if err != nil {
			h.logger.Debug("[harvest] Pass %d extract failed: %v", pass+1, err)
		}

		added := 0
		for _, c := range cells {
			raw := models.Cells(c)
			text := raw.Text()
			if text == "" {
				continue
			}
			if set.Add(text) {
				rows = append(rows, models.HarvestedRow{
					Position: len(rows) + 1,
					Raw:      raw,
					Kind:     adapter.Kind(),
				})
				added++
			}
		}

		if added == 0 {
			idle++
			if idle >= idlePassLimit {
				break
			}
		} else {
			idle = 0
		}

		if err := h.page.Evaluate(ctx, scrollScript, nil); err != nil {
			h.logger.Debug("[harvest] Scroll failed: %v", err)
		}
		if err := h.sleep(ctx, h.settle); err != nil {
			return nil, err
		}
	}

	if len(rows) == 0 {
		return h.fallback(ctx), nil
	}

	header, err := adapter.ExtractHeader(ctx, h.page)
	if err != nil {
		h.logger.Debug("[harvest] Header extract failed: %v", err)
		header = nil
	}

	h.logger.Debug("[harvest] %d distinct rows from %s", len(rows), adapter.Kind())
	return &models.Harvest{
		Kind:   adapter.Kind(),
		Header: header,
		Rows:   rows,
		Detail: models.DetailRowsHarvested,
	}, nil
}

// waitForRows polls the adapters in priority order until one detects data
// rows. It returns nil when timeout elapses first.
func (h *Harvester) waitForRows(ctx context.Context, timeout time.Duration) (TableAdapter, error) {
	deadline := time.Now().Add(timeout)
	for {
		for _, a := range h.adapters {
			ok, err := a.Detect(ctx, h.page)
			if err != nil {
				h.logger.Debug("[harvest] Detect %s: %v", a.Kind(), err)
				continue
			}
			if ok {
				return a, nil
			}
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		if err := h.sleep(ctx, h.poll); err != nil {
			return nil, err
		}
	}
}

// fallback returns the whole page text as a single pseudo-row so callers
// never get a silently empty result.
func (h *Harvester) fallback(ctx context.Context) *models.Harvest {
	var text string
	if err := h.page.Evaluate(ctx, pageTextScript, &text); err != nil {
		h.logger.Debug("[harvest] Page text fallback failed: %v", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return &models.Harvest{Detail: models.DetailNoRows}
	}
	return &models.Harvest{
		Kind: models.KindPageText,
		Rows: []models.HarvestedRow{{
			Position: 1,
			Raw:      models.Delimited(text),
			Kind:     models.KindPageText,
		}},
		Detail: models.DetailFallback,
	}
}

// Inspect harvests url and summarises its structure.
func (h *Harvester) Inspect(ctx context.Context, listingID, url string, timeout time.Duration) (*models.InspectionReport, error) {
	hv, err := h.Harvest(ctx, url, timeout)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", listingID, err)
	}

	report := &models.InspectionReport{
		ListingID:   listingID,
		URL:         url,
		TableType:   hv.Kind,
		Detail:      hv.Detail,
		Headers:     hv.Header,
		HeaderCount: len(hv.Header),
		TotalRows:   len(hv.Rows),
	}
	for i, r := range hv.Rows {
		if i >= sampleRowCount {
			break
		}
		cells := r.Raw.Cells()
		report.SampleRows = append(report.SampleRows, cells)
		report.ColumnCounts = append(report.ColumnCounts, len(cells))
	}
	return report, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
