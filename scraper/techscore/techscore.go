// Package techscore scrapes sailor participation pages from the Techscore
// high-school and college results sites.
package techscore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"regatta-resume/models"
	"regatta-resume/utils"
)

const (
	userAgent   = "regatta-resume/1.0"
	minCells    = 5
	httpTimeout = 30 * time.Second
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	placeTotal = regexp.MustCompile(`(\d+)/(\d+)`)
)

// Site is one Techscore deployment.
type Site struct {
	Label   string
	BaseURL string
}

// SailorURL builds the participation page URL for name under base.
func SailorURL(base, name string) string {
	slug := whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + slug + "/"
}

// ExpandResult splits a "place/total" result string. Both values are empty
// when the pattern is absent.
func ExpandResult(result string) (place, total string) {
	m := placeTotal.FindStringSubmatch(result)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// Client fetches and parses participation pages.
type Client struct {
	client *http.Client
	sites  []Site
	retry  *utils.RetryConfig
	logger *utils.Logger
}

// NewClient creates a Client over sites.
func NewClient(sites []Site, retry *utils.RetryConfig, logger *utils.Logger) *Client {
	return &Client{
		client: &http.Client{Timeout: httpTimeout},
		sites:  sites,
		retry:  retry,
		logger: logger,
	}
}

// Scrape collects participation rows for name from every site. A site that
// fails is logged and skipped.
func (c *Client) Scrape(ctx context.Context, name string) []models.ParticipationRow {
	var all []models.ParticipationRow
	for _, site := range c.sites {
		url := SailorURL(site.BaseURL, name)
		var rows []models.ParticipationRow
		err := c.retry.Do(ctx, "techscore-"+site.Label, func() error {
			var err error
			rows, err = c.fetch(ctx, url)
			return err
		})
		if err != nil {
			c.logger.Warn("[techscore] Skipping %s: %v", site.Label, err)
			continue
		}
		for i := range rows {
			rows[i].Source = site.Label
		}
		c.logger.Info("[techscore] %d rows from %s", len(rows), site.Label)
		all = append(all, rows...)
	}
	return all
}

func (c *Client) fetch(ctx context.Context, url string) ([]models.ParticipationRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return Parse(resp.Body)
}

// Parse extracts participation rows from a sailor page.
func Parse(r io.Reader) ([]models.ParticipationRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var rows []models.ParticipationRow
	doc.Find("table.participation-table tbody tr.row0, table.participation-table tbody tr.row1").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		n := cells.Length()
		if n < minCells {
			return
		}

		regatta := cells.Eq(0)
		name := strings.TrimSpace(regatta.Text())
		if a := regatta.Find("a").First(); a.Length() > 0 {
			name = strings.TrimSpace(a.Text())
		}

		result := cellText(cells.Eq(n - 1))
		place, total := ExpandResult(result)
		rows = append(rows, models.ParticipationRow{
			Regatta: name,
			Date:    cellText(cells.Eq(n - 3)),
			Result:  result,
			Place:   place,
			Total:   total,
		})
	})
	return rows, nil
}

// cellText prefers the link inside a placement span over the cell text.
func cellText(td *goquery.Selection) string {
	if a := td.Find("span.sailor-placement-container a").First(); a.Length() > 0 {
		return strings.TrimSpace(a.Text())
	}
	return strings.TrimSpace(td.Text())
}
