// Package clubspot queries the Clubspot listing API for regatta metadata.
package clubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"regatta-resume/models"
	"regatta-resume/utils"
)

const (
	defaultName = "Unnamed Regatta"
	userAgent   = "Mozilla/5.0"
	origin      = "https://theclubspot.com"
)

// BlockedHosts are host organisations whose regattas are never listed.
var BlockedHosts = []string{"HCyTbbCF4n", "XVgOrNASDY", "ecNpKgrusD", "GTKaJKeque", "TTBnsppUug", "pnBFlwJ2Mf"}

var epoch = time.Unix(0, 0).UTC()

// Fetcher retrieves and filters regatta listings.
type Fetcher struct {
	client  *http.Client
	apiURL  string
	baseURL string
	limit   int
	retry   *utils.RetryConfig
	logger  *utils.Logger
}

// NewFetcher creates a Fetcher against the given API and site base URLs.
func NewFetcher(apiURL, baseURL string, limit int, retry *utils.RetryConfig, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 45 * time.Second},
		apiURL:  apiURL,
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		retry:   retry,
		logger:  logger,
	}
}

type pointer struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
}

type isoDate struct {
	ISO string `json:"iso"`
}

type apiRegatta struct {
	ObjectID   string   `json:"objectId"`
	Name       string   `json:"name"`
	StartDate  *isoDate `json:"startDate"`
	EndDate    *isoDate `json:"endDate"`
	ClubObject *pointer `json:"clubObject"`
}

type apiResponse struct {
	Results []apiRegatta `json:"results"`
}

// query is the fixed server-side constraint set: public, not archived, and
// excluding blocked hosts.
func (f *Fetcher) query() map[string]any {
	return map[string]any{
		"where": map[string]any{
			"archived":   map[string]any{"$ne": true},
			"public":     true,
			"clubObject": map[string]any{"$nin": BlockedHosts},
		},
		"include":         "clubObject",
		"keys":            "objectId,name,startDate,endDate,clubObject.id,clubObject.name",
		"count":           1,
		"limit":           f.limit,
		"order":           "-startDate",
		"_method":         "GET",
		"_ApplicationId":  "myclubspot2017",
		"_ClientVersion":  "js4.3.1-forked-1.0",
		"_InstallationId": "ce500aaa-c2a0-4d06-a9e3-1a558a606542",
	}
}

// Fetch returns listings matching filter, newest start first, capped at
// filter.MaxCount. Any failure of the listing call is returned as an error.
func (f *Fetcher) Fetch(ctx context.Context, filter models.ListingFilter) ([]models.RegattaListing, error) {
	var raw []apiRegatta
	err := f.retry.Do(ctx, "clubspot-listing", func() error {
		var err error
		raw, err = f.post(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("clubspot: fetch listings: %w", err)
	}
	f.logger.Info("[clubspot] Fetched %d total regattas from API", len(raw))

	listings := f.filter(raw, filter)
	f.logger.Info("[clubspot] %d regattas left after filtering", len(listings))
	return listings, nil
}

func (f *Fetcher) post(ctx context.Context) ([]apiRegatta, error) {
	body, err := json.Marshal(f.query())
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/events")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return payload.Results, nil
}

func (f *Fetcher) filter(raw []apiRegatta, filter models.ListingFilter) []models.RegattaListing {
	blocked := make(map[string]struct{}, len(BlockedHosts))
	for _, id := range BlockedHosts {
		blocked[id] = struct{}{}
	}
	contains := strings.ToLower(strings.TrimSpace(filter.Contains))

	seen := make(map[string]struct{})
	out := make([]models.RegattaListing, 0, len(raw))

	for _, r := range raw {
		if r.ObjectID == "" {
			continue
		}
		if _, dup := seen[r.ObjectID]; dup {
			continue
		}
		seen[r.ObjectID] = struct{}{}

		l := models.RegattaListing{
			ID:         r.ObjectID,
			Name:       r.Name,
			Start:      parseISO(r.StartDate),
			End:        parseISO(r.EndDate),
			ResultsURL: f.baseURL + "/regatta/" + r.ObjectID + "/results",
		}
		if l.Name == "" {
			l.Name = defaultName
		}
		if r.ClubObject != nil {
			l.HostID = r.ClubObject.ObjectID
			l.HostName = r.ClubObject.Name
		}

		if _, bad := blocked[l.HostID]; bad {
			continue
		}
		if !filter.From.IsZero() && l.Start.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !l.Start.Before(filter.To.AddDate(0, 0, 1)) {
			continue
		}
		if contains != "" && !strings.Contains(strings.ToLower(l.Name), contains) {
			continue
		}
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.After(out[j].Start)
	})
	if filter.MaxCount > 0 && len(out) > filter.MaxCount {
		out = out[:filter.MaxCount]
	}
	return out
}

// parseISO reads the API's "...Z" timestamps; missing or malformed values
// become the Unix epoch so they sort last.
func parseISO(d *isoDate) time.Time {
	if d == nil || d.ISO == "" {
		return epoch
	}
	t, err := time.Parse(time.RFC3339Nano, d.ISO)
	if err != nil {
		return epoch
	}
	return t.UTC()
}

// ParseBound parses a YYYY-MM-DD filter bound as UTC midnight. An empty
// string yields the zero time.
func ParseBound(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
