package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"regatta-resume/models"
	"regatta-resume/storage"
	"regatta-resume/utils"
)

const recentPodiumLimit = 5

// InsightService summarises one sailor's stored results.
type InsightService struct {
	store  storage.ResultStore
	logger *utils.Logger
}

// NewInsightService creates an InsightService reading from store.
func NewInsightService(store storage.ResultStore, logger *utils.Logger) *InsightService {
	return &InsightService{store: store, logger: logger}
}

// ForSailor loads a sailor's stored results and summarises them.
func (s *InsightService) ForSailor(ctx context.Context, name string) (*models.SailorStats, error) {
	sailor, err := s.store.SailorByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("sailor %q: %w", name, err)
	}
	records, err := s.store.ResultsForSailor(ctx, sailor.ID)
	if err != nil {
		return nil, err
	}
	stats := s.Generate(records)
	stats.SailorName = sailor.Name
	return stats, nil
}

// Generate summarises results given newest first.
func (s *InsightService) Generate(records []models.ResultRecord) *models.SailorStats {
	stats := &models.SailorStats{}
	if len(records) == 0 {
		return stats
	}

	regattas := make(map[string]struct{})
	placements := make([]float64, 0, len(records))
	var total int

	for _, r := range records {
		regattas[r.RegattaName+"\x00"+r.StartDate.Format("2006-01-02")] = struct{}{}
		placements = append(placements, float64(r.Placement))
		total += r.Placement

		if stats.BestFinish == 0 || r.Placement < stats.BestFinish {
			stats.BestFinish = r.Placement
		}
		if r.Placement <= 3 {
			stats.Top3Count++
			if len(stats.RecentPodiums) < recentPodiumLimit {
				stats.RecentPodiums = append(stats.RecentPodiums, r)
			}
		}
		if r.Placement <= 10 {
			stats.Top10Count++
		}
		switch strings.ToLower(r.Role) {
		case RoleSkipper:
			stats.SkipperCount++
		case RoleCrew:
			stats.CrewCount++
		}
		if !r.StartDate.IsZero() {
			if stats.FirstRegatta.IsZero() || r.StartDate.Before(stats.FirstRegatta) {
				stats.FirstRegatta = r.StartDate
			}
			if r.StartDate.After(stats.LastRegatta) {
				stats.LastRegatta = r.StartDate
			}
		}
	}

	stats.TotalRegattas = len(regattas)
	stats.AveragePlacement = round(float64(total)/float64(len(records)), 1)
	stats.Consistency = Consistency(placements)
	return stats
}

// Consistency is the population standard deviation of placements, lower
// meaning steadier. It needs at least two results.
func Consistency(placements []float64) *float64 {
	if len(placements) < 2 {
		return nil
	}
	var sum float64
	for _, p := range placements {
		sum += p
	}
	mean := sum / float64(len(placements))
	var variance float64
	for _, p := range placements {
		variance += (p - mean) * (p - mean)
	}
	sd := round(math.Sqrt(variance/float64(len(placements))), 2)
	return &sd
}

// FormatPlacement renders a placement as an English ordinal.
func FormatPlacement(n int) string {
	if n <= 0 {
		return "N/A"
	}
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func (s *InsightService) Print(w io.Writer, r *models.SailorStats) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  ⛵ %s\033[0m\n", strings.ToUpper(r.SailorName))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Regattas sailed   : \033[1m%d\033[0m\n", r.TotalRegattas)
	if r.TotalRegattas == 0 {
		fmt.Fprintf(w, "  No results stored\n")
		fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
		return
	}
	fmt.Fprintf(w, "  Best finish       : \033[1;32m%s\033[0m\n", FormatPlacement(r.BestFinish))
	fmt.Fprintf(w, "  Average placement : \033[1m%.1f\033[0m\n", r.AveragePlacement)
	fmt.Fprintf(w, "  Top 3 / Top 10    : %d / %d\n", r.Top3Count, r.Top10Count)
	fmt.Fprintf(w, "  Skipper / Crew    : %d / %d\n", r.SkipperCount, r.CrewCount)
	if r.Consistency != nil {
		fmt.Fprintf(w, "  Consistency (σ)   : %.2f\n", *r.Consistency)
	}
	if !r.FirstRegatta.IsZero() {
		fmt.Fprintf(w, "  Active            : %s → %s\n",
			r.FirstRegatta.Format("2006-01-02"), r.LastRegatta.Format("2006-01-02"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Recent Podiums\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.RecentPodiums) == 0 {
		fmt.Fprintf(w, "  No podium finishes yet\n")
	}
	podiums := append([]models.ResultRecord(nil), r.RecentPodiums...)
	sort.SliceStable(podiums, func(i, j int) bool { return podiums[i].StartDate.After(podiums[j].StartDate) })
	for _, p := range podiums {
		fmt.Fprintf(w, "  \033[1m%-5s\033[0m %s\n", FormatPlacement(p.Placement), truncate(p.RegattaName, 44))
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
