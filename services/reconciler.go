package services

import (
	"context"
	"fmt"
	"strings"

	"regatta-resume/metrics"
	"regatta-resume/models"
	"regatta-resume/storage"
	"regatta-resume/utils"
)

// Roles recorded on a result.
const (
	RoleSkipper = "skipper"
	RoleCrew    = "crew"
)

// Reconciler upserts extracted results and counts what it created.
type Reconciler struct {
	store   storage.ResultStore
	metrics *metrics.Collector
	logger  *utils.Logger
	stats   models.RunStats
}

// NewReconciler creates a Reconciler over store. m may be nil.
func NewReconciler(store storage.ResultStore, m *metrics.Collector, logger *utils.Logger) *Reconciler {
	return &Reconciler{store: store, metrics: m, logger: logger}
}

// Stats returns the counts accumulated so far.
func (r *Reconciler) Stats() models.RunStats { return r.stats }

// RegattaFor converts a listing into the regatta record it is keyed by.
func RegattaFor(l models.RegattaListing) models.Regatta {
	return models.Regatta{
		ExternalID: l.ID,
		Name:       l.Name,
		Location:   l.HostName,
		StartDate:  l.Start,
		EndDate:    l.End,
		SourceURL:  l.ResultsURL,
	}
}

// Reconcile stores one regatta and its results. Existing sailors, regattas
// and (sailor, regatta, division) results are reused, never duplicated.
func (r *Reconciler) Reconcile(ctx context.Context, l models.RegattaListing, results []models.NormalizedResult) error {
	reg, _, err := r.store.GetOrCreateRegatta(ctx, RegattaFor(l))
	if err != nil {
		return fmt.Errorf("regatta %s: %w", l.ID, err)
	}

	for _, res := range results {
		if res.Placement == nil || *res.Placement < 1 || strings.TrimSpace(res.SailorName) == "" {
			continue
		}

		sailor, created, err := r.store.GetOrCreateSailor(ctx, res.SailorName)
		if err != nil {
			return fmt.Errorf("sailor %q: %w", res.SailorName, err)
		}
		if created {
			r.stats.SailorsAdded++
			r.metrics.SailorAdded()
			r.logger.Debug("[reconciler] Added new sailor: %s", sailor.Name)
		}

		inserted, err := r.store.InsertResult(ctx, models.Result{
			SailorID:  sailor.ID,
			RegattaID: reg.ID,
			Placement: *res.Placement,
			BoatType:  res.Boat,
			Role:      roleFor(res.SailorName),
			Points:    res.Points,
			Division:  res.Division,
		})
		if err != nil {
			return fmt.Errorf("result %q at %s: %w", res.SailorName, l.ID, err)
		}
		if inserted {
			r.stats.ResultsAdded++
			r.metrics.ResultAdded()
		} else {
			r.logger.Debug("[reconciler] Result already exists: %s at %s", sailor.Name, reg.Name)
		}
	}

	r.stats.RegattasScraped++
	r.metrics.RegattaScraped()
	return nil
}

func roleFor(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, RoleCrew):
		return RoleCrew
	case strings.Contains(n, RoleSkipper):
		return RoleSkipper
	}
	return ""
}
