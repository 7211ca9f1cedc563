package services

import (
	"context"
	"fmt"

	"pricewatch/internal/domain"
	applog "pricewatch/internal/log"
	"pricewatch/internal/repos"
)

// UpdateService is the top-level pipeline run: list tracked products,
// fetch fresh prices, reconcile, and record an audit log entry either
// way.
type UpdateService struct {
	Products  *repos.ProductRepo
	Fetch     *FetchService
	Reconcile *ReconcileService
	Logs      *repos.UpdateLogRepo
}

func NewUpdateService(products *repos.ProductRepo, fetch *FetchService, reconcile *ReconcileService, logs *repos.UpdateLogRepo) *UpdateService {
	return &UpdateService{Products: products, Fetch: fetch, Reconcile: reconcile, Logs: logs}
}

// Run executes one full update cycle and returns the aggregate summary
// the trigger (scheduler or admin endpoint) reports.
func (s *UpdateService) Run(ctx context.Context) domain.RunSummary {
	ids, err := s.Products.ActiveIDs(ctx)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("list products: %w", err))
	}
	if len(ids) == 0 {
		summary := domain.RunSummary{Success: true, Details: "no products to update"}
		s.record(ctx, summary)
		return summary
	}

	prices, err := s.Fetch.FetchPrices(ctx, ids)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("fetch prices: %w", err))
	}

	outcomes := s.Reconcile.Reconcile(ctx, prices)

	var updated, changed, failures int
	for _, o := range outcomes {
		if o.Err != nil {
			failures++
			continue
		}
		updated++
		if o.Changed {
			changed++
		}
	}

	summary := domain.RunSummary{
		Success:         true,
		ProductsUpdated: updated,
		Changed:         changed,
		Details: fmt.Sprintf("updated %d of %d products (%d price changes, %d failures)",
			updated, len(ids), changed, failures),
	}
	s.record(ctx, summary)
	applog.Op("update.run", map[string]any{"updated": updated, "changed": changed, "failures": failures})
	return summary
}

func (s *UpdateService) fail(ctx context.Context, err error) domain.RunSummary {
	summary := domain.RunSummary{Success: false, Details: err.Error()}
	s.record(ctx, summary)
	applog.OpError("update.run", err, nil)
	return summary
}

func (s *UpdateService) record(ctx context.Context, summary domain.RunSummary) {
	if err := s.Logs.Insert(ctx, summary.Success, summary.ProductsUpdated, summary.Details); err != nil {
		applog.OpError("update.log", err, nil)
	}
}
