package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pricewatch/internal/domain"
	applog "pricewatch/internal/log"
	"pricewatch/internal/repos"
)

// ReconcileService compares freshly fetched prices against the last
// stored price and moves persisted state forward: history insert,
// product update, and alert generation, in that order per product.
//
// There is no transaction spanning the three writes; a crash can leave
// a history entry without a matching product update. The window closes
// on the next run.
type ReconcileService struct {
	History  *repos.HistoryRepo
	Products *repos.ProductRepo
	Alerts   *AlertService

	// Parallel is how many products reconcile concurrently; 1 means
	// fully sequential.
	Parallel int

	now func() time.Time
}

func NewReconcileService(history *repos.HistoryRepo, products *repos.ProductRepo, alerts *AlertService, parallel int) *ReconcileService {
	if parallel <= 0 {
		parallel = 1
	}
	return &ReconcileService{
		History:  history,
		Products: products,
		Alerts:   alerts,
		Parallel: parallel,
		now:      time.Now,
	}
}

// Outcome is the per-product result of one reconciliation pass.
type Outcome struct {
	ProductID string       `json:"product_id"`
	OldPrice  domain.Pence `json:"old_price"`
	NewPrice  domain.Pence `json:"new_price"`
	Changed   bool         `json:"price_changed"`
	Alerted   int          `json:"alerts_created"`
	Err       error        `json:"-"`
}

// Reconcile processes every product in the price map. One product's
// failure is recorded in its Outcome and does not stop the rest.
// Outcomes come back in product-id order regardless of Parallel.
func (s *ReconcileService) Reconcile(ctx context.Context, prices map[string]domain.PriceData) []Outcome {
	ids := make([]string, 0, len(prices))
	for id := range prices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	outcomes := make([]Outcome, len(ids))
	for start := 0; start < len(ids); start += s.Parallel {
		end := start + s.Parallel
		if end > len(ids) {
			end = len(ids)
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				outcomes[i] = s.reconcileOne(ctx, ids[i], prices[ids[i]])
			}()
		}
		wg.Wait()
	}

	for _, o := range outcomes {
		if o.Err != nil {
			applog.OpError("reconcile.product", o.Err, map[string]any{"product": o.ProductID})
		}
	}
	return outcomes
}

func (s *ReconcileService) reconcileOne(ctx context.Context, id string, pd domain.PriceData) Outcome {
	out := Outcome{ProductID: id, NewPrice: pd.CurrentPrice}

	lastPrice, err := s.History.LastPrice(ctx, id)
	hadPrior := true
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			// A read error is not the same as "no prior price": treating
			// it as a first observation would mask a real price as fresh.
			out.Err = fmt.Errorf("read last price: %w", err)
			return out
		}
		hadPrior = false
	}

	capturedAt := s.now().UTC().Format(time.RFC3339Nano)

	if err := s.History.Insert(ctx, id, pd.CurrentPrice, pd.Title, pd.ImageURL, capturedAt); err != nil {
		out.Err = fmt.Errorf("insert history: %w", err)
		return out
	}

	// With no prior observation the previous price falls back to the
	// current one, so a first sighting never looks like a drop.
	previous := pd.CurrentPrice
	if hadPrior {
		previous = lastPrice
		out.OldPrice = lastPrice
		out.Changed = lastPrice != pd.CurrentPrice
	}

	if err := s.Products.UpdatePrices(ctx, id, pd.CurrentPrice, previous, pd.Title, pd.ImageURL, capturedAt); err != nil {
		out.Err = fmt.Errorf("update product: %w", err)
		return out
	}

	if hadPrior && pd.CurrentPrice < lastPrice {
		n, err := s.Alerts.PriceDrop(ctx, id, lastPrice, pd.CurrentPrice, pd.Title)
		if err != nil {
			// Alerting is fire-and-forget from the reconciler's view;
			// the failure is logged but the product still counts as
			// reconciled.
			applog.OpError("reconcile.alerts", err, map[string]any{"product": id})
		}
		out.Alerted = n
	}
	return out
}
