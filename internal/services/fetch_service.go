package services

import (
	"context"
	"fmt"
	"sync"

	"pricewatch/internal/amazon"
	"pricewatch/internal/dispatch"
	"pricewatch/internal/domain"
	applog "pricewatch/internal/log"
)

// ItemsFetcher is the slice of the upstream client the pipeline needs.
type ItemsFetcher interface {
	GetItems(ctx context.Context, asins []string) (map[string]domain.PriceData, error)
}

// FetchService retrieves current price data for a set of identifiers:
// batch, dispatch each batch through the rate limiter, merge.
type FetchService struct {
	Fetcher    ItemsFetcher
	Dispatcher *dispatch.Dispatcher
	BatchSize  int
}

func NewFetchService(fetcher ItemsFetcher, d *dispatch.Dispatcher, batchSize int) *FetchService {
	if batchSize <= 0 {
		batchSize = amazon.DefaultBatchSize
	}
	return &FetchService{Fetcher: fetcher, Dispatcher: d, BatchSize: batchSize}
}

// FetchPrices returns price data for every identifier the upstream has
// a listing for. A batch that exhausts its retries is skipped, its
// identifiers simply absent from the result; partial success is normal. The
// only error case is every batch failing.
func (s *FetchService) FetchPrices(ctx context.Context, ids []string) (map[string]domain.PriceData, error) {
	merged := make(map[string]domain.PriceData, len(ids))
	if len(ids) == 0 {
		return merged, nil
	}

	batches, err := amazon.BatchIDs(ids, s.BatchSize)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed int
	)
	for _, batch := range batches {
		batch := batch
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Dispatcher.Do(ctx, func(ctx context.Context) error {
				got, err := s.Fetcher.GetItems(ctx, batch)
				if err != nil {
					return err
				}
				mu.Lock()
				// Last write wins if an identifier ever shows up twice.
				for id, pd := range got {
					merged[id] = pd
				}
				mu.Unlock()
				return nil
			})
			if err != nil {
				applog.OpError("fetch.batch", err, map[string]any{"asins": batch})
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if failed == len(batches) {
		return nil, fmt.Errorf("all %d batches failed", failed)
	}
	return merged, nil
}
