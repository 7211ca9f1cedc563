package services

import (
	"context"

	"pricewatch/internal/amazon"
	"pricewatch/internal/dispatch"
)

// ItemSearcher is the slice of the upstream client keyword search uses.
type ItemSearcher interface {
	SearchItems(ctx context.Context, keywords string) ([]amazon.SearchResult, error)
}

// SearchService runs keyword searches through the same rate limiter as
// the fetch pipeline; search traffic counts against the same quota.
type SearchService struct {
	Searcher   ItemSearcher
	Dispatcher *dispatch.Dispatcher
}

func NewSearchService(searcher ItemSearcher, d *dispatch.Dispatcher) *SearchService {
	return &SearchService{Searcher: searcher, Dispatcher: d}
}

func (s *SearchService) Search(ctx context.Context, q string) ([]amazon.SearchResult, error) {
	var out []amazon.SearchResult
	err := s.Dispatcher.Do(ctx, func(ctx context.Context) error {
		res, err := s.Searcher.SearchItems(ctx, q)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}
