package services

import (
	"context"

	"pricewatch/internal/domain"
	"pricewatch/internal/repos"
)

// TrackingService manages a user's watched products. Subscriptions are
// read-only to the pipeline; only users create or delete them.
type TrackingService struct {
	Tracking *repos.TrackingRepo
	Products *repos.ProductRepo
}

func NewTrackingService(tracking *repos.TrackingRepo, products *repos.ProductRepo) *TrackingService {
	return &TrackingService{Tracking: tracking, Products: products}
}

// Track subscribes a user to a product, creating the product row on
// first sight so the next pipeline run picks it up.
func (s *TrackingService) Track(ctx context.Context, userID, productID, title string, threshold *domain.Pence) error {
	if err := s.Products.Ensure(ctx, productID, title); err != nil {
		return err
	}
	return s.Tracking.Add(ctx, userID, productID, threshold)
}

func (s *TrackingService) Untrack(ctx context.Context, userID, productID string) error {
	return s.Tracking.Remove(ctx, userID, productID)
}

func (s *TrackingService) List(ctx context.Context, userID string) ([]repos.TrackedRow, error) {
	return s.Tracking.ForUser(ctx, userID)
}
