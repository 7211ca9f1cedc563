package services

import (
	"context"
	"fmt"
	"time"

	"pricewatch/internal/domain"
	"pricewatch/internal/repos"

	"github.com/google/uuid"
)

// AlertService turns a detected price drop into alert records for every
// user tracking the product.
type AlertService struct {
	Tracking *repos.TrackingRepo
	Alerts   *repos.AlertRepo

	now func() time.Time
}

func NewAlertService(tracking *repos.TrackingRepo, alerts *repos.AlertRepo) *AlertService {
	return &AlertService{Tracking: tracking, Alerts: alerts, now: time.Now}
}

// PriceDrop creates one alert per subscription and returns how many
// were written. Nothing is created when the price did not drop or
// nobody tracks the product.
func (s *AlertService) PriceDrop(ctx context.Context, productID string, oldPrice, newPrice domain.Pence, title string) (int, error) {
	if newPrice >= oldPrice || oldPrice <= 0 {
		return 0, nil
	}

	subs, err := s.Tracking.ForProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("load subscriptions for %s: %w", productID, err)
	}
	if len(subs) == 0 {
		return 0, nil
	}

	dropPct := float64(oldPrice-newPrice) / float64(oldPrice) * 100
	createdAt := s.now().UTC().Format(time.RFC3339)

	alerts := make([]domain.PriceAlert, 0, len(subs))
	for _, sub := range subs {
		alerts = append(alerts, domain.PriceAlert{
			ID:                  uuid.NewString(),
			UserID:              sub.UserID,
			ProductID:           productID,
			OldPrice:            oldPrice,
			NewPrice:            newPrice,
			ThresholdTriggered:  sub.PriceThreshold != nil && newPrice <= *sub.PriceThreshold,
			PriceDropPercentage: dropPct,
			ProductTitle:        title,
			CreatedAt:           createdAt,
		})
	}

	if err := s.Alerts.InsertBatch(ctx, alerts); err != nil {
		return 0, fmt.Errorf("insert %d alerts for %s: %w", len(alerts), productID, err)
	}
	return len(alerts), nil
}
