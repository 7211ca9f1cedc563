package repos

import (
	"context"

	"pricewatch/internal/domain"

	"github.com/jmoiron/sqlx"
)

type TrackingRepo struct{ db *sqlx.DB }

func NewTrackingRepo(db *sqlx.DB) *TrackingRepo { return &TrackingRepo{db: db} }

// ForProduct lists every subscription for a product. The pipeline reads
// this to decide who gets alerted.
func (r *TrackingRepo) ForProduct(ctx context.Context, productID string) ([]domain.TrackingSubscription, error) {
	var out []domain.TrackingSubscription
	err := r.db.SelectContext(ctx, &out, `
	  SELECT user_id, product_id, price_threshold
	  FROM user_product_tracking
	  WHERE product_id = ?
	`, productID)
	return out, err
}

// Add upserts a subscription; re-tracking refreshes the threshold.
func (r *TrackingRepo) Add(ctx context.Context, userID, productID string, threshold *domain.Pence) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO user_product_tracking(user_id, product_id, price_threshold)
	  VALUES(?, ?, ?)
	  ON CONFLICT(user_id, product_id) DO UPDATE SET price_threshold = excluded.price_threshold
	`, userID, productID, threshold)
	return err
}

func (r *TrackingRepo) Remove(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, `
	  DELETE FROM user_product_tracking WHERE user_id = ? AND product_id = ?
	`, userID, productID)
	return err
}

type TrackedRow struct {
	ProductID      string        `db:"product_id" json:"product_id"`
	Title          string        `db:"title" json:"title"`
	ImageURL       string        `db:"image_url" json:"image_url"`
	CurrentPrice   domain.Pence  `db:"current_price" json:"current_price"`
	LastPrice      domain.Pence  `db:"last_price" json:"last_price"`
	PriceThreshold *domain.Pence `db:"price_threshold" json:"price_threshold,omitempty"`
}

func (r *TrackingRepo) ForUser(ctx context.Context, userID string) ([]TrackedRow, error) {
	var out []TrackedRow
	err := r.db.SelectContext(ctx, &out, `
	  SELECT t.product_id, p.title, p.image_url, p.current_price, p.last_price, t.price_threshold
	  FROM user_product_tracking t
	  JOIN products p ON p.id = t.product_id
	  WHERE t.user_id = ?
	  ORDER BY p.title
	`, userID)
	return out, err
}
