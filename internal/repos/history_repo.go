package repos

import (
	"context"

	"pricewatch/internal/domain"

	"github.com/jmoiron/sqlx"
)

type HistoryRepo struct{ db *sqlx.DB }

func NewHistoryRepo(db *sqlx.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// LastPrice returns the most recent recorded price for a product.
// sql.ErrNoRows means the product has never been observed.
func (r *HistoryRepo) LastPrice(ctx context.Context, productID string) (domain.Pence, error) {
	var p domain.Pence
	err := r.db.GetContext(ctx, &p, `
	  SELECT price FROM price_history
	  WHERE product_id = ?
	  ORDER BY captured_at DESC, id DESC
	  LIMIT 1
	`, productID)
	return p, err
}

func (r *HistoryRepo) Insert(ctx context.Context, productID string, price domain.Pence, title, imageURL, capturedAt string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO price_history(product_id, price, title, image_url, captured_at)
	  VALUES(?, ?, ?, ?, ?)
	`, productID, price, title, imageURL, capturedAt)
	return err
}

func (r *HistoryRepo) Recent(ctx context.Context, productID string, limit int) ([]domain.PriceSnapshot, error) {
	var out []domain.PriceSnapshot
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, product_id, price, title, image_url, captured_at
	  FROM price_history
	  WHERE product_id = ?
	  ORDER BY captured_at DESC, id DESC
	  LIMIT ?
	`, productID, limit)
	return out, err
}
