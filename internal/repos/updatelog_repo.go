package repos

import (
	"context"

	"pricewatch/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UpdateLogRepo struct{ db *sqlx.DB }

func NewUpdateLogRepo(db *sqlx.DB) *UpdateLogRepo { return &UpdateLogRepo{db: db} }

func (r *UpdateLogRepo) Insert(ctx context.Context, success bool, productsUpdated int, details string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO price_update_logs(success, products_updated, details)
	  VALUES(?, ?, ?)
	`, success, productsUpdated, details)
	return err
}

func (r *UpdateLogRepo) Recent(ctx context.Context, limit int) ([]domain.UpdateLogEntry, error) {
	var out []domain.UpdateLogEntry
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, success, products_updated, details, COALESCE(created_at,'') AS created_at
	  FROM price_update_logs
	  ORDER BY id DESC
	  LIMIT ?
	`, limit)
	return out, err
}
