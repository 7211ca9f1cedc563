package repos

import (
	"context"

	"pricewatch/internal/domain"

	"github.com/jmoiron/sqlx"
)

type AlertRepo struct{ db *sqlx.DB }

func NewAlertRepo(db *sqlx.DB) *AlertRepo { return &AlertRepo{db: db} }

// InsertBatch writes all alerts for one price drop in a single
// transaction so a partial write never leaves some trackers alerted and
// others not.
func (r *AlertRepo) InsertBatch(ctx context.Context, alerts []domain.PriceAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO price_alerts(
		    id, user_id, product_id, old_price, new_price,
		    threshold_triggered, price_drop_percentage, product_title, created_at
		  ) VALUES(?,?,?,?,?,?,?,?,?)
		`, a.ID, a.UserID, a.ProductID, a.OldPrice, a.NewPrice,
			a.ThresholdTriggered, a.PriceDropPercentage, a.ProductTitle, a.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *AlertRepo) ForUser(ctx context.Context, userID string, limit int) ([]domain.PriceAlert, error) {
	var out []domain.PriceAlert
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, user_id, product_id, old_price, new_price,
	         threshold_triggered, price_drop_percentage, product_title,
	         COALESCE(created_at,'') AS created_at, notified_at
	  FROM price_alerts
	  WHERE user_id = ?
	  ORDER BY created_at DESC, id
	  LIMIT ?
	`, userID, limit)
	return out, err
}

// MarkNotified is scoped to the owning user so one user cannot touch
// another's alerts.
func (r *AlertRepo) MarkNotified(ctx context.Context, id, userID, notifiedAt string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE price_alerts SET notified_at = ? WHERE id = ? AND user_id = ? AND notified_at IS NULL
	`, notifiedAt, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *AlertRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	  DELETE FROM price_alerts WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
