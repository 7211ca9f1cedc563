package repos

import (
	"context"

	"pricewatch/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// ActiveIDs lists the identifiers the pipeline should fetch this run.
func (r *ProductRepo) ActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM products WHERE active = 1 ORDER BY id`)
	return ids, err
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `
	  SELECT
	    id, title, image_url, current_price, last_price,
	    COALESCE(last_updated,'') AS last_updated, active, COALESCE(created_at,'') AS created_at
	  FROM products
	  WHERE active = 1
	  ORDER BY title
	`)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `
	  SELECT
	    id, title, image_url, current_price, last_price,
	    COALESCE(last_updated,'') AS last_updated, active, COALESCE(created_at,'') AS created_at
	  FROM products
	  WHERE id = ?
	`, id)
	return p, err
}

// Ensure inserts a product row if it does not exist yet; users can start
// tracking an identifier before the pipeline has ever observed it.
func (r *ProductRepo) Ensure(ctx context.Context, id, title string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO products(id, title) VALUES(?, ?)
	  ON CONFLICT(id) DO NOTHING
	`, id, title)
	return err
}

// UpdatePrices moves the product record forward one observation. Title
// and image only overwrite when the upstream actually supplied them.
func (r *ProductRepo) UpdatePrices(ctx context.Context, id string, current, last domain.Pence, title, imageURL, lastUpdated string) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE products SET
	    current_price = ?,
	    last_price = ?,
	    last_updated = ?,
	    title = COALESCE(NULLIF(?, ''), title),
	    image_url = COALESCE(NULLIF(?, ''), image_url)
	  WHERE id = ?
	`, current, last, lastUpdated, title, imageURL, id)
	return err
}
