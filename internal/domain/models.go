package domain

// Product is the mutable per-product record: current price plus the
// price observed on the run before (last_price). last_price equals
// current_price until a second observation exists, so a first
// observation never looks like a price change.
type Product struct {
	ID           string `db:"id" json:"id"`
	Title        string `db:"title" json:"title"`
	ImageURL     string `db:"image_url" json:"image_url"`
	CurrentPrice Pence  `db:"current_price" json:"current_price"`
	LastPrice    Pence  `db:"last_price" json:"last_price"`
	LastUpdated  string `db:"last_updated" json:"last_updated"`
	Active       bool   `db:"active" json:"active"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

// PriceSnapshot is one append-only price observation.
type PriceSnapshot struct {
	ID         int64  `db:"id" json:"id"`
	ProductID  string `db:"product_id" json:"product_id"`
	Price      Pence  `db:"price" json:"price"`
	Title      string `db:"title" json:"title"`
	ImageURL   string `db:"image_url" json:"image_url"`
	CapturedAt string `db:"captured_at" json:"captured_at"`
}

// TrackingSubscription links a user to a product they watch, with an
// optional alert threshold in minor units.
type TrackingSubscription struct {
	UserID         string `db:"user_id" json:"user_id"`
	ProductID      string `db:"product_id" json:"product_id"`
	PriceThreshold *Pence `db:"price_threshold" json:"price_threshold,omitempty"`
}

// PriceAlert is created only on a detected price drop for a tracked
// product. NotifiedAt is set by the delivery side, never here.
type PriceAlert struct {
	ID                  string  `db:"id" json:"id"`
	UserID              string  `db:"user_id" json:"user_id"`
	ProductID           string  `db:"product_id" json:"product_id"`
	OldPrice            Pence   `db:"old_price" json:"old_price"`
	NewPrice            Pence   `db:"new_price" json:"new_price"`
	ThresholdTriggered  bool    `db:"threshold_triggered" json:"threshold_triggered"`
	PriceDropPercentage float64 `db:"price_drop_percentage" json:"price_drop_percentage"`
	ProductTitle        string  `db:"product_title" json:"product_title"`
	CreatedAt           string  `db:"created_at" json:"created_at"`
	NotifiedAt          *string `db:"notified_at" json:"notified_at,omitempty"`
}

// PriceData is what the fetch pipeline yields per product.
type PriceData struct {
	CurrentPrice Pence  `json:"current_price"`
	Title        string `json:"title"`
	ImageURL     string `json:"image_url"`
}

// RunSummary is the aggregate result of one pipeline run, mirrored into
// price_update_logs.
type RunSummary struct {
	Success         bool   `json:"success"`
	ProductsUpdated int    `json:"products_updated"`
	Changed         int    `json:"changed"`
	Details         string `json:"details"`
}

// UpdateLogEntry is one persisted pipeline-run audit record.
type UpdateLogEntry struct {
	ID              int64  `db:"id" json:"id"`
	Success         bool   `db:"success" json:"success"`
	ProductsUpdated int    `db:"products_updated" json:"products_updated"`
	Details         string `db:"details" json:"details"`
	CreatedAt       string `db:"created_at" json:"created_at"`
}
