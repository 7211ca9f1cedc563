package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single pooled connection also keeps
	// :memory: databases coherent across goroutines.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (products to track)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products under watch. last_price is the previously observed price;
-- it equals current_price until a second observation exists.
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  current_price INTEGER NOT NULL DEFAULT 0 CHECK (current_price >= 0),
  last_price INTEGER NOT NULL DEFAULT 0 CHECK (last_price >= 0),
  last_updated TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_active ON products(active);

-- Append-only price observations
CREATE TABLE IF NOT EXISTS price_history(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id TEXT NOT NULL,
  price INTEGER NOT NULL CHECK (price >= 0),
  title TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  captured_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_product_captured ON price_history(product_id, captured_at);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Which user watches which product, with an optional alert threshold
-- in minor currency units. Read-only to the pipeline.
CREATE TABLE IF NOT EXISTS user_product_tracking(
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  price_threshold INTEGER NULL CHECK (price_threshold IS NULL OR price_threshold > 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(user_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_tracking_product ON user_product_tracking(product_id);

-- Alerts created by the pipeline on price drops; notified_at/dismissal
-- is owned by the delivery side.
CREATE TABLE IF NOT EXISTS price_alerts(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  old_price INTEGER NOT NULL,
  new_price INTEGER NOT NULL,
  threshold_triggered INTEGER NOT NULL DEFAULT 0,
  price_drop_percentage REAL NOT NULL DEFAULT 0,
  product_title TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  notified_at TEXT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_user_created ON price_alerts(user_id, created_at);

-- One row per pipeline run, append-only
CREATE TABLE IF NOT EXISTS price_update_logs(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  success INTEGER NOT NULL,
  products_updated INTEGER NOT NULL DEFAULT 0,
  details TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting starter product catalog")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,title) VALUES
	  ('B08BK4VLC7','Dulux Walls and Ceilings Paint, Pure Brilliant White'),
	  ('B007ZU78JO','Harris Essentials Paint Brush Set'),
	  ('B005QWBAQ0','Stanley FatMax Tape Measure 8m'),
	  ('B08FDN5WD5','Ronseal Fence Life Plus, Medium Oak 5L'),
	  ('B07N2T83TQ','DeWalt 18V XR Combi Drill'),
	  ('B08FDP4GHW','Ronseal Fence Life Plus, Forest Green 5L')`)

	return tx.Commit()
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-alice", "alice@pricewatch.test", "Alice", "USER", "Passw0rd!"),
		mk("u-bob", "bob@pricewatch.test", "Bob", "USER", "Passw0rd!"),
		mk("u-admin", "admin@pricewatch.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
