package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"pricewatch/internal/domain"
	"pricewatch/internal/repos"
	"pricewatch/internal/services"
)

func newReconciler(db *sqlx.DB, parallel int) *services.ReconcileService {
	alertSvc := services.NewAlertService(repos.NewTrackingRepo(db), repos.NewAlertRepo(db))
	return services.NewReconcileService(repos.NewHistoryRepo(db), repos.NewProductRepo(db), alertSvc, parallel)
}

func TestReconcile_FirstObservation(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	svc := newReconciler(db, 1)

	outcomes := svc.Reconcile(ctx, map[string]domain.PriceData{
		"B08BK4VLC7": {CurrentPrice: 2499, Title: "Dulux Paint", ImageURL: "https://img/1.jpg"},
	})
	if len(outcomes) != 1 {
		t.Fatalf("want 1 outcome, got %d", len(outcomes))
	}
	o := outcomes[0]
	if o.Err != nil {
		t.Fatal(o.Err)
	}
	if o.Changed || o.Alerted != 0 {
		t.Fatalf("first observation must not count as a change: %+v", o)
	}

	p, err := repos.NewProductRepo(db).Get(ctx, "B08BK4VLC7")
	if err != nil {
		t.Fatal(err)
	}
	// Without a prior observation last_price tracks current_price.
	if p.CurrentPrice != 2499 || p.LastPrice != 2499 {
		t.Fatalf("want 2499/2499, got %d/%d", p.CurrentPrice, p.LastPrice)
	}

	snaps, err := repos.NewHistoryRepo(db).Recent(ctx, "B08BK4VLC7", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].Price != 2499 {
		t.Fatalf("want one 2499 snapshot, got %+v", snaps)
	}
}

func TestReconcile_DropUpdatesAndAlerts(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	svc := newReconciler(db, 1)
	trackRepo := repos.NewTrackingRepo(db)

	if err := trackRepo.Add(ctx, "u-alice", "B08BK4VLC7", nil); err != nil {
		t.Fatal(err)
	}

	svc.Reconcile(ctx, map[string]domain.PriceData{
		"B08BK4VLC7": {CurrentPrice: 2499, Title: "Dulux Paint"},
	})
	outcomes := svc.Reconcile(ctx, map[string]domain.PriceData{
		"B08BK4VLC7": {CurrentPrice: 1999, Title: "Dulux Paint"},
	})

	o := outcomes[0]
	if o.Err != nil {
		t.Fatal(o.Err)
	}
	if !o.Changed || o.OldPrice != 2499 || o.NewPrice != 1999 {
		t.Fatalf("drop not detected: %+v", o)
	}
	if o.Alerted != 1 {
		t.Fatalf("want 1 alert, got %d", o.Alerted)
	}

	p, err := repos.NewProductRepo(db).Get(ctx, "B08BK4VLC7")
	if err != nil {
		t.Fatal(err)
	}
	if p.CurrentPrice != 1999 || p.LastPrice != 2499 {
		t.Fatalf("want 1999/2499, got %d/%d", p.CurrentPrice, p.LastPrice)
	}

	alerts, err := repos.NewAlertRepo(db).ForUser(ctx, "u-alice", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].OldPrice != 2499 || alerts[0].NewPrice != 1999 {
		t.Fatalf("alert wrong: %+v", alerts)
	}
}

func TestReconcile_UnchangedPrice(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	svc := newReconciler(db, 1)

	svc.Reconcile(ctx, map[string]domain.PriceData{"B08BK4VLC7": {CurrentPrice: 2499}})
	outcomes := svc.Reconcile(ctx, map[string]domain.PriceData{"B08BK4VLC7": {CurrentPrice: 2499}})

	if o := outcomes[0]; o.Err != nil || o.Changed || o.Alerted != 0 {
		t.Fatalf("unchanged price misreported: %+v", o)
	}
	snaps, err := repos.NewHistoryRepo(db).Recent(ctx, "B08BK4VLC7", 10)
	if err != nil {
		t.Fatal(err)
	}
	// Every run appends a snapshot, changed or not.
	if len(snaps) != 2 {
		t.Fatalf("want 2 snapshots, got %d", len(snaps))
	}
}

func TestReconcile_FailureIsolatedPerProduct(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	svc := newReconciler(db, 2)

	// Block history inserts for one product only.
	if _, err := db.Exec(`
		CREATE TRIGGER block_one BEFORE INSERT ON price_history
		WHEN NEW.product_id = 'B007ZU78JO'
		BEGIN SELECT RAISE(ABORT, 'history insert blocked'); END
	`); err != nil {
		t.Fatal(err)
	}

	outcomes := svc.Reconcile(ctx, map[string]domain.PriceData{
		"B007ZU78JO": {CurrentPrice: 1099},
		"B08BK4VLC7": {CurrentPrice: 2499},
	})
	if len(outcomes) != 2 {
		t.Fatalf("want 2 outcomes, got %d", len(outcomes))
	}
	// Outcomes come back in product-id order.
	if outcomes[0].ProductID != "B007ZU78JO" || outcomes[0].Err == nil {
		t.Fatalf("blocked product should fail: %+v", outcomes[0])
	}
	if outcomes[1].ProductID != "B08BK4VLC7" || outcomes[1].Err != nil {
		t.Fatalf("healthy product should survive: %+v", outcomes[1])
	}

	p, err := repos.NewProductRepo(db).Get(ctx, "B08BK4VLC7")
	if err != nil {
		t.Fatal(err)
	}
	if p.CurrentPrice != 2499 {
		t.Fatalf("healthy product not updated: %+v", p)
	}
	blocked, err := repos.NewProductRepo(db).Get(ctx, "B007ZU78JO")
	if err != nil {
		t.Fatal(err)
	}
	if blocked.CurrentPrice != 0 {
		t.Fatalf("failed product must stay untouched: %+v", blocked)
	}
}
