package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"pricewatch/internal/amazon"
	"pricewatch/internal/config"
	"pricewatch/internal/dispatch"
	"pricewatch/internal/domain"
	"pricewatch/internal/http/handlers"
	"pricewatch/internal/repos"
	"pricewatch/internal/services"
)

// stubFetcher serves fixed prices; ids in fail error the whole batch.
type stubFetcher struct {
	prices map[string]domain.PriceData
	fail   bool
}

func (f *stubFetcher) GetItems(ctx context.Context, asins []string) (map[string]domain.PriceData, error) {
	if f.fail {
		return nil, errors.New("upstream down")
	}
	out := make(map[string]domain.PriceData)
	for _, id := range asins {
		if pd, ok := f.prices[id]; ok {
			out[id] = pd
		}
	}
	return out, nil
}

type stubSearcher struct{}

func (stubSearcher) SearchItems(ctx context.Context, keywords string) ([]amazon.SearchResult, error) {
	return nil, nil
}

// newTestApp builds the API surface against an in-memory database and
// the given upstream stub, mirroring the production route layout.
func newTestApp(t *testing.T, fetcher services.ItemsFetcher) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	authH := &handlers.AuthHandler{Auth: authSvc}

	d := dispatch.New(dispatch.Options{
		MinInterval: time.Millisecond,
		MaxAttempts: 1,
		Sleep:       func(time.Duration) {},
	})
	t.Cleanup(d.Close)

	cfg := config.Config{FetchBatchSize: 10}
	deps := handlers.NewDeps(db, cfg, fetcher, stubSearcher{}, d)

	app := fiber.New()
	app.Post("/signup", authH.Signup)
	app.Post("/login", authH.Login)
	app.Post("/logout", authH.Logout)

	api := app.Group("/api/v1")
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/products/:id/history", deps.ProductHandler.History)

	user := api.Group("", handlers.RequireUser(authSvc))
	user.Get("/tracked", deps.TrackingHandler.List)
	user.Post("/tracked", deps.TrackingHandler.Track)
	user.Delete("/tracked/:id", deps.TrackingHandler.Untrack)
	user.Get("/alerts", deps.AlertHandler.List)
	user.Post("/alerts/:id/notified", deps.AlertHandler.MarkNotified)
	user.Delete("/alerts/:id", deps.AlertHandler.Dismiss)

	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Post("/update-prices", deps.AdminHandler.UpdatePrices)
	admin.Post("/check-prices", deps.AdminHandler.CheckPrices)
	admin.Get("/update-logs", deps.AdminHandler.UpdateLogs)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, sid string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// loginAs authenticates a seeded account and returns its session id.
func loginAs(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp := doJSON(t, app, "POST", "/login", `{"email":"`+email+`","password":"Passw0rd!"}`, "")
	if resp.StatusCode != 200 {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	sid := cookieValue(resp, "sid")
	if sid == "" {
		t.Fatalf("login %s: no sid cookie", email)
	}
	return sid
}
