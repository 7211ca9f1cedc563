package amazon_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pricewatch/internal/amazon"
	"pricewatch/internal/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *amazon.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return amazon.NewClient(amazon.Config{
		AccessKey:   "test-access",
		SecretKey:   "test-secret",
		PartnerTag:  "pricewatch-21",
		Host:        "webservices.amazon.co.uk",
		Region:      "eu-west-1",
		Marketplace: "www.amazon.co.uk",
		BaseURL:     srv.URL,
	})
}

func TestGetItems_ParsesPricesAndSkipsUnlisted(t *testing.T) {
	body := `{
		"ItemsResult": {
			"Items": [
				{
					"ASIN": "B08BK4VLC7",
					"ItemInfo": {"Title": {"DisplayValue": "Dulux Matt Emulsion"}},
					"Images": {"Primary": {"Medium": {"URL": "https://img.example/1.jpg"}}},
					"Offers": {"Listings": [{"Price": {"Amount": 24.99}}]}
				},
				{
					"ASIN": "B000000002",
					"ItemInfo": {"Title": {"DisplayValue": "No offers item"}}
				},
				{
					"ASIN": "B000000003",
					"Offers": {"Listings": [{"Price": {"Amount": 5.5}}]}
				}
			]
		}
	}`
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	prices, err := c.GetItems(context.Background(), []string{"B08BK4VLC7", "B000000002", "B000000003"})
	if err != nil {
		t.Fatal(err)
	}
	if len(prices) != 2 {
		t.Fatalf("want 2 listed items, got %d: %v", len(prices), prices)
	}
	p := prices["B08BK4VLC7"]
	if p.CurrentPrice != domain.Pence(2499) {
		t.Fatalf("want 2499 pence, got %d", p.CurrentPrice)
	}
	if p.Title != "Dulux Matt Emulsion" || p.ImageURL != "https://img.example/1.jpg" {
		t.Fatalf("metadata wrong: %+v", p)
	}
	// Missing title and image come through as zero values, not errors.
	if prices["B000000003"].CurrentPrice != domain.Pence(550) || prices["B000000003"].Title != "" {
		t.Fatalf("partial item wrong: %+v", prices["B000000003"])
	}
}

func TestGetItems_EmptyResult(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	prices, err := c.GetItems(context.Background(), []string{"B000000001"})
	if err != nil {
		t.Fatal(err)
	}
	if len(prices) != 0 {
		t.Fatalf("want empty map, got %v", prices)
	}
}

func TestGetItems_SendsSignedRequest(t *testing.T) {
	var got struct {
		target, auth, date, enc string
		payload                 map[string]any
	}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.target = r.Header.Get("X-Amz-Target")
		got.auth = r.Header.Get("Authorization")
		got.date = r.Header.Get("X-Amz-Date")
		got.enc = r.Header.Get("Content-Encoding")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got.payload)
		w.Write([]byte(`{}`))
	})

	if _, err := c.GetItems(context.Background(), []string{"B08BK4VLC7"}); err != nil {
		t.Fatal(err)
	}
	if got.target != "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems" {
		t.Fatalf("target: %q", got.target)
	}
	if !strings.HasPrefix(got.auth, "AWS4-HMAC-SHA256 Credential=test-access/") {
		t.Fatalf("authorization: %q", got.auth)
	}
	if len(got.date) != len("20250115T103000Z") {
		t.Fatalf("x-amz-date: %q", got.date)
	}
	if got.enc != "amz-1.0" {
		t.Fatalf("content-encoding: %q", got.enc)
	}
	if got.payload["PartnerTag"] != "pricewatch-21" || got.payload["Marketplace"] != "www.amazon.co.uk" {
		t.Fatalf("payload: %v", got.payload)
	}
	if got.payload["Operation"] != "GetItems" {
		t.Fatalf("operation: %v", got.payload["Operation"])
	}
}

func TestGetItems_StatusError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte("internal failure"))
	})
	_, err := c.GetItems(context.Background(), []string{"B000000001"})
	var se *amazon.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want StatusError, got %v", err)
	}
	if se.StatusCode != 500 || se.RateLimited() {
		t.Fatalf("got %+v", se)
	}
}

func TestGetItems_RateLimited(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
		w.Write([]byte(`{"Errors":[{"Code":"TooManyRequests"}]}`))
	})
	_, err := c.GetItems(context.Background(), []string{"B000000001"})
	var se *amazon.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want StatusError, got %v", err)
	}
	if !se.RateLimited() {
		t.Fatalf("429 should report RateLimited: %+v", se)
	}
}

func TestSearchItems_ParsesResults(t *testing.T) {
	body := `{
		"SearchResult": {
			"Items": [
				{
					"ASIN": "B0C1234567",
					"DetailPageURL": "https://www.amazon.co.uk/dp/B0C1234567",
					"ItemInfo": {"Title": {"DisplayValue": "Cordless Drill"}},
					"Images": {"Primary": {"Medium": {"URL": "https://img.example/drill.jpg"}}},
					"Offers": {"Listings": [{
						"Price": {"Amount": 89.0},
						"SavePrice": {"Amount": 10.5},
						"DeliveryInfo": {"IsPrimeEligible": true}
					}]}
				},
				{"ASIN": "B0C7654321", "ItemInfo": {"Title": {"DisplayValue": "Unpriced"}}}
			]
		}
	}`
	var gotTarget string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.Header.Get("X-Amz-Target")
		w.Write([]byte(body))
	})

	results, err := c.SearchItems(context.Background(), "drill")
	if err != nil {
		t.Fatal(err)
	}
	if gotTarget != "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems" {
		t.Fatalf("target: %q", gotTarget)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	r0 := results[0]
	if r0.ID != "B0C1234567" || r0.Price != domain.Pence(8900) || r0.SavedAmount != domain.Pence(1050) || !r0.IsPrime {
		t.Fatalf("first result wrong: %+v", r0)
	}
	if r0.URL != "https://www.amazon.co.uk/dp/B0C1234567" {
		t.Fatalf("url: %q", r0.URL)
	}
	// Unpriced search hits are kept with a zero price.
	if results[1].Price != 0 || results[1].Title != "Unpriced" {
		t.Fatalf("second result wrong: %+v", results[1])
	}
}
