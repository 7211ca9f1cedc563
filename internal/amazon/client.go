package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pricewatch/internal/domain"

	"github.com/go-resty/resty/v2"
)

const (
	pathGetItems    = "/paapi5/getitems"
	pathSearchItems = "/paapi5/searchitems"

	targetGetItems    = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems"
	targetSearchItems = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"
)

type Config struct {
	AccessKey   string
	SecretKey   string
	PartnerTag  string
	Host        string // e.g. webservices.amazon.co.uk
	Region      string // e.g. eu-west-1
	Marketplace string // e.g. www.amazon.co.uk
	BaseURL     string // defaults to https://<Host>; overridable for tests
	Timeout     time.Duration
}

// Client calls the Product Advertising API. Each call is signed with a
// fresh timestamp; rate limiting and retries are the dispatcher's job,
// not the client's.
type Client struct {
	cfg    Config
	signer Signer
	http   *resty.Client
	now    func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://" + cfg.Host
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpc := resty.New()
	httpc.SetBaseURL(cfg.BaseURL)
	httpc.SetTimeout(cfg.Timeout)

	return &Client{
		cfg: cfg,
		signer: Signer{
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Service:   "ProductAdvertisingAPI",
		},
		http: httpc,
		now:  time.Now,
	}
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("amazon api: status %d: %s", e.StatusCode, e.Body)
}

// RateLimited reports whether the upstream throttled the call.
func (e *StatusError) RateLimited() bool { return e.StatusCode == 429 }

// Upstream response schema. Everything below the ASIN is optional; the
// extraction helpers substitute zero price / empty string for missing
// fields rather than failing the batch.
type itemsResponse struct {
	ItemsResult *struct {
		Items []item `json:"Items"`
	} `json:"ItemsResult"`
}

type searchResponse struct {
	SearchResult *struct {
		Items []item `json:"Items"`
	} `json:"SearchResult"`
}

type item struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	ItemInfo      *struct {
		Title *struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
	} `json:"ItemInfo"`
	Images *struct {
		Primary *struct {
			Medium *struct {
				URL string `json:"URL"`
			} `json:"Medium"`
		} `json:"Primary"`
	} `json:"Images"`
	Offers *struct {
		Listings []listing `json:"Listings"`
	} `json:"Offers"`
}

type listing struct {
	Price *struct {
		Amount float64 `json:"Amount"`
	} `json:"Price"`
	SavePrice *struct {
		Amount float64 `json:"Amount"`
	} `json:"SavePrice"`
	DeliveryInfo *struct {
		IsPrimeEligible bool `json:"IsPrimeEligible"`
	} `json:"DeliveryInfo"`
}

func (it item) title() string {
	if it.ItemInfo != nil && it.ItemInfo.Title != nil {
		return it.ItemInfo.Title.DisplayValue
	}
	return ""
}

func (it item) imageURL() string {
	if it.Images != nil && it.Images.Primary != nil && it.Images.Primary.Medium != nil {
		return it.Images.Primary.Medium.URL
	}
	return ""
}

// firstListing returns the item's first offer listing, if any. An item
// with no listing has no purchasable price and is treated as unlisted.
func (it item) firstListing() (listing, bool) {
	if it.Offers == nil || len(it.Offers.Listings) == 0 {
		return listing{}, false
	}
	return it.Offers.Listings[0], true
}

func (l listing) priceAmount() float64 {
	if l.Price != nil {
		return l.Price.Amount
	}
	return 0
}

// GetItems fetches one batch of identifiers and returns price data for
// every identifier the upstream has a listing for. Unlisted identifiers
// are simply absent from the result.
func (c *Client) GetItems(ctx context.Context, asins []string) (map[string]domain.PriceData, error) {
	payload := map[string]any{
		"Operation": "GetItems",
		"ItemIds":   asins,
		"Resources": []string{
			"Images.Primary.Medium",
			"ItemInfo.Title",
			"Offers.Listings.Price",
		},
		"PartnerTag":  c.cfg.PartnerTag,
		"PartnerType": "Associates",
		"Marketplace": c.cfg.Marketplace,
	}

	var parsed itemsResponse
	if err := c.post(ctx, pathGetItems, targetGetItems, payload, &parsed); err != nil {
		return nil, err
	}

	prices := make(map[string]domain.PriceData)
	if parsed.ItemsResult == nil {
		return prices, nil
	}
	for _, it := range parsed.ItemsResult.Items {
		l, ok := it.firstListing()
		if !ok {
			continue
		}
		prices[it.ASIN] = domain.PriceData{
			CurrentPrice: domain.PenceFromFloat(l.priceAmount()),
			Title:        it.title(),
			ImageURL:     it.imageURL(),
		}
	}
	return prices, nil
}

// SearchResult is one keyword-search hit.
type SearchResult struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Price       domain.Pence `json:"price"`
	ImageURL    string       `json:"image_url"`
	URL         string       `json:"url"`
	IsPrime     bool         `json:"is_prime"`
	SavedAmount domain.Pence `json:"saved_amount"`
}

// SearchItems runs a keyword search against the upstream catalog.
func (c *Client) SearchItems(ctx context.Context, keywords string) ([]SearchResult, error) {
	payload := map[string]any{
		"Operation": "SearchItems",
		"Keywords":  keywords,
		"Resources": []string{
			"ItemInfo.Title",
			"Offers.Listings.Price",
			"Images.Primary.Medium",
			"Offers.Listings.DeliveryInfo.IsPrimeEligible",
			"Offers.Listings.SavePrice",
		},
		"ItemCount":   10,
		"PartnerTag":  c.cfg.PartnerTag,
		"PartnerType": "Associates",
		"Marketplace": c.cfg.Marketplace,
	}

	var parsed searchResponse
	if err := c.post(ctx, pathSearchItems, targetSearchItems, payload, &parsed); err != nil {
		return nil, err
	}

	var results []SearchResult
	if parsed.SearchResult == nil {
		return results, nil
	}
	for _, it := range parsed.SearchResult.Items {
		r := SearchResult{
			ID:       it.ASIN,
			Title:    it.title(),
			ImageURL: it.imageURL(),
			URL:      it.DetailPageURL,
		}
		if l, ok := it.firstListing(); ok {
			r.Price = domain.PenceFromFloat(l.priceAmount())
			if l.SavePrice != nil {
				r.SavedAmount = domain.PenceFromFloat(l.SavePrice.Amount)
			}
			if l.DeliveryInfo != nil {
				r.IsPrime = l.DeliveryInfo.IsPrimeEligible
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Client) post(ctx context.Context, path, target string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// Signed against the configured production host; the timestamp is
	// regenerated here so every retry attempt gets a fresh signature.
	headers := c.signer.Sign("POST", path, c.cfg.Host, target, body, c.now())

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("amazon api: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &StatusError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("amazon api: decode response: %w", err)
	}
	return nil
}
