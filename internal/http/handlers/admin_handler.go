package handlers

import (
	"pricewatch/internal/domain"
	applog "pricewatch/internal/log"
	"pricewatch/internal/repos"
	"pricewatch/internal/services"
	"pricewatch/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Update    *services.UpdateService
	Reconcile *services.ReconcileService
	Products  *repos.ProductRepo
	Logs      *repos.UpdateLogRepo
}

// POST /admin/update-prices runs the full fetch-and-reconcile pipeline.
func (h *AdminHandler) UpdatePrices(c *fiber.Ctx) error {
	summary := h.Update.Run(c.Context())
	applog.Audit(c, "admin.update_prices", map[string]any{
		"success": summary.Success,
		"updated": summary.ProductsUpdated,
	})
	if !summary.Success {
		return c.Status(502).JSON(fiber.Map{"ok": false, "data": summary})
	}
	return jsonOK(c, summary)
}

type checkPricesBody struct {
	Prices map[string]struct {
		CurrentPrice float64 `json:"currentPrice"`
		Title        string  `json:"title"`
		ImageURL     string  `json:"imageUrl"`
	} `json:"prices"`
}

type checkOutcome struct {
	ProductID string       `json:"product_id"`
	OldPrice  domain.Pence `json:"old_price"`
	NewPrice  domain.Pence `json:"new_price"`
	Changed   bool         `json:"changed"`
	Alerted   int          `json:"alerts_created"`
	Error     string       `json:"error,omitempty"`
}

// POST /admin/check-prices reconciles caller-supplied prices, bypassing
// the upstream fetch. Used for backfills and manual corrections.
func (h *AdminHandler) CheckPrices(c *fiber.Ctx) error {
	var body checkPricesBody
	if err := c.BodyParser(&body); err != nil {
		return jsonErr(c, 400, "invalid body")
	}
	if len(body.Prices) == 0 {
		return jsonErr(c, 400, "no prices supplied")
	}

	prices := make(map[string]domain.PriceData, len(body.Prices))
	for id, p := range body.Prices {
		asin, ok := validate.ASIN(id)
		if !ok {
			return jsonErr(c, 400, "invalid product id: "+id)
		}
		if p.CurrentPrice <= 0 {
			return jsonErr(c, 400, "invalid price for "+asin)
		}
		// A manual check may name an identifier the pipeline has never
		// seen; the product row must exist for the update to land.
		if err := h.Products.Ensure(c.Context(), asin, p.Title); err != nil {
			applog.Error(c, "admin.check_prices.ensure", err, map[string]any{"product": asin})
			return jsonErr(c, 500, "could not register product "+asin)
		}
		prices[asin] = domain.PriceData{
			CurrentPrice: domain.PenceFromFloat(p.CurrentPrice),
			Title:        p.Title,
			ImageURL:     p.ImageURL,
		}
	}

	outcomes := h.Reconcile.Reconcile(c.Context(), prices)
	results := make([]checkOutcome, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		r := checkOutcome{
			ProductID: o.ProductID,
			OldPrice:  o.OldPrice,
			NewPrice:  o.NewPrice,
			Changed:   o.Changed,
			Alerted:   o.Alerted,
		}
		if o.Err != nil {
			r.Error = o.Err.Error()
			failed++
		}
		results = append(results, r)
	}

	applog.Audit(c, "admin.check_prices", map[string]any{"products": len(results), "failed": failed})
	return jsonOK(c, fiber.Map{"results": results, "failed": failed})
}

// GET /admin/update-logs
func (h *AdminHandler) UpdateLogs(c *fiber.Ctx) error {
	limit := validate.Limit(c.Query("limit"), 20, 100)
	rows, err := h.Logs.Recent(c.Context(), limit)
	if err != nil {
		applog.Error(c, "admin.update_logs.error", err, nil)
		return jsonErr(c, 500, "could not load update logs")
	}
	return jsonOK(c, rows)
}
