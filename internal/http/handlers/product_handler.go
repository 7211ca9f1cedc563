package handlers

import (
	"pricewatch/internal/log"
	"pricewatch/internal/services"
	"pricewatch/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Products *services.ProductService
}

// GET /api/v1/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.Products.List(c.Context())
	if err != nil {
		log.Error(c, "products.list.error", err, nil)
		return jsonErr(c, 500, "could not load products")
	}
	return jsonOK(c, products)
}

// GET /api/v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ASIN(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return jsonErr(c, 404, "product not found")
	}
	p, err := h.Products.Get(c.Context(), id)
	if err != nil || p.ID == "" {
		return jsonErr(c, 404, "product not found")
	}
	return jsonOK(c, p)
}

// GET /api/v1/products/:id/history
func (h *ProductHandler) History(c *fiber.Ctx) error {
	id, ok := validate.ASIN(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return jsonErr(c, 404, "product not found")
	}
	limit := validate.Limit(c.Query("limit"), 30, 365)
	snaps, err := h.Products.PriceHistory(c.Context(), id, limit)
	if err != nil {
		log.Error(c, "products.history.error", err, map[string]any{"product": id})
		return jsonErr(c, 500, "could not load price history")
	}
	return jsonOK(c, snaps)
}
