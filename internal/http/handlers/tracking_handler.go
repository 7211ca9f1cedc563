package handlers

import (
	"pricewatch/internal/log"
	"pricewatch/internal/services"
	"pricewatch/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type TrackingHandler struct {
	Tracking *services.TrackingService
}

type trackBody struct {
	ProductID      string `json:"productId"`
	Title          string `json:"title"`
	PriceThreshold string `json:"priceThreshold"`
}

// GET /api/v1/tracked
func (h *TrackingHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	rows, err := h.Tracking.List(c.Context(), u.ID)
	if err != nil {
		log.Error(c, "tracking.list.error", err, nil)
		return jsonErr(c, 500, "could not load tracked products")
	}
	return jsonOK(c, rows)
}

// POST /api/v1/tracked
func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	u := currentUser(c)
	var body trackBody
	if err := c.BodyParser(&body); err != nil {
		return jsonErr(c, 400, "invalid body")
	}
	id, ok := validate.ASIN(body.ProductID)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return jsonErr(c, 400, "invalid product id")
	}
	threshold, ok := validate.Threshold(body.PriceThreshold)
	if !ok {
		return jsonErr(c, 400, "invalid price threshold")
	}

	if err := h.Tracking.Track(c.Context(), u.ID, id, body.Title, threshold); err != nil {
		log.Error(c, "tracking.add.error", err, map[string]any{"product": id})
		return jsonErr(c, 500, "could not track product")
	}
	log.Audit(c, "tracking.add", map[string]any{"product": id})
	return jsonOK(c, fiber.Map{"productId": id})
}

// DELETE /api/v1/tracked/:id
func (h *TrackingHandler) Untrack(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ASIN(c.Params("id"))
	if !ok {
		return jsonErr(c, 404, "product not found")
	}
	if err := h.Tracking.Untrack(c.Context(), u.ID, id); err != nil {
		log.Error(c, "tracking.remove.error", err, map[string]any{"product": id})
		return jsonErr(c, 500, "could not untrack product")
	}
	log.Audit(c, "tracking.remove", map[string]any{"product": id})
	return jsonOK(c, fiber.Map{"productId": id})
}
