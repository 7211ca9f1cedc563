package handlers

import (
	"time"

	"pricewatch/internal/log"
	"pricewatch/internal/repos"
	"pricewatch/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AlertHandler struct {
	Alerts *repos.AlertRepo
}

// GET /api/v1/alerts
func (h *AlertHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	limit := validate.Limit(c.Query("limit"), 50, 200)
	alerts, err := h.Alerts.ForUser(c.Context(), u.ID, limit)
	if err != nil {
		log.Error(c, "alerts.list.error", err, nil)
		return jsonErr(c, 500, "could not load alerts")
	}
	return jsonOK(c, alerts)
}

// POST /api/v1/alerts/:id/notified
func (h *AlertHandler) MarkNotified(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonErr(c, 404, "alert not found")
	}
	done, err := h.Alerts.MarkNotified(c.Context(), id, u.ID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		log.Error(c, "alerts.notify.error", err, map[string]any{"alert": id})
		return jsonErr(c, 500, "could not update alert")
	}
	if !done {
		return jsonErr(c, 404, "alert not found")
	}
	log.Audit(c, "alerts.notify", map[string]any{"alert": id})
	return jsonOK(c, fiber.Map{"id": id})
}

// DELETE /api/v1/alerts/:id
func (h *AlertHandler) Dismiss(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonErr(c, 404, "alert not found")
	}
	done, err := h.Alerts.Delete(c.Context(), id, u.ID)
	if err != nil {
		log.Error(c, "alerts.dismiss.error", err, map[string]any{"alert": id})
		return jsonErr(c, 500, "could not dismiss alert")
	}
	if !done {
		return jsonErr(c, 404, "alert not found")
	}
	log.Audit(c, "alerts.dismiss", map[string]any{"alert": id})
	return jsonOK(c, fiber.Map{"id": id})
}
