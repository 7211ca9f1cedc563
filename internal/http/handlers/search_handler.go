package handlers

import (
	"strings"

	"pricewatch/internal/amazon"
	"pricewatch/internal/log"
	"pricewatch/internal/services"
	"pricewatch/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Search *services.SearchService
}

// GET /api/v1/search?q=keywords
func (h *SearchHandler) Query(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		return jsonOK(c, []amazon.SearchResult{})
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return jsonErr(c, 400, "enter a valid keyword (letters/numbers only)")
	}

	results, err := h.Search.Search(c.Context(), q)
	if err != nil {
		log.Error(c, "search.error", err, map[string]any{"q": q})
		return jsonErr(c, 502, "search is temporarily unavailable")
	}
	return jsonOK(c, results)
}
