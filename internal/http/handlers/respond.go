package handlers

import "github.com/gofiber/fiber/v2"

func jsonOK(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"ok": true, "data": data})
}

func jsonErr(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": msg})
}
