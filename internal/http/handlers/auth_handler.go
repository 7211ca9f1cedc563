package handlers

import (
	"errors"
	"time"

	"pricewatch/internal/log"
	"pricewatch/internal/services"
	"pricewatch/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
	}
	return sid
}

type credentialsBody struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// POST /signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return jsonErr(c, 400, "invalid body")
	}
	email, ok := validate.Email(body.Email)
	if !ok {
		log.Security(c, "auth.signup.fail", map[string]any{"reason": "bad_email"})
		return jsonErr(c, 400, "invalid email")
	}
	name, ok := validate.Name(body.Name)
	if !ok {
		return jsonErr(c, 400, "invalid name")
	}
	if !validate.Password(body.Password) {
		return jsonErr(c, 400, "password must be 8-20 chars with upper, lower, digit and symbol")
	}

	u, err := h.Auth.Signup(sid, email, name, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			log.Security(c, "auth.signup.fail", map[string]any{"email": email, "reason": "taken"})
			return jsonErr(c, 409, "email already registered")
		}
		log.Error(c, "auth.signup.error", err, nil)
		return jsonErr(c, 500, "could not create account")
	}

	log.Audit(c, "auth.signup.success", map[string]any{"email": email})
	return jsonOK(c, fiber.Map{"id": u.ID, "email": u.Email, "name": u.Name})
}

// POST /login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return jsonErr(c, 400, "invalid body")
	}
	email, ok := validate.Email(body.Email)
	if !ok || !validate.Password(body.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"email": body.Email, "reason": "bad_format"})
		return jsonErr(c, 401, "invalid email or password")
	}

	u, err := h.Auth.Login(sid, email, body.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return jsonErr(c, 401, "invalid email or password")
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return jsonOK(c, fiber.Map{"id": u.ID, "email": u.Email, "name": u.Name, "role": u.Role})
}

// POST /logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return jsonOK(c, fiber.Map{"loggedOut": true})
}
