package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"pricewatch/internal/amazon"
	"pricewatch/internal/config"
	"pricewatch/internal/dispatch"
	"pricewatch/internal/http/handlers"
	applog "pricewatch/internal/log"
	"pricewatch/internal/repos"
	"pricewatch/internal/scheduler"
	"pricewatch/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Upstream client and dispatcher
	client := amazon.NewClient(amazon.Config{
		AccessKey:   cfg.AmazonAccessKey,
		SecretKey:   cfg.AmazonSecretKey,
		PartnerTag:  cfg.AmazonPartnerTag,
		Host:        cfg.AmazonHost,
		Region:      cfg.AmazonRegion,
		Marketplace: cfg.AmazonMarketplace,
	})
	mode := dispatch.Strict
	if cfg.DispatchMode == "capped" {
		mode = dispatch.Capped
	}
	dispatcher := dispatch.New(dispatch.Options{
		Mode:        mode,
		MinInterval: cfg.DispatchMinInterval,
		Concurrency: cfg.DispatchConcurrency,
		MaxAttempts: cfg.DispatchMaxAttempts,
	})
	defer dispatcher.Close()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"ok": false, "error": "something went wrong, please try again",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, client, client, dispatcher)

	// Auth routes (login throttled)
	app.Post("/signup", authH.Signup)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"ok": false, "error": "too many attempts, try again later",
			})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Public API
	api := app.Group("/api/v1")
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/products/:id/history", deps.ProductHandler.History)
	api.Get("/search", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.search.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"ok": false, "error": "rate limit exceeded, retry soon",
			})
		},
	}), deps.SearchHandler.Query)

	// Per-user API
	user := api.Group("", handlers.RequireUser(authSvc))
	user.Get("/tracked", deps.TrackingHandler.List)
	user.Post("/tracked", deps.TrackingHandler.Track)
	user.Delete("/tracked/:id", deps.TrackingHandler.Untrack)
	user.Get("/alerts", deps.AlertHandler.List)
	user.Post("/alerts/:id/notified", deps.AlertHandler.MarkNotified)
	user.Delete("/alerts/:id", deps.AlertHandler.Dismiss)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Post("/update-prices", deps.AdminHandler.UpdatePrices)
	admin.Post("/check-prices", deps.AdminHandler.CheckPrices)
	admin.Get("/update-logs", deps.AdminHandler.UpdateLogs)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{"ok": false, "error": "not found"})
	})

	// Background price updates
	ctx, stop := context.WithCancel(context.Background())
	go scheduler.Run(ctx, deps.UpdateService, cfg.UpdateInterval)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		stop()
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
