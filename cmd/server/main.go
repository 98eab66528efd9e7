package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/venuehq/ticket-gate/internal/config"
	"github.com/venuehq/ticket-gate/internal/database"
	"github.com/venuehq/ticket-gate/internal/handler"
	"github.com/venuehq/ticket-gate/internal/repository"
	"github.com/venuehq/ticket-gate/internal/router"
	"github.com/venuehq/ticket-gate/internal/service"
)

func main() {
	// A missing .env is fine in production; config.Load enforces the
	// required variables either way.
	_ = godotenv.Load()
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	tickets := repository.NewTicketRepo(db)
	payments := repository.NewPaymentRepo(db)
	scanners := repository.NewScannerRepo(db)

	var audit service.AuditPublisher = service.NopAuditPublisher{}
	if cfg.AmqpURL != "" {
		audit = service.NewAmqpAuditPublisher(cfg.AmqpURL, logger)
	}

	auth := service.NewScannerAuth(logger, scanners, audit, cfg.JWTSecret, cfg.ScannerTokenTTL, cfg.BcryptCost)
	validation := service.NewValidation(logger, tickets, scanners, audit, cfg.StoreTimeout)
	ticketSvc := service.NewTicketService(logger, tickets, cfg.PublicBaseURL)
	paymentSvc := service.NewPaymentService(logger, payments, tickets)

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterOps(e)
	router.RegisterScanner(e,
		handler.NewScannerHandler(auth),
		handler.NewValidationHandler(validation),
		auth,
		config.LoadRateLimitConfig(), rdb)
	router.RegisterPurchaser(e,
		handler.NewTicketHandler(ticketSvc),
		handler.NewPaymentHandler(paymentSvc),
		auth, cfg.WebhookSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
