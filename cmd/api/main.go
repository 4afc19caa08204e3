package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rently/rently-api/internal/application/billing"
	infraemail "github.com/rently/rently-api/internal/infrastructure/email"
	infraexact "github.com/rently/rently-api/internal/infrastructure/exact"
	infraopp "github.com/rently/rently-api/internal/infrastructure/opp"
	infrapdf "github.com/rently/rently-api/internal/infrastructure/pdf"
	"github.com/rently/rently-api/internal/infrastructure/postgres"
	httpRouter "github.com/rently/rently-api/internal/interfaces/http"
	"github.com/rently/rently-api/internal/scheduler"
	"github.com/rently/rently-api/pkg/config"
	"github.com/rently/rently-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to PostgreSQL")
	}
	defer pool.Close()

	tenantRepo := postgres.NewTenantRepository(pool)
	renterRepo := postgres.NewRenterRepository(pool)
	propertyRepo := postgres.NewPropertyRepository(pool)
	taxCodeRepo := postgres.NewTaxCodeRepository(pool)
	agreementRepo := postgres.NewAgreementRepository(pool)
	financeRepo := postgres.NewFinanceRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	mortgageRepo := postgres.NewMortgageLineRepository(pool)
	oppAccountRepo := postgres.NewOppAccountRepository(pool)
	exactConnRepo := postgres.NewExactConnectionRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// External integrations.
	exactClient := infraexact.NewClient(cfg.Exact, exactConnRepo, log, nil)
	exactConnector := infraexact.NewConnector(exactClient, log)
	oppClient := infraopp.NewClient(cfg.Opp)
	emailSender := infraemail.NewSendGridSender(cfg.Email, log)
	pdfGenerator := infrapdf.NewPaymentRequestGenerator()

	// Payment channels and the billing core.
	manualChannel := billing.NewManualChannel(emailSender, pdfGenerator, cfg.Email.PaymentTemplateID, log)
	oppChannel := billing.NewOppChannel(oppAccountRepo, oppClient)
	invoiceChannel := billing.NewExactInvoiceChannel(exactConnector, log)

	orchestrator := billing.NewOrchestrator(
		txRunner, agreementRepo, financeRepo,
		tenantRepo, renterRepo, propertyRepo,
		manualChannel, oppChannel, invoiceChannel,
		log, nil,
	)
	sweeper := billing.NewReconciliationSweeper(financeRepo, exactConnector, log, nil)
	mortgageJob := billing.NewMortgagePostingJob(mortgageRepo, ledgerRepo, log, nil)

	agreementUC := billing.NewAgreementUseCase(
		agreementRepo, propertyRepo, renterRepo, taxCodeRepo,
		txRunner, orchestrator, log,
	)
	financeUC := billing.NewFinanceUseCase(financeRepo, agreementRepo)
	mortgageUC := billing.NewMortgageUseCase(mortgageRepo, propertyRepo, nil)

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler, orchestrator, sweeper, mortgageJob, log)
		if err != nil {
			log.Fatal().Err(err).Msg("build scheduler")
		}
		sched.Start()
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Agreements: httpRouter.NewAgreementHandler(agreementUC),
		Finances:   httpRouter.NewFinanceHandler(financeUC),
		Mortgages:  httpRouter.NewMortgageHandler(mortgageUC),
		Exact:      httpRouter.NewExactHandler(exactClient, exactConnector),
		Webhooks:   httpRouter.NewWebhookHandler(financeRepo, oppAccountRepo, oppClient, log, nil),
		Admin:      httpRouter.NewAdminHandler(orchestrator, sweeper, mortgageJob),
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
