package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps bundles the handlers the router wires up.
type RouterDeps struct {
	Agreements *AgreementHandler
	Finances   *FinanceHandler
	Mortgages  *MortgageHandler
	Exact      *ExactHandler
	Webhooks   *WebhookHandler
	Admin      *AdminHandler
	JWTSecret  string
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Public: provider webhook and the OAuth redirect target. Both are called
	// by external systems that cannot carry our JWT.
	app.Post("/webhooks/opp", deps.Webhooks.HandleOpp)
	api.Get("/exact/callback", deps.Exact.Callback)

	// Protected routes (Bearer token).
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	agreements := protected.Group("/agreements")
	agreements.Post("/", deps.Agreements.Create)
	agreements.Get("/", deps.Agreements.List)
	agreements.Get("/:id", deps.Agreements.GetByID)
	agreements.Post("/:id/end", deps.Agreements.End)
	agreements.Get("/:id/finances", deps.Finances.ListByAgreement)

	finances := protected.Group("/finances")
	finances.Get("/:id", deps.Finances.GetByID)

	mortgages := protected.Group("/mortgages")
	mortgages.Post("/", deps.Mortgages.Create)

	properties := protected.Group("/properties")
	properties.Get("/:id/mortgages", deps.Mortgages.ListByProperty)

	exactGroup := protected.Group("/exact")
	exactGroup.Get("/connect", deps.Exact.Connect)
	exactGroup.Get("/status", deps.Exact.Status)
	exactGroup.Get("/divisions", deps.Exact.Divisions)
	exactGroup.Post("/division", deps.Exact.SelectDivision)
	exactGroup.Get("/vat-codes", deps.Exact.VatCodes)
	exactGroup.Post("/vat-mappings", deps.Exact.SaveVatMappings)
	exactGroup.Post("/auto-send", deps.Exact.SetAutoSend)
	exactGroup.Delete("/", deps.Exact.Disconnect)

	// Manual job triggers (admin only).
	admin := protected.Group("/admin", RequireRole("admin"))
	admin.Post("/run-billing", deps.Admin.RunBilling)
	admin.Post("/run-reconciliation", deps.Admin.RunReconciliation)
	admin.Post("/run-mortgage-posting", deps.Admin.RunMortgagePosting)
}
