package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yashikart/gurukul-backend--sub000/internal/api"
	apiMiddleware "github.com/yashikart/gurukul-backend--sub000/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	subjectHandler := api.NewSubjectHandler(
		app.subjectService,
		app.lifecycleService,
		app.networkService,
	)
	karmaHandler := api.NewKarmaHandler(app.karmaService)
	debtHandler := api.NewDebtHandler(app.debtService)
	decisionHandler := api.NewDecisionHandler(app.gate)
	healthHandler := api.NewHealthHandler(app.authorityClient, app.gate.SafeMode)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Decision callbacks are authenticated by nonce matching: a
		// decision for an unknown or already-consumed nonce is rejected.
		r.Post("/authority/decisions", decisionHandler.Resolve)

		// Read-only endpoints stay available while the authority is down.
		r.Get("/subjects/{id}", subjectHandler.Get)
		r.Get("/subjects/{id}/death-check", subjectHandler.DeathCheck)
		r.Get("/subjects/{id}/network", subjectHandler.Network)

		// Mutating endpoints require an operator token.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/subjects", subjectHandler.Create)
			r.Post("/subjects/{id}/death", subjectHandler.ProcessDeath)
			r.Post("/subjects/{id}/rebirth", subjectHandler.Rebirth)

			r.Post("/karma/evaluate", karmaHandler.Evaluate)

			r.Post("/debts", debtHandler.Create)
			r.Post("/debts/{id}/repay", debtHandler.Repay)
			r.Post("/debts/{id}/transfer", debtHandler.Transfer)
		})
	})

	r.Get("/health", healthHandler.Health)

	return r
}
