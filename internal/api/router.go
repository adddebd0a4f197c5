package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vendhub/vendhub/internal/account"
	"github.com/vendhub/vendhub/internal/admin"
	"github.com/vendhub/vendhub/internal/api/handler"
	"github.com/vendhub/vendhub/internal/api/middleware"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/machinelog"
	"github.com/vendhub/vendhub/internal/report"
	"github.com/vendhub/vendhub/internal/session"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Authority *session.Authority
	Accounts  *account.Service
	Users     account.UserRepository
	Admins    account.AdminRepository
	Machines  machine.Repository
	Logs      machinelog.Repository
	Binding   *machine.BindingService
	Stats     report.Repository
	Oversight *admin.Service
	DBPinger  handler.DBPinger
	Version   string
	Cookie    handler.CookieConfig
}

// NewRouter creates and configures a Chi router with all middleware and
// routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Resolve(deps.Authority, deps.Cookie.Name))

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	accountHandler := handler.NewAccountHandler(deps.Accounts, deps.Users, deps.Cookie)
	r.Route("/account", func(r chi.Router) {
		r.Post("/register", accountHandler.Register)
		r.Post("/login", accountHandler.Login)
		r.Post("/logout", accountHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser())
			r.Get("/me", accountHandler.Me)
			r.Patch("/me", accountHandler.UpdateProfile)
		})
	})

	machineHandler := handler.NewMachineHandler(deps.Machines, deps.Logs, deps.Binding)
	reportHandler := handler.NewReportHandler(deps.Machines, deps.Stats)
	r.Route("/machines", func(r chi.Router) {
		r.Use(middleware.RequireUser())
		r.Get("/", machineHandler.List)
		r.Post("/bind", machineHandler.Bind)
		r.Post("/unbind", machineHandler.Unbind)
		r.Get("/stats", reportHandler.Fleet)
		r.Delete("/{macID}/history", machineHandler.DeleteHistory)
		r.Get("/{macID}/logs", machineHandler.Logs)
		r.Get("/{macID}/warnings", machineHandler.Warnings)
		r.Get("/{macID}/stats/monthly", reportHandler.Monthly)
		r.Get("/{macID}/stats/hourly", reportHandler.Hourly)
		r.Post("/logs/{id}/resolve", machineHandler.Resolve(true))
		r.Post("/logs/{id}/unresolve", machineHandler.Resolve(false))
	})

	ingestHandler := handler.NewIngestHandler(deps.Machines, deps.Logs)
	r.Post("/ingest/logs", ingestHandler.AppendLog)

	adminHandler := handler.NewAdminHandler(deps.Accounts, deps.Admins, deps.Users, deps.Machines, deps.Logs, deps.Oversight, deps.Cookie)
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Post("/logout", accountHandler.Logout)
			r.Post("/create", adminHandler.Create)
			r.Get("/me", adminHandler.Me)
			r.Get("/statistic", adminHandler.Statistic)
			r.Get("/users", adminHandler.GetUser)
			r.Delete("/users", adminHandler.DeleteUser)
			r.Get("/companies", adminHandler.ListCompanies)
			r.Get("/companies/info", adminHandler.CompanyInfo)
			r.Post("/machines", adminHandler.CreateMachine)
			r.Get("/machines/{macID}", adminHandler.GetMachine)
			r.Patch("/machines/{macID}", adminHandler.UpdateMachine)
			r.Delete("/machines/{macID}", adminHandler.DeleteMachine)
			r.Get("/machines/{macID}/logs", adminHandler.GetMachineLogs)
		})
	})

	return r
}
