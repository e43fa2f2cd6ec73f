/*
server.go - HTTP router and middleware configuration

PURPOSE:

	Configures the HTTP router (chi), middleware stack, and route definitions.
	This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
 1. RequestID:  Unique ID per request; honours an incoming X-Request-Id
 2. Logger:     Request logging through the handler's slog logger
 3. Recoverer:  Panic recovery (500 instead of crash)
 4. CORS:       Cross-origin requests for the browser UI

ROUTE GROUPS:

	/api/prodhours, /api/prodhoursidx, /api/periods   Calendar reads
	/api/planhours, /api/planrow                      Plan rows
	/api/plans/*                                      Plan headers
	/api/employees/*, /api/compensation               Entities and rates
	/api/calendar/seed                                Calendar generation
	/api/scenarios/*                                  Demo data

SECURITY NOTE:

	No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/planner/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are the origins of the local UI dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. A nil or empty
// allowedOrigins uses DefaultAllowedOrigins.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(h.log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Calendar reads
		r.Get("/prodhours", h.GetProdHours)
		r.Get("/prodhoursidx", h.GetProdHoursIndex)
		r.Get("/periods", h.GetPeriods)
		r.Post("/calendar/seed", h.SeedCalendar)

		// Plan rows
		r.Get("/planhours", h.GetPlanHours)
		r.Route("/planrow", func(r chi.Router) {
			r.Get("/", h.GetPlanRow)
			r.Post("/", h.CreatePlanRow)
			r.Put("/", h.UpdatePlanRow)
			r.Delete("/", h.DeletePlanRow)
		})

		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
			r.Get("/{id}", h.GetPlan)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
		})

		r.Route("/compensation", func(r chi.Router) {
			r.Get("/", h.ListCompensation)
			r.Post("/", h.CreateCompensation)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
