package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ignite/budget-escalator/internal/pkg/httputil"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, health *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Binary", "cmd/server")
			next.ServeHTTP(w, req)
		})
	})

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httputil.NotFound(w, "no route for "+req.Method+" "+req.URL.Path)
	})

	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/live", health.HandleLiveness)
		r.Get("/health/ready", health.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Post("/", h.CreateClient)
			r.Get("/", h.ListClients)

			r.Route("/{clientID}", func(r chi.Router) {
				r.Get("/", h.GetClient)
				r.Get("/campaigns", h.ListClientCampaigns)
				r.Put("/campaigns/order", h.ReorderCampaigns)

				r.Get("/bulk/plan", h.PlanBulkAdvance)
				r.Post("/bulk/advance", h.BulkAdvance)
				r.Post("/bulk/rollback", h.BulkRollback)

				r.Get("/report", h.GetReport)
				r.Post("/report/export", h.ExportReport)
			})
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.CreateCampaign)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Delete("/", h.PermanentlyDelete)
				r.Get("/overview", h.GetOverview)
				r.Get("/schedule", h.GetSchedule)
				r.Get("/records", h.GetRecords)
				r.Get("/records/label", h.GetLabelRecord)
				r.Delete("/records/label", h.RemoveLabelRecord)
				r.Get("/adjustments", h.GetAdjustments)
				r.Put("/rate", h.SetRate)

				r.Post("/advance", h.Advance)
				r.Post("/advance/custom", h.AdvanceCustom)
				r.Get("/advance/suggest", h.SuggestSplit)
				r.Post("/rollback", h.Rollback)

				r.Post("/pause", h.Pause)
				r.Post("/resume", h.transition(h.svc.Resume))
				r.Post("/complete", h.transition(h.svc.Complete))
				r.Post("/archive", h.transition(h.svc.Archive))
				r.Post("/delete", h.transition(h.svc.SoftDelete))
				r.Post("/restore", h.transition(h.svc.Restore))
			})
		})
	})

	return r
}
