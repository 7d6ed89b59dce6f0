package api

import (
	"net/http"

	"github.com/dklimov/circles/internal/api/handler"
	"github.com/dklimov/circles/internal/api/middleware"
	"github.com/dklimov/circles/internal/auth"
	"github.com/dklimov/circles/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(groups *service.GroupService, verifier auth.Verifier) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes (auth required, JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Auth(verifier))

		groupHandler := handler.NewGroupHandler(groups)
		r.Post("/groups", groupHandler.Create)
		r.Get("/groups", groupHandler.List)
		r.Get("/groups/me", groupHandler.ListMine)

		r.Route("/groups/{group_id}", func(r chi.Router) {
			r.Get("/", groupHandler.Get)
			r.Patch("/", groupHandler.Update)
			r.Delete("/", groupHandler.Delete)

			// Members. Admission happens only through group creation and
			// accepted join requests; there is no direct insert route.
			memberHandler := handler.NewMemberHandler(groups)
			r.Get("/members", memberHandler.List)
			r.Get("/members/{member_id}", memberHandler.Get)
			r.Patch("/members/{member_id}", memberHandler.Update)
			r.Delete("/members/{member_id}", memberHandler.Delete)
			r.Put("/owner", memberHandler.ChangeOwner)
			r.Post("/leave", memberHandler.Leave)

			// Join requests
			requestHandler := handler.NewRequestHandler(groups)
			r.Post("/requests", requestHandler.Create)
			r.Get("/requests", requestHandler.List)
			r.Get("/requests/{request_id}", requestHandler.Get)
			r.Patch("/requests/{request_id}", requestHandler.Update)
			r.Delete("/requests/{request_id}", requestHandler.Delete)
		})

		// Caller's own pending requests across groups
		requestHandler := handler.NewRequestHandler(groups)
		r.Get("/requests/me", requestHandler.ListMine)
	})

	return r
}
