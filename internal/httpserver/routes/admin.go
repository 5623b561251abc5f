package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/opphub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/opphub/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/opphub/internal/httpserver/mw"
)

func init() { Register("admin", registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	admin := r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RequireBearer(d.AdminSecret, d.TrustProxy, d.Logger),
	)

	admin.Post("/api/opportunities/refresh", handlers.Refresh(d))
	admin.Post("/api/opportunities/cleanup", handlers.Cleanup(d))
	admin.Delete("/api/opportunities", handlers.DeleteAll(d))
	admin.Delete("/api/opportunities/{id}", handlers.DeleteOne(d))
}
