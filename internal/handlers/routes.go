package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ratwatch/sighting-api/internal/auth"
)

var secured = func(o *huma.Operation) {
	o.Security = []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}}
}

func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, sightings *SightingHandler, users *UserHandler, board *LeaderboardHandler) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Protected routes. The Huma API lives on the authenticated subrouter so
	// every operation passes through the middleware.
	r.Route("/api", func(r chi.Router) {
		r.Use(authHandler.AuthMiddleware)

		config := huma.DefaultConfig("Sighting API", "1.0.0")
		config.Servers = []*huma.Server{{URL: "/api"}}
		config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
			"bearerAuth": {
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
			"cookieAuth": {
				Type: "apiKey",
				In:   "cookie",
				Name: "auth_token",
			},
		}
		api := humachi.New(r, config)

		huma.Post(api, "/sightings", sightings.HandleSubmit, secured, func(o *huma.Operation) {
			o.DefaultStatus = http.StatusCreated
		})
		huma.Get(api, "/sightings/nearby", sightings.HandleNearby, secured)
		huma.Get(api, "/sightings/stats", sightings.HandleStats, secured)
		huma.Get(api, "/users/me", users.HandleMe, secured)
		huma.Get(api, "/users/achievements", users.HandleAchievements, secured)
		huma.Get(api, "/leaderboard", board.HandleLeaderboard, secured)
	})
}
