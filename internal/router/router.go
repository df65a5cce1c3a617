package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/animeverse-dev/animeverse/internal/domain"
	"github.com/animeverse-dev/animeverse/internal/middleware"
	"github.com/animeverse-dev/animeverse/internal/middleware/metrics"
	"github.com/animeverse-dev/animeverse/internal/middleware/ratelimiter"
	"github.com/animeverse-dev/animeverse/internal/setup"
)

// New builds the HTTP router. Access tiers per route group:
// anime comment reads are public, episode comments need a session,
// the staff channel and user administration need staff roles.
func New(deps *setup.Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// JSON API only, nothing executable is ever served.
	apiCSP := "default-src 'none'; frame-ancestors 'none'"
	r.Use(middleware.SecurityHeadersWithCSP(deps.Config.Public.SecureCookies, apiCSP))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(auth chi.Router) {
			// Credential endpoints are throttled per email and per source IP.
			auth.Group(func(limited chi.Router) {
				limited.Use(middleware.RateLimit(ratelimiter.New(5.0/600, 5, time.Hour), middleware.GetEmailFromBody))
				limited.Use(middleware.RateLimit(ratelimiter.PerSecond(), middleware.GetIP))
				limited.Use(middleware.GlobalRateLimit(ratelimiter.Rps100()))
				limited.Post("/register", h.Register)
				limited.Post("/login", h.Login)
			})
			auth.Post("/logout", h.Logout)
		})

		// Member pages are public, like anime comment feeds.
		v1.Get("/profiles/{username}", h.GetProfile)

		v1.Route("/users", func(users chi.Router) {
			users.Group(func(me chi.Router) {
				me.Use(authMw.NeedAuth())
				me.Get("/me", h.Me)
				me.Patch("/me", h.UpdateMe)
			})

			users.Group(func(staff chi.Router) {
				staff.Use(authMw.StaffOnly())
				staff.Get("/", h.ListUsers)
				staff.Get("/{userId}", h.GetUser)
			})

			users.Group(func(admin chi.Router) {
				admin.Use(authMw.MinRole(domain.RoleCoOwner))
				admin.Patch("/{userId}/role", h.UpdateUserRole)
				admin.Patch("/{userId}/status", h.UpdateUserStatus)
				admin.Delete("/{userId}", h.DeleteUser)
			})
		})

		v1.Route("/animes/{animeId}/comments", func(c chi.Router) {
			c.Get("/", h.ListAnimeComments)

			c.Group(func(auth chi.Router) {
				auth.Use(authMw.NeedAuth())
				auth.Post("/", h.PostAnimeComment)
				auth.Patch("/{commentId}", h.EditAnimeComment)
				auth.Delete("/{commentId}", h.DeleteAnimeComment)
			})
		})

		v1.Route("/episodes/{episodeId}/comments", func(c chi.Router) {
			c.Use(authMw.NeedAuth())
			c.Get("/", h.ListEpisodeComments)
			c.Post("/", h.PostEpisodeComment)
			c.Patch("/{commentId}", h.EditEpisodeComment)
			c.Delete("/{commentId}", h.DeleteEpisodeComment)
		})

		v1.Route("/staff-chat", func(c chi.Router) {
			c.Use(authMw.StaffOnly())
			c.Get("/", h.ListStaffMessages)
			c.Post("/", h.PostStaffMessage)
			c.Patch("/{commentId}", h.EditStaffMessage)
			c.Delete("/{commentId}", h.DeleteStaffMessage)
		})
	})

	r.MethodFunc(http.MethodOptions, "/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
