package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zero2prod/newsletter/internal/authentication"
	"github.com/zero2prod/newsletter/internal/publish"
	"github.com/zero2prod/newsletter/internal/session"
	"github.com/zero2prod/newsletter/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	pgStore *store.PostgresStore,
	sessions *session.Store,
	auth *authentication.Authenticator,
	publisher *publish.Publisher,
	emailClient EmailClient,
	baseURL string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	subHandler := NewSubscriptionHandler(pgStore, emailClient, baseURL, logger)
	authHandler := NewAuthHandler(auth, sessions, logger)
	adminHandler := NewAdminHandler(pgStore, auth, sessions, logger)
	newsletterHandler := NewNewsletterHandler(publisher, sessions, logger)

	r.Get("/health_check", HealthHandler())

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		renderPage(w, "home", nil)
	})

	r.Post("/subscriptions", subHandler.Subscribe)
	r.Get("/subscriptions/confirm", subHandler.Confirm)

	r.Get("/login", authHandler.LoginForm)
	r.Post("/login", authHandler.Login)

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth(sessions))

		r.Get("/dashboard", adminHandler.Dashboard)
		r.Get("/password", adminHandler.PasswordForm)
		r.Post("/password", adminHandler.ChangePassword)
		r.Post("/logout", authHandler.Logout)

		r.Get("/newsletters", newsletterHandler.Form)
		r.Post("/newsletters", newsletterHandler.Publish)
	})

	return r
}
