package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/spielrunde/cardtable/internal/admin"
	"github.com/spielrunde/cardtable/internal/auth"
	"github.com/spielrunde/cardtable/internal/config"
	"github.com/spielrunde/cardtable/internal/game"
	"github.com/spielrunde/cardtable/internal/httputil"
	"github.com/spielrunde/cardtable/internal/logging"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	adminHandler *admin.Handler,
	gameHandler *game.Handler,
	authMiddleware *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/verify-email", authHandler.VerifyEmail)
	r.Post("/resend-verification", authHandler.ResendVerificationEmail)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Post("/reset-password", authHandler.ResetPassword)

	// Protected routes (require a live session; ban and verification state are
	// re-checked on every request)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Post("/logout", authHandler.Logout)
		r.Get("/user", authHandler.CurrentUser)
		r.Get("/user/role", authHandler.CheckRole)
		r.Post("/user/change-password", authHandler.ChangePassword)

		r.Get("/game/players", gameHandler.ListPlayers)
		r.Post("/game/draft", gameHandler.SubmitDraft)

		// Admin routes (admin role required)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware.RequireAdmin)

			r.Get("/users", adminHandler.ListUsers)
			r.Patch("/users/{id}/role", adminHandler.UpdateRole)
			r.Patch("/users/{id}/ban", adminHandler.Ban)
			r.Patch("/users/{id}/unban", adminHandler.Unban)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
