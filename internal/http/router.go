package http

import (
	"log"
	"net/http"

	"github.com/sentriom/sentriom-api/internal/admin"
	"github.com/sentriom/sentriom-api/internal/auth"
	"github.com/sentriom/sentriom-api/internal/config"
	"github.com/sentriom/sentriom-api/internal/deposit"
	"github.com/sentriom/sentriom-api/internal/httputil"
	"github.com/sentriom/sentriom-api/internal/logging"
	"github.com/sentriom/sentriom-api/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers collects the per-domain HTTP handlers the router wires up.
type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Deposit *deposit.Handler
	Admin   *admin.Handler
	AuthMW  *auth.Middleware
	AdminMW *admin.Middleware
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
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

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		log.Println("Swagger UI disabled (production mode)")
	}

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login/send-otp", h.Auth.LoginSendOTP)
		r.Post("/login/resend-otp", h.Auth.LoginSendOTP)
		r.Post("/login/verify-otp", h.Auth.VerifyOTP)
		r.Post("/signup/send-otp", h.Auth.SignupSendOTP)
		r.Post("/signup/resend-otp", h.Auth.SignupSendOTP)
		r.Post("/signup/verify-otp", h.Auth.VerifyOTP)
		r.Post("/logout", h.Auth.Logout)
	})

	// Payment provider webhook; authenticated by reference, not by session
	r.Patch("/deposits/{id}/status", h.Deposit.UpdateStatus)

	// Protected routes (require a live session)
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMW.RequireAuth)

		r.Get("/users/me", h.User.Me)
		r.Patch("/users/me", h.User.UpdateMe)

		r.Route("/deposits", func(r chi.Router) {
			r.Post("/", h.Deposit.Create)
			r.Get("/", h.Deposit.List)
			r.Get("/stats/dashboard", h.Deposit.DashboardStats)
			r.Get("/{id}", h.Deposit.Get)
		})
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.Admin.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.AdminMW.RequireAdmin)
			r.Get("/stats", h.Admin.Stats)
			r.Get("/users", h.Admin.Users)
			r.Get("/deposits", h.Admin.Deposits)
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
