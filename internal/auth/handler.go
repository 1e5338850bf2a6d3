package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sentriom/sentriom-api/internal/httputil"
	"github.com/sentriom/sentriom-api/internal/logging"
	"github.com/sentriom/sentriom-api/internal/ratelimit"
	"github.com/sentriom/sentriom-api/internal/user"
)

// Handler contains HTTP handlers for the OTP authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
	exposeOTP   bool
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger, exposeOTP bool) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
		exposeOTP:   exposeOTP,
	}
}

// SendOTPRequest represents the login send-otp request body
type SendOTPRequest struct {
	Email string `json:"email"`
}

// SignupSendOTPRequest represents the signup send-otp request body
type SignupSendOTPRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// VerifyOTPRequest represents the verify-otp request body
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
}

// SendOTPResponse represents the send-otp response
type SendOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// OTP is echoed only when debug fields are enabled (dev mode).
	OTP string `json:"otp,omitempty"`
}

// VerifyOTPResponse represents the verify-otp response
type VerifyOTPResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// LogoutResponse represents the logout response
type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginSendOTP handles sending a login code
// @Summary      Send login OTP
// @Description  Generate a one-time code for an existing account and email it.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SendOTPRequest true "Account email"
// @Success      200 {object} SendOTPResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing email"
// @Failure      404 {object} httputil.ErrorResponse "No account for email"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Delivery failed (strict mode)"
// @Router       /auth/login/send-otp [post]
func (h *Handler) LoginSendOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimitedSend(w, r, "login") {
		return
	}

	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid send-otp request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if h.emailOnCooldown(w, r, req.Email) {
		return
	}

	otp, err := h.service.SendLoginOTP(r.Context(), req.Email)
	if err != nil {
		h.respondSendError(w, logger, err)
		return
	}

	h.startEmailCooldown(r, req.Email)
	logger.Info("login otp sent")
	h.respondOTPSent(w, otp)
}

// SignupSendOTP handles account creation plus the first code
// @Summary      Send signup OTP
// @Description  Create a new account and email its first one-time code.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupSendOTPRequest true "Signup details"
// @Success      200 {object} SendOTPResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing or malformed fields"
// @Failure      409 {object} httputil.ErrorResponse "Email already registered"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Delivery failed (strict mode)"
// @Router       /auth/signup/send-otp [post]
func (h *Handler) SignupSendOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimitedSend(w, r, "signup") {
		return
	}

	var req SignupSendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup send-otp request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if h.emailOnCooldown(w, r, req.Email) {
		return
	}

	otp, err := h.service.SendSignupOTP(r.Context(), req.Email, req.FirstName, req.LastName)
	if err != nil {
		h.respondSendError(w, logger, err)
		return
	}

	h.startEmailCooldown(r, req.Email)
	logger.Info("signup otp sent")
	h.respondOTPSent(w, otp)
}

// VerifyOTP handles code verification for both login and signup flows
// @Summary      Verify OTP
// @Description  Verify a one-time code and receive a session token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyOTPRequest true "Email and code"
// @Success      200 {object} VerifyOTPResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing fields"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired code"
// @Failure      404 {object} httputil.ErrorResponse "No account for email"
// @Router       /auth/login/verify-otp [post]
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify-otp request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	session, err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, ErrFieldsRequired):
			logger.Warn("verification failed: missing fields")
			respondError(w, "email and OTP are required", httputil.CodeFieldsRequired, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			logger.Warn("verification failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrInvalidOTP):
			logger.Warn("verification failed: invalid otp")
			respondError(w, "invalid OTP", httputil.CodeInvalidOTP, http.StatusUnauthorized)
		case errors.Is(err, ErrOTPExpired):
			logger.Warn("verification failed: otp expired")
			respondError(w, "OTP expired", httputil.CodeOTPExpired, http.StatusUnauthorized)
		default:
			logger.Error("verification failed: internal error", "error", err.Error())
			respondError(w, "failed to verify OTP", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("otp verified, session issued", "user_id", session.User.ID)

	respondJSON(w, VerifyOTPResponse{
		Success: true,
		Token:   session.Token,
		User: UserResponse{
			ID:        session.User.ID,
			Email:     session.User.Email,
			FirstName: session.User.FirstName,
			LastName:  session.User.LastName,
			FullName:  session.User.FullName,
		},
	}, http.StatusOK)
}

// Logout handles session revocation
// @Summary      Logout
// @Description  Revoke the session bound to the bearer token. Idempotent.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} LogoutResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := bearerToken(r)
	if token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			// Still report success; the client is logged out either way.
			logger.Warn("failed to revoke session", "error", err.Error())
		}
	}

	logger.Info("user logged out")
	respondJSON(w, LogoutResponse{Success: true, Message: "Logged out successfully"}, http.StatusOK)
}

// rateLimitedSend applies the per-IP limit for OTP send endpoints. Redis
// failures never block the request.
func (h *Handler) rateLimitedSend(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check ip rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("ip rate limit exceeded", "ip", ip, "purpose", purpose)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record ip request", "error", err.Error())
	}

	return false
}

// emailOnCooldown applies the per-email resend cooldown. Fail-open like
// the IP limit: a Redis error never blocks the send.
func (h *Handler) emailOnCooldown(w http.ResponseWriter, r *http.Request, email string) bool {
	if email == "" {
		return false
	}
	logger := logging.GetLoggerFromContext(r.Context())

	active, err := h.rateLimiter.CheckEmailCooldown(r.Context(), email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
		return false
	}
	if active {
		logger.Warn("email cooldown active", "email", email)
		respondError(w, "please wait before requesting another code", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return true
	}
	return false
}

func (h *Handler) startEmailCooldown(r *http.Request, email string) {
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), email); err != nil {
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("failed to set email cooldown", "error", err.Error())
	}
}

func (h *Handler) respondOTPSent(w http.ResponseWriter, otp string) {
	resp := SendOTPResponse{
		Success: true,
		Message: "OTP sent successfully",
	}
	if h.exposeOTP {
		resp.OTP = otp
	}
	respondJSON(w, resp, http.StatusOK)
}

func (h *Handler) respondSendError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, ErrEmailRequired):
		logger.Warn("send-otp failed: email required")
		respondError(w, "email is required", httputil.CodeEmailRequired, http.StatusBadRequest)
	case errors.Is(err, ErrFieldsRequired):
		logger.Warn("send-otp failed: missing fields")
		respondError(w, "all fields are required", httputil.CodeFieldsRequired, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidEmailFormat):
		logger.Warn("send-otp failed: invalid email format")
		respondError(w, "invalid email format", httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
	case errors.Is(err, user.ErrNotFound):
		logger.Warn("send-otp failed: user not found")
		respondError(w, "user not found, please sign up first", httputil.CodeUserNotFound, http.StatusNotFound)
	case errors.Is(err, user.ErrDuplicateEmail):
		logger.Warn("send-otp failed: email already registered")
		respondError(w, "user already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
	case errors.Is(err, ErrDeliveryFailed):
		logger.Error("send-otp failed: delivery failure", "error", err.Error())
		respondError(w, "failed to send OTP", httputil.CodeDeliveryFailed, http.StatusInternalServerError)
	default:
		logger.Error("send-otp failed: internal error", "error", err.Error())
		respondError(w, "failed to send OTP", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// bearerToken extracts the token from the Authorization header, or "".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port"
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
