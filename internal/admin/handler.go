package admin

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sentriom/sentriom-api/internal/auth"
	"github.com/sentriom/sentriom-api/internal/httputil"
	"github.com/sentriom/sentriom-api/internal/logging"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler contains HTTP handlers for the admin endpoints
type Handler struct {
	repo          *Repository
	tokens        auth.TokenService
	logger        *logging.Logger
	adminPassword string
	tokenDuration time.Duration
}

func NewHandler(repo *Repository, tokens auth.TokenService, logger *logging.Logger, adminPassword string, tokenDuration time.Duration) *Handler {
	return &Handler{
		repo:          repo,
		tokens:        tokens,
		logger:        logger,
		adminPassword: adminPassword,
		tokenDuration: tokenDuration,
	}
}

// LoginRequest represents the admin login request body
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse represents the admin login response
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// StatsResponse wraps the platform stats
type StatsResponse struct {
	Success bool      `json:"success"`
	Stats   statsView `json:"stats"`
}

type statsView struct {
	TotalUsers          int    `json:"totalUsers"`
	TotalDeposits       int    `json:"totalDeposits"`
	TotalValue          string `json:"totalValue"`
	PendingDeposits     int    `json:"pendingDeposits"`
	CompletedDeposits   int    `json:"completedDeposits"`
	RecentSignups       int    `json:"recentSignups"`
	RecentDepositsCount int    `json:"recentDepositsCount"`
	RecentDepositsValue string `json:"recentDepositsValue"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type userView struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	FullName       string `json:"fullName"`
	CreatedAt      string `json:"createdAt"`
	DepositCount   int    `json:"depositCount"`
	TotalDeposited string `json:"totalDeposited"`
}

// UsersResponse wraps the paginated user listing
type UsersResponse struct {
	Success    bool       `json:"success"`
	Users      []userView `json:"users"`
	Pagination Pagination `json:"pagination"`
}

type depositView struct {
	ID               string  `json:"id"`
	UserEmail        string  `json:"userEmail"`
	Crypto           string  `json:"crypto"`
	CryptoName       string  `json:"cryptoName"`
	Amount           float64 `json:"amount"`
	USDValue         float64 `json:"usdValue"`
	PlanMonths       int     `json:"planMonths"`
	APY              float64 `json:"apy"`
	Status           string  `json:"status"`
	PaymentReference string  `json:"paymentReference"`
	MaturityDate     string  `json:"maturityDate,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}

// DepositsResponse wraps the paginated deposit listing
type DepositsResponse struct {
	Success    bool          `json:"success"`
	Deposits   []depositView `json:"deposits"`
	Pagination Pagination    `json:"pagination"`
}

// Login handles admin authentication
// @Summary      Admin login
// @Description  Authenticate with the admin password and receive an admin token.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Admin password"
// @Success      200 {object} LoginResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid password"
// @Router       /admin/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid admin login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	// An unset admin password disables admin access entirely.
	if h.adminPassword == "" {
		logger.Warn("admin login rejected: no admin password configured")
		httputil.RespondErrorWithCode(w, "invalid password", httputil.CodeInvalidPassword, http.StatusUnauthorized)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.adminPassword)) != 1 {
		logger.Warn("admin login rejected: wrong password")
		httputil.RespondErrorWithCode(w, "invalid password", httputil.CodeInvalidPassword, http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.CreateAdminToken(h.tokenDuration)
	if err != nil {
		logger.Error("failed to create admin token", "error", err.Error())
		httputil.RespondErrorWithCode(w, "login failed", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("admin logged in")
	httputil.RespondJSON(w, LoginResponse{Success: true, Token: token}, http.StatusOK)
}

// Stats handles the admin dashboard aggregates
// @Summary      Platform stats
// @Description  Totals, pending/completed counts, and 7-day activity.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} StatsResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      403 {object} httputil.ErrorResponse "Admin required"
// @Router       /admin/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		logger.Error("failed to get admin stats", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get stats", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, StatsResponse{
		Success: true,
		Stats: statsView{
			TotalUsers:          stats.TotalUsers,
			TotalDeposits:       stats.TotalDeposits,
			TotalValue:          fmt.Sprintf("%.2f", stats.TotalValue),
			PendingDeposits:     stats.PendingDeposits,
			CompletedDeposits:   stats.CompletedDeposits,
			RecentSignups:       stats.RecentSignups,
			RecentDepositsCount: stats.RecentDepositsCount,
			RecentDepositsValue: fmt.Sprintf("%.2f", stats.RecentDepositsValue),
		},
	}, http.StatusOK)
}

// Users handles the paginated user listing
// @Summary      List users
// @Description  All users with deposit counts and totals, newest first.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number"
// @Param        limit query int false "Page size"
// @Success      200 {object} UsersResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /admin/users [get]
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	page, limit := pageParams(r)
	rows, total, err := h.repo.ListUsers(r.Context(), limit, (page-1)*limit)
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	users := make([]userView, 0, len(rows))
	for _, row := range rows {
		users = append(users, userView{
			ID:             row.ID.String(),
			Email:          row.Email,
			FirstName:      row.FirstName,
			LastName:       row.LastName,
			FullName:       row.FullName,
			CreatedAt:      row.CreatedAt.Format(time.RFC3339),
			DepositCount:   row.DepositCount,
			TotalDeposited: fmt.Sprintf("%.2f", row.TotalDeposited),
		})
	}

	httputil.RespondJSON(w, UsersResponse{
		Success:    true,
		Users:      users,
		Pagination: paginate(page, limit, total),
	}, http.StatusOK)
}

// Deposits handles the paginated deposit listing
// @Summary      List deposits
// @Description  All deposits joined with owner email, optionally filtered by status.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number"
// @Param        limit query int false "Page size"
// @Param        status query string false "Status filter"
// @Success      200 {object} DepositsResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /admin/deposits [get]
func (h *Handler) Deposits(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	page, limit := pageParams(r)
	status := r.URL.Query().Get("status")

	rows, total, err := h.repo.ListDeposits(r.Context(), limit, (page-1)*limit, status)
	if err != nil {
		logger.Error("failed to list deposits", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get deposits", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	deposits := make([]depositView, 0, len(rows))
	for _, row := range rows {
		view := depositView{
			ID:               row.ID.String(),
			UserEmail:        row.UserEmail,
			Crypto:           row.Crypto,
			CryptoName:       row.CryptoName,
			Amount:           row.Amount,
			USDValue:         row.USDValue,
			PlanMonths:       row.PlanMonths,
			APY:              row.APY,
			Status:           row.Status,
			PaymentReference: row.PaymentReference,
			CreatedAt:        row.CreatedAt.Format(time.RFC3339),
		}
		if row.MaturityDate != nil {
			view.MaturityDate = row.MaturityDate.Format(time.RFC3339)
		}
		deposits = append(deposits, view)
	}

	httputil.RespondJSON(w, DepositsResponse{
		Success:    true,
		Deposits:   deposits,
		Pagination: paginate(page, limit, total),
	}, http.StatusOK)
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func paginate(page, limit, total int) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}
