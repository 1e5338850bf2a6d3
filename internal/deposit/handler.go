package deposit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sentriom/sentriom-api/internal/httputil"
	"github.com/sentriom/sentriom-api/internal/logging"
)

// Handler contains HTTP handlers for deposit endpoints
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CreateDepositRequest represents the create-deposit request body
type CreateDepositRequest struct {
	Crypto     string  `json:"crypto"`
	CryptoName string  `json:"cryptoName"`
	Amount     float64 `json:"amount"`
	USDValue   float64 `json:"usdValue"`
	Plan       int     `json:"plan"`
	APY        float64 `json:"apy"`
}

// UpdateStatusRequest represents the webhook status update body
type UpdateStatusRequest struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

// DepositResponse wraps a single deposit
type DepositResponse struct {
	Success bool     `json:"success"`
	Deposit *Deposit `json:"deposit"`
}

// DepositsResponse wraps a deposit list
type DepositsResponse struct {
	Success  bool       `json:"success"`
	Deposits []*Deposit `json:"deposits"`
}

// StatsResponse wraps the dashboard stats
type StatsResponse struct {
	Success bool           `json:"success"`
	Stats   DashboardStats `json:"stats"`
}

// Create handles creating a new pending deposit
// @Summary      Create deposit
// @Description  Record a new locked savings plan. Settlement happens via webhook.
// @Tags         deposits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateDepositRequest true "Deposit details"
// @Success      200 {object} DepositResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing fields"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /deposits [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := httputil.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "access token required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create deposit request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Crypto == "" || req.CryptoName == "" || req.Amount <= 0 || req.USDValue <= 0 || req.Plan <= 0 || req.APY <= 0 {
		httputil.RespondErrorWithCode(w, "all fields are required", httputil.CodeFieldsRequired, http.StatusBadRequest)
		return
	}

	now := time.Now()
	params := CreateParams{
		UserID:           userID,
		Crypto:           req.Crypto,
		CryptoName:       req.CryptoName,
		Amount:           req.Amount,
		USDValue:         req.USDValue,
		PlanMonths:       req.Plan,
		APY:              req.APY,
		PaymentReference: fmt.Sprintf("DEP-%d-%s", now.UnixMilli(), userID),
		MaturityDate:     now.AddDate(0, req.Plan, 0),
	}

	dep, err := h.repo.Create(r.Context(), params)
	if err != nil {
		logger.Error("failed to create deposit", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create deposit", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("deposit created", "deposit_id", dep.ID, "user_id", userID)
	httputil.RespondJSON(w, DepositResponse{Success: true, Deposit: dep}, http.StatusOK)
}

// List handles listing the user's deposits
// @Summary      List deposits
// @Description  Return the authenticated user's deposits, newest first.
// @Tags         deposits
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} DepositsResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /deposits [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := httputil.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "access token required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	deposits, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list deposits", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get deposits", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, DepositsResponse{Success: true, Deposits: deposits}, http.StatusOK)
}

// Get handles fetching a single deposit
// @Summary      Get deposit
// @Description  Return one of the authenticated user's deposits.
// @Tags         deposits
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Deposit ID"
// @Success      200 {object} DepositResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "Deposit not found"
// @Router       /deposits/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := httputil.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "access token required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	depositID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "deposit not found", httputil.CodeDepositNotFound, http.StatusNotFound)
		return
	}

	dep, err := h.repo.GetByIDForUser(r.Context(), depositID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "deposit not found", httputil.CodeDepositNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get deposit", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get deposit", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, DepositResponse{Success: true, Deposit: dep}, http.StatusOK)
}

// UpdateStatus handles the payment-provider webhook. No session auth; the
// provider addresses the deposit by id or payment reference.
// @Summary      Update deposit status
// @Description  Webhook endpoint flipping a deposit's status.
// @Tags         deposits
// @Accept       json
// @Produce      json
// @Param        id path string true "Deposit ID"
// @Param        request body UpdateStatusRequest true "New status"
// @Success      200 {object} map[string]any
// @Failure      400 {object} httputil.ErrorResponse "Missing or invalid status"
// @Failure      404 {object} httputil.ErrorResponse "Deposit not found"
// @Router       /deposits/{id}/status [patch]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid status update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Status == "" {
		httputil.RespondErrorWithCode(w, "status is required", httputil.CodeFieldsRequired, http.StatusBadRequest)
		return
	}
	if !ValidStatus(req.Status) {
		httputil.RespondErrorWithCode(w, "invalid status", httputil.CodeInvalidStatus, http.StatusBadRequest)
		return
	}

	// A non-UUID path id is fine when the webhook addresses the deposit by
	// payment reference instead.
	depositID, _ := uuid.Parse(chi.URLParam(r, "id"))

	if err := h.repo.UpdateStatus(r.Context(), depositID, req.Reference, req.Status); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "deposit not found", httputil.CodeDepositNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update deposit status", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update deposit status", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("deposit status updated", "deposit_id", depositID, "status", req.Status)
	httputil.RespondJSON(w, map[string]any{"success": true, "message": "Deposit status updated"}, http.StatusOK)
}

// DashboardStats handles the user dashboard aggregation
// @Summary      Dashboard stats
// @Description  Aggregate the authenticated user's deposits.
// @Tags         deposits
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} StatsResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /deposits/stats/dashboard [get]
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := httputil.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "access token required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	deposits, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load deposits for stats", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get dashboard stats", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	stats := ComputeDashboardStats(deposits, time.Now())
	httputil.RespondJSON(w, StatsResponse{Success: true, Stats: stats}, http.StatusOK)
}
