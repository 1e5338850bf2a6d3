package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentriom/sentriom-api/internal/auth"
	"github.com/sentriom/sentriom-api/internal/httputil"
	"github.com/sentriom/sentriom-api/internal/logging"

	"github.com/google/uuid"
)

func newTokenService(t *testing.T) *auth.PasetoService {
	t.Helper()
	svc, err := auth.NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return svc
}

func postLogin(t *testing.T, h *Handler, password string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(LoginRequest{Password: password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLogin_CorrectPasswordIssuesAdminToken(t *testing.T) {
	tokens := newTokenService(t)
	h := NewHandler(nil, tokens, logging.NewLogger(true), "hunter2", 24*time.Hour)

	rec := postLogin(t, h, "hunter2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	claims, err := tokens.VerifyToken(resp.Token)
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	h := NewHandler(nil, newTokenService(t), logging.NewLogger(true), "hunter2", 24*time.Hour)

	rec := postLogin(t, h, "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, httputil.CodeInvalidPassword, resp.Code)
}

func TestLogin_UnsetPasswordDisablesAdminAccess(t *testing.T) {
	h := NewHandler(nil, newTokenService(t), logging.NewLogger(true), "", 24*time.Hour)

	// Even an empty submitted password is rejected when none is configured
	rec := postLogin(t, h, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin_AllowsAdminToken(t *testing.T) {
	tokens := newTokenService(t)
	mw := NewMiddleware(tokens)

	token, err := tokens.CreateAdminToken(time.Hour)
	require.NoError(t, err)

	var reached bool
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, reached)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin_RejectsUserToken(t *testing.T) {
	tokens := newTokenService(t)
	mw := NewMiddleware(tokens)

	token, err := tokens.CreateToken(uuid.New(), "jane@example.com", time.Hour)
	require.NoError(t, err)

	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("user token must not reach admin routes")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, httputil.CodeAdminRequired, resp.Code)
}

func TestRequireAdmin_RejectsMissingAndGarbageTokens(t *testing.T) {
	mw := NewMiddleware(newTokenService(t))
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unauthenticated request must not pass")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPageParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	page, limit := pageParams(req)
	require.Equal(t, 1, page)
	require.Equal(t, defaultPageSize, limit)

	req = httptest.NewRequest(http.MethodGet, "/admin/users?page=3&limit=50", nil)
	page, limit = pageParams(req)
	require.Equal(t, 3, page)
	require.Equal(t, 50, limit)

	req = httptest.NewRequest(http.MethodGet, "/admin/users?page=-1&limit=9999", nil)
	page, limit = pageParams(req)
	require.Equal(t, 1, page)
	require.Equal(t, maxPageSize, limit)
}

func TestPaginate(t *testing.T) {
	p := paginate(2, 20, 45)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 45, p.Total)

	p = paginate(1, 20, 0)
	require.Equal(t, 0, p.TotalPages)
}
