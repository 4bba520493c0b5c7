package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealgrid/mealgrid/pkg/auth"
	"github.com/mealgrid/mealgrid/pkg/middleware"
)

func guardedEcho(t *testing.T, guard *middleware.Guard) http.Handler {
	t.Helper()
	return guard.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(middleware.PrincipalID(r.Context())))
	}))
}

func responseMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestGuardRejectsMissingHeader(t *testing.T) {
	guard := middleware.NewGuard(auth.NewIssuer(auth.RoleUser, "s"))

	rec := httptest.NewRecorder()
	guardedEcho(t, guard).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access denied. No token provided.", responseMessage(t, rec))
}

func TestGuardRejectsMalformedScheme(t *testing.T) {
	guard := middleware.NewGuard(auth.NewIssuer(auth.RoleUser, "s"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	guardedEcho(t, guard).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardRejectsBadToken(t *testing.T) {
	guard := middleware.NewGuard(auth.NewIssuer(auth.RoleUser, "s"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	guardedEcho(t, guard).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid token.", responseMessage(t, rec))
}

func TestGuardRejectsOtherRolesToken(t *testing.T) {
	userIssuer := auth.NewIssuer(auth.RoleUser, "user-secret")
	adminGuard := middleware.NewGuard(auth.NewIssuer(auth.RoleAdmin, "admin-secret"))

	token, err := userIssuer.Issue("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guardedEcho(t, adminGuard).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuardAttachesPrincipal(t *testing.T) {
	issuer := auth.NewIssuer(auth.RoleUser, "user-secret")
	guard := middleware.NewGuard(issuer)

	token, err := issuer.Issue("64f0c2a9e13d5a0001020304")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guardedEcho(t, guard).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "64f0c2a9e13d5a0001020304", rec.Body.String())
}
