package adminapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAdminAuthDevHeaderFallback(t *testing.T) {
	app := &App{log: zap.NewNop().Sugar()}

	var uid string
	h := app.adminAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid = userID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/cards", nil)
	req.Header.Set("X-User-ID", "dev-user")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev-user", uid)
}

func TestAdminAuthDevRequiresHeader(t *testing.T) {
	app := &App{log: zap.NewNop().Sugar()}
	h := app.adminAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not reach handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/cards", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAuthDevAllowsPreflight(t *testing.T) {
	app := &App{log: zap.NewNop().Sugar()}
	h := app.adminAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/admin/cards", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
