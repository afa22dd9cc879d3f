package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nekogravitycat/lodging-booking-backend/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, p Pinger) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	jwtManager := auth.NewJWTManager("test-secret", time.Minute)
	return NewRouter(Config{JWTManager: jwtManager, Health: p}), jwtManager
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t, stubPinger{})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "").Code)

	r, _ = newTestRouter(t, stubPinger{err: errors.New("down")})
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/healthz", "").Code)
}

func TestMe(t *testing.T) {
	r, jwtManager := newTestRouter(t, nil)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/me", "").Code)

	token, err := jwtManager.GenerateAccessToken("user-1", auth.RoleAdmin)
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/v1/me", token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, MeResponse{UserID: "user-1", Role: auth.RoleAdmin}, resp)
}

func TestAdminRoutesRejectGuests(t *testing.T) {
	r, jwtManager := newTestRouter(t, nil)

	token, err := jwtManager.GenerateAccessToken("guest-1", auth.RoleGuest)
	require.NoError(t, err)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/promotions"},
		{http.MethodPost, "/v1/promotions"},
		{http.MethodGet, "/v1/price-rules"},
		{http.MethodPost, "/v1/units"},
		{http.MethodDelete, "/v1/bookings/8d5c2b1e-3f4a-4b6c-9d7e-1a2b3c4d5e6f"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			assert.Equal(t, http.StatusForbidden, do(r, tc.method, tc.path, token).Code)
		})
	}
}

func TestRecoveryLogsPanic(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(RequestLogger(logger), Recovery(logger))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestCORSProductionOrigins(t *testing.T) {
	cfg := corsConfig(true, "https://a.example.com, https://b.example.com")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowOrigins)
	require.NoError(t, cfg.Validate())

	closed := corsConfig(true, "")
	require.NoError(t, closed.Validate())
	assert.False(t, closed.AllowOriginFunc("https://evil.example.com"))
}
