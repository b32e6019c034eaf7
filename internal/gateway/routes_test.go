package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoelKayemba/dream-market-sub000/internal/gateway/middleware"
	notification_http "github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/interfaces/http"
	order_http "github.com/JoelKayemba/dream-market-sub000/internal/modules/order/interfaces/http"
)

func testRouterConfig() RouterConfig {
	return RouterConfig{
		AuthMiddleware:      middleware.NewAuthMiddleware("test-secret"),
		NotificationHandler: &notification_http.NotificationHandler{},
		OrderHandler:        &order_http.OrderHandler{},
	}
}

func TestSetupRoutes(t *testing.T) {
	mux := SetupRoutes(testRouterConfig())
	require.NotNil(t, mux)
}

func TestSetupRoutes_HealthCheck(t *testing.T) {
	mux := SetupRoutes(testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSetupRoutes_NotificationsRequireAuth(t *testing.T) {
	mux := SetupRoutes(testRouterConfig())

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/notifications"},
		{http.MethodPatch, "/notifications/read-all"},
		{http.MethodGet, "/notifications/unread-count"},
		{http.MethodPost, "/notifications/system"},
		{http.MethodPost, "/orders"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}
