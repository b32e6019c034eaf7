package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JoelKayemba/dream-market-sub000/internal/gateway/middleware"
	notification_http "github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/interfaces/http"
	order_http "github.com/JoelKayemba/dream-market-sub000/internal/modules/order/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleWare
	NotificationHandler *notification_http.NotificationHandler
	OrderHandler        *order_http.OrderHandler
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	router := NewRouter()

	// Health Check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Notification Routes
	router.Handle("GET /notifications", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.ListNotifications)))
	router.Handle("PATCH /notifications/{id}/read", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.MarkAsRead)))
	router.Handle("PATCH /notifications/read-all", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.MarkAllAsRead)))
	router.Handle("GET /notifications/unread-count", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.UnreadCount)))
	router.Handle("POST /notifications/system", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.CreateSystemMessage)))
	router.Handle("GET /ws", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.Subscribe)))

	// Order Routes
	router.Handle("POST /orders", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.OrderHandler.CreateOrder)))
	router.Handle("GET /orders", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.OrderHandler.ListOrders)))
	router.Handle("PATCH /orders/{id}/status", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.OrderHandler.UpdateStatus)))

	return router.Mux()
}
