package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JoelKayemba/dream-market-sub000/internal/gateway/middleware"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/application"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/infrastructure/websocket"
)

type NotificationHandler struct {
	service *application.NotificationService
	hub     *websocket.Hub
}

func NewNotificationHandler(service *application.NotificationService, hub *websocket.Hub) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

func identity(r *http.Request) (uuid.UUID, domain.Role, bool) {
	userID, ok := r.Context().Value(middleware.ContextKeyUserId).(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	role := domain.RoleClient
	if raw, ok := r.Context().Value(middleware.ContextKeyRole).(string); ok && domain.Role(raw) == domain.RoleAdmin {
		role = domain.RoleAdmin
	}
	return userID, role, true
}

// Subscribe upgrades to a websocket device channel and opens the user's
// reconciler session for the lifetime of the connection.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// The session must outlive this handler: net/http cancels r.Context()
	// as soon as Subscribe returns, while the connection and the session's
	// poll loop keep running until the client disconnects.
	ctx := context.WithoutCancel(r.Context())

	sessions := h.service.Sessions()
	rec, err := sessions.Open(ctx, userID, role)
	if err != nil {
		log.Printf("Subscribe: session open failed for %s: %v", userID, err)
		http.Error(w, "failed to open session", http.StatusInternalServerError)
		return
	}

	websocket.ServeWs(h.hub, w, r, userID, func() {
		sessions.Close(userID)
	})

	// The device registered after the session's first sweep ran, so any
	// rows already waiting at connect time failed to dispatch. Refresh now
	// that the channel is up instead of waiting out a poll interval.
	go func() {
		if err := rec.Refresh(ctx); err != nil {
			log.Printf("Subscribe: post-connect refresh for %s: %v", userID, err)
		}
	}()
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.service.List(r.Context(), userID, role, unreadOnly, limit)
	if err != nil {
		log.Printf("ListNotifications: service error: %v", err)
		http.Error(w, "failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": notifications}); err != nil {
		log.Printf("ListNotifications: encode error: %v", err)
	}
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	userID, _, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, notificationID); err != nil {
		http.Error(w, "failed to mark notification as read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		http.Error(w, "failed to mark all notifications as read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID, role)
	if err != nil {
		http.Error(w, "failed to get unread count", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"count": count})
}

type systemMessageRequest struct {
	UserID  uuid.UUID      `json:"user_id"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Payload domain.Payload `json:"payload"`
}

// CreateSystemMessage is the manual-creation escape hatch, admin-only.
func (h *NotificationHandler) CreateSystemMessage(w http.ResponseWriter, r *http.Request) {
	_, role, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if role != domain.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req systemMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.service.CreateSystemMessage(r.Context(), req.UserID, req.Title, req.Message, req.Payload)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			http.Error(w, "missing required fields", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to create notification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(n)
}
