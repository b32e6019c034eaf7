package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoelKayemba/dream-market-sub000/internal/gateway/middleware"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/application"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
	notifhttp "github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/interfaces/http"
)

// memRepo is a minimal in-memory store for handler tests.
type memRepo struct {
	mu        sync.Mutex
	rows      []domain.Notification
	listCalls int
}

func (r *memRepo) Create(ctx context.Context, n *domain.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Family = domain.FamilyOf(n.Kind)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.rows = append(r.rows, *n)
	return nil
}

func (r *memRepo) ListByUser(ctx context.Context, userID uuid.UUID, f domain.ListFilter) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	out := make([]domain.Notification, 0)
	for _, n := range r.rows {
		if n.UserID != userID {
			continue
		}
		if f.Family != "" && n.Family != f.Family {
			continue
		}
		if f.ExcludeFamily != "" && n.Family == f.ExcludeFamily {
			continue
		}
		if f.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
		if len(out) >= f.EffectiveLimit() {
			break
		}
	}
	return out, nil
}

func (r *memRepo) CountByUser(ctx context.Context, userID uuid.UUID, f domain.ListFilter) (int, error) {
	list, err := r.ListByUser(ctx, userID, f)
	return len(list), err
}

func (r *memRepo) ExistsForOrder(ctx context.Context, userID, orderID uuid.UUID, kind domain.Kind) (bool, error) {
	return false, nil
}

func (r *memRepo) MarkSent(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].IsSent = true
		}
	}
	return nil
}

func (r *memRepo) MarkManySent(ctx context.Context, ids []uuid.UUID) error { return nil }

func (r *memRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *memRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memRepo) PurgeOlderThan(ctx context.Context, days int) (int64, error) { return 0, nil }

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(ctx context.Context, n *domain.Notification) error { return nil }

func newHandler(repo *memRepo) *notifhttp.NotificationHandler {
	sessions := application.NewSessionManager(repo, noopDispatcher{}, nil, time.Hour)
	svc := application.NewNotificationService(repo, sessions, nil)
	return notifhttp.NewNotificationHandler(svc, nil)
}

func withIdentity(r *http.Request, userID uuid.UUID, role string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeyUserId, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	return r.WithContext(ctx)
}

func seed(repo *memRepo, userID uuid.UUID, kind domain.Kind, read bool) domain.Notification {
	n := domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Family:    domain.FamilyOf(kind),
		Title:     "Titre",
		Message:   "Message",
		IsRead:    read,
		IsSent:    true,
		CreatedAt: time.Now(),
	}
	repo.mu.Lock()
	repo.rows = append(repo.rows, n)
	repo.mu.Unlock()
	return n
}

func TestListNotifications_RequiresIdentity(t *testing.T) {
	h := newHandler(&memRepo{})
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rr := httptest.NewRecorder()

	h.ListNotifications(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListNotifications_ClientDoesNotSeeAdminRows(t *testing.T) {
	repo := &memRepo{}
	h := newHandler(repo)
	userID := uuid.New()
	seed(repo, userID, domain.KindAdminNewOrder, false)
	visible := seed(repo, userID, domain.KindOrderShipped, false)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/notifications", nil), userID, "client")
	rr := httptest.NewRecorder()
	h.ListNotifications(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data []domain.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, visible.ID, body.Data[0].ID)
}

func TestListNotifications_UnreadFilter(t *testing.T) {
	repo := &memRepo{}
	h := newHandler(repo)
	userID := uuid.New()
	seed(repo, userID, domain.KindOrderShipped, true)
	unread := seed(repo, userID, domain.KindPromotion, false)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/notifications?unread=true", nil), userID, "client")
	rr := httptest.NewRecorder()
	h.ListNotifications(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data []domain.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, unread.ID, body.Data[0].ID)
}

func TestMarkAsRead(t *testing.T) {
	repo := &memRepo{}
	h := newHandler(repo)
	userID := uuid.New()
	row := seed(repo, userID, domain.KindOrderShipped, false)

	req := withIdentity(httptest.NewRequest(http.MethodPatch, "/api/notifications/"+row.ID.String()+"/read", nil), userID, "client")
	req.SetPathValue("id", row.ID.String())
	rr := httptest.NewRecorder()
	h.MarkAsRead(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	repo.mu.Lock()
	assert.True(t, repo.rows[0].IsRead)
	repo.mu.Unlock()
}

func TestMarkAsRead_InvalidID(t *testing.T) {
	h := newHandler(&memRepo{})
	req := withIdentity(httptest.NewRequest(http.MethodPatch, "/api/notifications/not-a-uuid/read", nil), uuid.New(), "client")
	req.SetPathValue("id", "not-a-uuid")
	rr := httptest.NewRecorder()
	h.MarkAsRead(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMarkAllAsRead(t *testing.T) {
	repo := &memRepo{}
	h := newHandler(repo)
	userID := uuid.New()
	seed(repo, userID, domain.KindOrderShipped, false)
	seed(repo, userID, domain.KindPromotion, false)

	req := withIdentity(httptest.NewRequest(http.MethodPatch, "/api/notifications/read-all", nil), userID, "client")
	rr := httptest.NewRecorder()
	h.MarkAllAsRead(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	repo.mu.Lock()
	for _, n := range repo.rows {
		assert.True(t, n.IsRead)
	}
	repo.mu.Unlock()
}

func TestUnreadCount(t *testing.T) {
	repo := &memRepo{}
	h := newHandler(repo)
	userID := uuid.New()
	seed(repo, userID, domain.KindOrderShipped, false)
	seed(repo, userID, domain.KindPromotion, true)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil), userID, "client")
	rr := httptest.NewRecorder()
	h.UnreadCount(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body["count"])
}

func TestCreateSystemMessage_AdminOnly(t *testing.T) {
	repo := &memRepo{}
	h := newHandler(repo)

	payload, _ := json.Marshal(map[string]any{
		"user_id": uuid.New(),
		"title":   "Maintenance",
		"message": "Interruption prévue ce soir.",
	})

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/notifications/system", bytes.NewReader(payload)), uuid.New(), "client")
	rr := httptest.NewRecorder()
	h.CreateSystemMessage(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = withIdentity(httptest.NewRequest(http.MethodPost, "/api/notifications/system", bytes.NewReader(payload)), uuid.New(), "admin")
	rr = httptest.NewRecorder()
	h.CreateSystemMessage(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created domain.Notification
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, domain.KindSystemMessage, created.Kind)
}

func TestCreateSystemMessage_ValidationError(t *testing.T) {
	h := newHandler(&memRepo{})

	payload, _ := json.Marshal(map[string]any{
		"user_id": uuid.New(),
		"title":   "",
		"message": "",
	})
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/notifications/system", bytes.NewReader(payload)), uuid.New(), "admin")
	rr := httptest.NewRecorder()
	h.CreateSystemMessage(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateSystemMessage_InvalidBody(t *testing.T) {
	h := newHandler(&memRepo{})
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/notifications/system", bytes.NewReader([]byte("{"))), uuid.New(), "admin")
	rr := httptest.NewRecorder()
	h.CreateSystemMessage(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
