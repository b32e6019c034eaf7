package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/application"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
	notifhttp "github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/interfaces/http"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/infrastructure/websocket"
)

// Subscribe must leave the session's poll loop running for the lifetime of
// the connection and deliver the unsent backlog that was already waiting
// when the device connected.
func TestSubscribe_SessionOutlivesRequestAndDeliversBacklog(t *testing.T) {
	repo := &memRepo{}
	userID := uuid.New()
	backlog := seed(repo, userID, domain.KindOrderShipped, false)
	repo.mu.Lock()
	repo.rows[0].IsSent = false
	repo.mu.Unlock()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	sessions := application.NewSessionManager(repo, websocket.NewHubDispatcher(hub), nil, 25*time.Millisecond)
	svc := application.NewNotificationService(repo, sessions, nil)
	h := notifhttp.NewNotificationHandler(svc, hub)
	defer sessions.CloseAll()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Subscribe(w, withIdentity(r, userID, "client"))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The row created before the device connected arrives once the channel
	// is up, without waiting out a poll interval.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var got struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, backlog.ID.String(), got.ID)

	// The poll loop keeps refreshing while the connection stays open; it
	// must not die with the upgrade request's context.
	time.Sleep(300 * time.Millisecond)
	repo.mu.Lock()
	calls := repo.listCalls
	repo.mu.Unlock()
	assert.Greater(t, calls, 5, "polling fallback stopped after the handler returned")

	// Disconnecting tears the session down.
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return sessions.Get(userID) == nil },
		2*time.Second, 10*time.Millisecond)
}
