package notification

import (
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/application"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/infrastructure/persistence/postgres"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/infrastructure/realtime"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/infrastructure/websocket"
	notification_http "github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/interfaces/http"
)

// Config carries the notification tuning knobs from the shared config.
type Config struct {
	PollInterval  time.Duration
	RetentionDays int
	PurgeInterval time.Duration
	QueueSize     int
	MaxAttempts   int
}

// Module wires the notification core once at process start; collaborators
// are passed by reference, not reached through globals.
type Module struct {
	repo       *postgres.PgNotificationRepository
	translator *application.Translator
	sessions   *application.SessionManager
	service    *application.NotificationService
	janitor    *application.Janitor
	handler    *notification_http.NotificationHandler
	hub        *websocket.Hub
}

func NewModule(db *sqlx.DB, redis *goredis.Client, cfg Config) *Module {
	repo := postgres.NewPgNotificationRepository(db)
	admins := postgres.NewPgAdminDirectory(db)
	bridge := realtime.NewRedisBridge(redis)

	hub := websocket.NewHub()
	go hub.Run()
	dispatcher := websocket.NewHubDispatcher(hub)

	translator := application.NewTranslator(repo, admins, bridge, application.TranslatorConfig{
		QueueSize:   cfg.QueueSize,
		MaxAttempts: cfg.MaxAttempts,
	})
	translator.Start()

	sessions := application.NewSessionManager(repo, dispatcher, bridge, cfg.PollInterval)
	service := application.NewNotificationService(repo, sessions, bridge)
	janitor := application.NewJanitor(repo, cfg.RetentionDays, cfg.PurgeInterval)
	handler := notification_http.NewNotificationHandler(service, hub)

	return &Module{
		repo:       repo,
		translator: translator,
		sessions:   sessions,
		service:    service,
		janitor:    janitor,
		handler:    handler,
		hub:        hub,
	}
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) Service() *application.NotificationService {
	return m.service
}

func (m *Module) Translator() *application.Translator {
	return m.translator
}

func (m *Module) Janitor() *application.Janitor {
	return m.janitor
}

// Shutdown stops sessions, the translator worker and the hub, in that
// order, so queued events still reach the store before exit.
func (m *Module) Shutdown() {
	m.sessions.CloseAll()
	m.translator.Stop()
	m.hub.Stop()
}
