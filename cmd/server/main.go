package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/JoelKayemba/dream-market-sub000/internal/gateway"
	"github.com/JoelKayemba/dream-market-sub000/internal/gateway/middleware"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/order"
	"github.com/JoelKayemba/dream-market-sub000/internal/shared/infrastructure/config"
	"github.com/JoelKayemba/dream-market-sub000/internal/shared/infrastructure/database"
	"github.com/JoelKayemba/dream-market-sub000/pkg/migration"
)

func main() {
	cfg := config.Load()

	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		runner := migration.NewRunner(&migration.Config{
			MigrationsPath: path,
			DatabaseURL: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
				cfg.Database.User, cfg.Database.Password, cfg.Database.Host,
				cfg.Database.Port, cfg.Database.DBName, cfg.Database.SSLMode),
		})
		if err := runner.Up(); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
	}

	log.Println("Connecting to DB...")
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()
	log.Printf("Database Connected Successfully!")

	redisClient, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	notificationModule := notification.NewModule(db, redisClient, notification.Config{
		PollInterval:  cfg.Notifications.PollInterval,
		RetentionDays: cfg.Notifications.RetentionDays,
		PurgeInterval: cfg.Notifications.PurgeInterval,
		QueueSize:     cfg.Notifications.QueueSize,
		MaxAttempts:   cfg.Notifications.MaxAttempts,
	})
	defer notificationModule.Shutdown()

	orderModule := order.NewModule(db, notificationModule.Translator())

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go notificationModule.Janitor().Run(janitorCtx)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	mux := gateway.SetupRoutes(gateway.RouterConfig{
		AuthMiddleware:      authMiddleware,
		NotificationHandler: notificationModule.HTTPHandler(),
		OrderHandler:        orderModule.HTTPHandler(),
	})

	handler := middleware.CORSMiddleware(middleware.PrometheusMiddleware(mux), cfg.Server.AllowedOrigins)

	server := gateway.NewServer(cfg.Server.Port, handler)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
