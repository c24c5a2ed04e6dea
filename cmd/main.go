package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"quickchat/backend/internal/api/handler"
	"quickchat/backend/internal/chathub"
	"quickchat/backend/internal/config"
	"quickchat/backend/internal/models"
	"quickchat/backend/internal/responder"
	"quickchat/backend/internal/store"
)

func setupDependencies(cfg config.Settings) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Chat{},
		&models.Message{},
		&models.Reaction{},
		&models.User{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting QuickChat backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	s := store.NewService(db, rdb)

	hub := chathub.NewHub(s)
	hub.SetResponder(responder.NewCanned(hub, config.ResponderDelay))
	hub.Start()
	defer hub.Stop()

	r := gin.Default()
	h := handler.NewHandler(hub, s, []byte(cfg.JWTSecret), cfg.UploadDir)

	r.GET("/identity", h.GetIdentity)
	r.GET("/ws", h.ServeWebSocket)
	r.Static("/uploads", cfg.UploadDir)

	api := r.Group("/api")
	{
		api.POST("/chats", h.CreateChat)
		api.GET("/chats", h.ListChats)
		api.GET("/chats/:id/messages", h.GetMessages)
		api.POST("/chats/:id/messages", h.PostMessage)
		api.GET("/chats/:id/online", h.GetOnline)
		api.POST("/chats/:id/messages/:mid/reactions", h.ToggleReaction)
	}

	server := &http.Server{
		Addr:           cfg.Addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
