package main

import (
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"quickchat/backend/internal/config"
	"quickchat/backend/internal/store"
)

func main() {
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	s := store.NewService(db, rdb)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "chats":
		chats, err := s.ListChats()
		if err != nil {
			log.Fatalf("failed to list chats: %v", err)
		}
		for _, chat := range chats {
			msgs, err := s.GetChatMessages(chat.ID)
			if err != nil {
				log.Fatalf("failed to count messages for %s: %v", chat.ID, err)
			}
			fmt.Printf("%s  %-30q  %d messages  created %s\n",
				chat.ID, chat.Title, len(msgs), chat.CreatedAt.Format("2006-01-02 15:04"))
		}

	case "online":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin online <chat_id>")
			os.Exit(1)
		}
		members, err := s.GetOnlineUsers(os.Args[2])
		if err != nil {
			log.Fatalf("failed to read online mirror: %v", err)
		}
		fmt.Printf("%d online in %s\n", len(members), os.Args[2])
		for _, m := range members {
			fmt.Println("  " + m)
		}

	case "purge":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin purge <chat_id>")
			os.Exit(1)
		}
		if err := s.PurgeChat(os.Args[2]); err != nil {
			log.Fatalf("failed to purge chat: %v", err)
		}
		if err := s.ClearOnlineUsers(os.Args[2]); err != nil {
			log.Printf("WARNING: failed to clear online mirror: %v", err)
		}
		fmt.Println("purged", os.Args[2])

	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage: admin <chats|online|purge> [args]")
	os.Exit(1)
}
