package config

import (
	"fmt"
	"os"
)

// Settings holds the process-level configuration read from the environment.
// main loads .env via godotenv before calling Load, so both a real
// environment and a local dotenv file work.
type Settings struct {
	Addr          string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	UploadDir     string
}

// Load reads settings from the environment, falling back to local-dev
// defaults. The DSN can be given whole via DATABASE_DSN or assembled from
// the individual DB_* variables.
func Load() Settings {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getenv("DB_HOST", "localhost"),
			getenv("DB_USER", "quickchat"),
			getenv("DB_PASSWORD", "quickchat"),
			getenv("DB_NAME", "quickchatdb"),
			getenv("DB_PORT", "5432"),
		)
	}

	return Settings{
		Addr:          getenv("HTTP_ADDR", ":8080"),
		PostgresDSN:   dsn,
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     getenv("JWT_SECRET", "dev-only-secret"),
		UploadDir:     getenv("UPLOAD_DIR", "uploads"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
