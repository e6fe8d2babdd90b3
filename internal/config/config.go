package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process configuration, read from the environment with an
// optional .env file.
type Config struct {
	Port            string
	DBDriver        string // "sqlite3" or "pgx"
	DBDSN           string
	SessionIdleTime time.Duration // 0 disables idle-session eviction
}

// Load reads configuration from the environment.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		DBDriver: getenv("DB_DRIVER", "sqlite3"),
		DBDSN:    getenv("DB_DSN", "./briscola.db"),
	}

	if v := os.Getenv("SESSION_IDLE_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			log.Printf("Ignoring invalid SESSION_IDLE_MINUTES value %q", v)
		} else {
			cfg.SessionIdleTime = time.Duration(n) * time.Minute
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
