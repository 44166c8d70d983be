package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DBPath         string
	PackagePath    string
	ExportEnabled  bool
	ExportFile     string
	UploadMaxBytes int64
}

func FromEnv() Config {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.DBPath = getenv("DB_PATH", "trivia.db")
	c.PackagePath = os.Getenv("GAME_PACKAGE")
	c.ExportEnabled = getenv("EXPORT_ENABLED", "false") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "game_log.txt")
	c.UploadMaxBytes = getenvInt64("UPLOAD_MAX_BYTES", 10<<20)
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}
