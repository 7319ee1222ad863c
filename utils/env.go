package utils

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// ErrNoDatabaseURL means DATABASE_URL is absent from both .env and the
// process environment.
var ErrNoDatabaseURL = errors.New("DATABASE_URL not set (in .env or environment)")

// LoadEnv loads .env into the process environment when one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, continuing")
	}
}

// DatabaseURL returns the configured connection string.
func DatabaseURL() (string, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", ErrNoDatabaseURL
	}
	return url, nil
}
