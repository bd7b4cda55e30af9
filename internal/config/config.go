package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	SQLitePath   string
	GoogleAPIKey string
	GeminiModel  string
	TwilioSID    string
	TwilioToken  string
	TwilioFrom   string
	PollInterval int
	FetchTimeout int
	ListenAddr   string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same.
	_ = godotenv.Load()

	pollInterval, err := strconv.Atoi(getEnvWithDefault("POLL_INTERVAL", "600"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %v", err)
	}

	fetchTimeout, err := strconv.Atoi(getEnvWithDefault("FETCH_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %v", err)
	}

	return &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   getEnvWithDefault("SQLITE_PATH", "sentinel.db"),
		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:  getEnvWithDefault("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		TwilioSID:    os.Getenv("TWILIO_SID"),
		TwilioToken:  os.Getenv("TWILIO_TOKEN"),
		TwilioFrom:   getEnvWithDefault("TWILIO_FROM", "whatsapp:+14155238886"),
		PollInterval: pollInterval,
		FetchTimeout: fetchTimeout,
		ListenAddr:   getEnvWithDefault("LISTEN_ADDR", ":8000"),
	}, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
