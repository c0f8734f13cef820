package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Session SessionConfig
	Ai      AIConfig
	Keys    APIKeys
	Auth    AuthConfig
}

type AppConfig struct {
	Port          string
	Environment   string
	LogFilePath   string
	AccessLogPath string
	CorsOrigin    string
	UploadDir     string
	NatsURL       string
	OtelEnabled   bool
}

type SessionConfig struct {
	Store           string // "memory" | "redis" | "postgres"
	RedisURL        string
	DBConnection    string
	CleanupInterval time.Duration
}

type AIConfig struct {
	LLMProvider   string // "groq" | "ollama"
	LLMModel      string
	GroqBaseURL   string
	OllamaBaseURL string
}

type APIKeys struct {
	Groq string
}

type AuthConfig struct {
	// Empty disables token checks; userId is then taken as asserted.
	JwtSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:          getEnv("PORT", getEnv("APP_PORT", "3000")),
			Environment:   getEnv("GO_ENV", "development"),
			LogFilePath:   getEnv("LOG_FILE_PATH", "logs/cv-evaluator.log"),
			AccessLogPath: getEnv("ACCESS_LOG_PATH", "logs/access.log"),
			CorsOrigin:    getEnv("CORS_ORIGIN", "http://localhost:5173"),
			UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
			NatsURL:       getEnv("NATS_URL", ""),
			OtelEnabled:   getEnv("OTEL_ENABLED", "false") == "true",
		},
		Session: SessionConfig{
			Store:           getEnv("SESSION_STORE", "memory"),
			RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
			DBConnection:    getEnv("DB_CONNECTION_STRING", ""),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "groq"),
			LLMModel:      getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			GroqBaseURL:   getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Keys: APIKeys{
			Groq: getEnv("GROQ_API_KEY", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("10m") or plain seconds ("600").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil && d > 0 {
		return d
	}
	if secs := getEnvAsInt(key, 0); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
