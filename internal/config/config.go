package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Graph     GraphConfig
	Copilot   CopilotConfig
	Grounding GroundingConfig
	Ai        AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
}

type DatabaseConfig struct {
	Connection string
}

type GraphConfig struct {
	URI      string
	User     string
	Password string
	Database string
}

type CopilotConfig struct {
	DefaultMode  string // "demo" or "live"
	DisplayCap   int
	RetryBackoff time.Duration
	SessionTTL   time.Duration
	SnapshotPath string
}

type GroundingConfig struct {
	TopK     int
	MinScore float64
	Timeout  time.Duration
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama", "jina" or "demo"
	GeminiApiKey      string
	JinaApiKey        string
	OllamaBaseURL     string
	OllamaModel       string
	IngestTopic       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Graph: GraphConfig{
			URI:      getEnv("NEO4J_URI", ""),
			User:     getEnv("NEO4J_USER", "neo4j"),
			Password: getEnv("NEO4J_PASSWORD", ""),
			Database: getEnv("NEO4J_DATABASE", "neo4j"),
		},
		Copilot: CopilotConfig{
			DefaultMode:  getEnv("COPILOT_DEFAULT_MODE", "demo"),
			DisplayCap:   getEnvAsInt("COPILOT_DISPLAY_CAP", 50),
			RetryBackoff: getEnvAsDuration("COPILOT_RETRY_BACKOFF", 500*time.Millisecond),
			SessionTTL:   getEnvAsDuration("COPILOT_SESSION_TTL", time.Hour),
			SnapshotPath: getEnv("COPILOT_SNAPSHOT_PATH", ""),
		},
		Grounding: GroundingConfig{
			TopK:     getEnvAsInt("GROUNDING_TOP_K", 4),
			MinScore: getEnvAsFloat("GROUNDING_MIN_SCORE", 0.35),
			Timeout:  getEnvAsDuration("GROUNDING_TIMEOUT", 3*time.Second),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "demo"),
			GeminiApiKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JinaApiKey:        getEnv("JINA_API_KEY", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			IngestTopic:       getEnv("EMBED_DOCUMENT_TOPIC_NAME", "EMBED_GROUNDING_DOCUMENT"),
		},
	}
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
