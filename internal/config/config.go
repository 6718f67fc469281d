package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Agent    AgentConfig
	Ai       AIConfig
	Otel     OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AgentLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	InvoiceEventsTopic string
}

type DatabaseConfig struct {
	Connection string
}

type AgentConfig struct {
	SessionTTLMinutes int
	MaxToolRounds     int
	Temperature       float64
	MaxTokens         int
}

type AIConfig struct {
	LLMProvider   string // "ollama" | "openai"
	LLMModel      string // e.g. "llama3.1", "qwen2.5"
	OllamaBaseURL string
	OpenAIBaseURL string // any OpenAI-compatible endpoint
	LLMApiKey     string
}

// LLMBaseURL returns the endpoint of the configured provider.
func (c AIConfig) LLMBaseURL() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIBaseURL
	}
	return c.OllamaBaseURL
}

type OtelConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AgentLogFilePath:   getEnv("AGENT_LOG_FILE_PATH", "logs/agent_voice.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			InvoiceEventsTopic: getEnv("INVOICE_EVENTS_TOPIC", "INVOICE_EVENTS"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Agent: AgentConfig{
			SessionTTLMinutes: getEnvAsInt("AGENT_SESSION_TTL_MINUTES", 60),
			MaxToolRounds:     getEnvAsInt("AGENT_MAX_TOOL_ROUNDS", 8),
			Temperature:       getEnvAsFloat("AGENT_LLM_TEMPERATURE", 0.2),
			MaxTokens:         getEnvAsInt("AGENT_LLM_MAX_TOKENS", 500),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3.1"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			LLMApiKey:     getEnv("LLM_API_KEY", ""),
		},
		Otel: OtelConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
