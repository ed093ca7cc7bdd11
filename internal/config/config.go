package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Ai       AIConfig
	Ask      AskConfig
	Document DocumentConfig
	Rag      RagConfig
	Actions  ActionsConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	SocketLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	BodyLimitMB        int
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Email != ""
}

type APIKeys struct {
	OpenAI       string
	OpenRouter   string
	GoogleGemini string
	Jina         string
	JwtSecret    string
}

type AIConfig struct {
	LLMProvider       string // "ollama", "openai", "openrouter", "lmstudio"
	LLMModel          string
	LLMBaseURL        string
	EmbeddingProvider string // "ollama", "gemini", "jina"
	EmbeddingModel    string
	OllamaBaseURL     string
	IndexTopic        string
}

type AskConfig struct {
	ScreenshotsEnabled bool
	HistoryLimit       int
	Temperature        float64
	AutoIndex          bool
}

type DocumentConfig struct {
	MaxFileSizeMB int
	OCRLanguages  string
	TesseractPath string
}

func (c DocumentConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// MaxFileSizeLabel renders the limit the way error messages show it.
func (c DocumentConfig) MaxFileSizeLabel() string {
	return fmt.Sprintf("%dMB", c.MaxFileSizeMB)
}

type RagConfig struct {
	VectorStore string // "pgvector" or "chromem"
	ChromemPath string
	MaxChunks   int
	MinScore    float64
}

type ActionsConfig struct {
	DraftDir  string
	TaskFile  string
	SendEmail bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/lucide.log"),
			SocketLogFilePath:  getEnv("SOCKET_LOG_FILE_PATH", "logs/socket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			BodyLimitMB:        getEnvAsInt("APP_BODY_LIMIT_MB", 60),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Lucide"),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			OpenRouter:   getEnv("OPENROUTER_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3.2"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			IndexTopic:        getEnv("DOCUMENT_INDEX_TOPIC", "DOCUMENT_INDEX"),
		},
		Ask: AskConfig{
			ScreenshotsEnabled: getEnvAsBool("ASK_SCREENSHOTS_ENABLED", true),
			HistoryLimit:       getEnvAsInt("ASK_HISTORY_LIMIT", 30),
			Temperature:        getEnvAsFloat("ASK_TEMPERATURE", 0.7),
			AutoIndex:          getEnvAsBool("ASK_AUTO_INDEX", true),
		},
		Document: DocumentConfig{
			MaxFileSizeMB: getEnvAsInt("DOCUMENT_MAX_FILE_SIZE_MB", 50),
			OCRLanguages:  getEnv("OCR_LANGUAGES", "fra+eng"),
			TesseractPath: getEnv("TESSERACT_PATH", "tesseract"),
		},
		Rag: RagConfig{
			VectorStore: strings.ToLower(getEnv("VECTOR_STORE", "pgvector")),
			ChromemPath: getEnv("CHROMEM_PATH", ""),
			MaxChunks:   getEnvAsInt("RAG_MAX_CHUNKS", 5),
			MinScore:    getEnvAsFloat("RAG_MIN_SCORE", 0.35),
		},
		Actions: ActionsConfig{
			DraftDir:  getEnv("ACTION_DRAFT_DIR", "data/drafts"),
			TaskFile:  getEnv("ACTION_TASK_FILE", "data/tasks.jsonl"),
			SendEmail: getEnvAsBool("ACTION_EMAIL_SEND", false),
		},
	}
}

// LLMAPIKey picks the key matching the configured provider.
func (c *Config) LLMAPIKey() string {
	switch c.Ai.LLMProvider {
	case "openai":
		return c.Keys.OpenAI
	case "openrouter":
		return c.Keys.OpenRouter
	default:
		return ""
	}
}

// LLMBaseURL falls back to the public endpoint of the provider.
func (c *Config) LLMBaseURL() string {
	if c.Ai.LLMBaseURL != "" {
		return c.Ai.LLMBaseURL
	}
	switch c.Ai.LLMProvider {
	case "openai":
		return "https://api.openai.com/v1"
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "lmstudio":
		return "http://localhost:1234/v1"
	default:
		return strings.TrimRight(c.Ai.OllamaBaseURL, "/") + "/v1"
	}
}

func (c *Config) EmbeddingAPIKey() string {
	switch c.Ai.EmbeddingProvider {
	case "gemini":
		return c.Keys.GoogleGemini
	case "jina":
		return c.Keys.Jina
	default:
		return ""
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
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
