package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	cfg := Load()

	assert.Equal(t, "pgvector", cfg.Rag.VectorStore)
	assert.Equal(t, "fra+eng", cfg.Document.OCRLanguages)
	assert.Equal(t, int64(50*1024*1024), cfg.Document.MaxFileSizeBytes())
	assert.Equal(t, "50MB", cfg.Document.MaxFileSizeLabel())
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLMBaseURL())
	assert.Empty(t, cfg.LLMAPIKey())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("ASK_SCREENSHOTS_ENABLED", "false")
	t.Setenv("RAG_MIN_SCORE", "0.5")
	t.Setenv("VECTOR_STORE", "Chromem")
	t.Setenv("DOCUMENT_MAX_FILE_SIZE_MB", "not-a-number")

	cfg := Load()
	assert.Equal(t, "or-key", cfg.LLMAPIKey())
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLMBaseURL())
	assert.False(t, cfg.Ask.ScreenshotsEnabled)
	assert.Equal(t, 0.5, cfg.Rag.MinScore)
	assert.Equal(t, "chromem", cfg.Rag.VectorStore)
	assert.Equal(t, 50, cfg.Document.MaxFileSizeMB)
}
