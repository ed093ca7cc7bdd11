package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"lucide-core/internal/pkg/logger"
	"lucide-core/pkg/llm"
)

const (
	fallbackTitleRunes = 50
	maxTitleRunes      = 80
	titleTimeout       = 15 * time.Second
)

type ITitleService interface {
	// Generate never fails: on any error it returns a title cut from the
	// question.
	Generate(ctx context.Context, question string) string
}

type titleService struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewTitleService(llmProvider llm.LLMProvider, log logger.ILogger) ITitleService {
	return &titleService{llmProvider: llmProvider, logger: log}
}

func (s *titleService) Generate(ctx context.Context, question string) string {
	fallback := FallbackTitle(question)
	if s.llmProvider == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	prompt := "Write a short title (at most 6 words, no quotes, no punctuation at the end) " +
		"for a conversation that starts with this message. Answer with the title only, " +
		"in the language of the message.\n\nMessage: " + question
	title, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3), llm.WithMaxTokens(24))
	if err != nil {
		s.logger.Warn("TITLE", "Title generation failed, using fallback", map[string]interface{}{"error": err.Error()})
		return fallback
	}

	title = cleanTitle(title)
	if title == "" {
		return fallback
	}
	return title
}

// FallbackTitle is the first 50 runes of the question on one line.
func FallbackTitle(question string) string {
	q := strings.Join(strings.Fields(question), " ")
	if utf8.RuneCountInString(q) <= fallbackTitleRunes {
		return q
	}
	r := []rune(q)
	return strings.TrimSpace(string(r[:fallbackTitleRunes])) + "..."
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "\"'`*# ")
	s = strings.TrimPrefix(s, "Title: ")
	s = strings.TrimRight(s, ".!")
	if utf8.RuneCountInString(s) > maxTitleRunes {
		s = string([]rune(s)[:maxTitleRunes])
	}
	return strings.TrimSpace(s)
}
