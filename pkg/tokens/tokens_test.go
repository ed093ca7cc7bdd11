package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one rune", "a", 1},
		{"exact multiple", "abcdefgh", 2},
		{"rounds up", "abcdefghi", 3},
		{"counts runes not bytes", "éééé", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestEstimateInputTokens(t *testing.T) {
	got := EstimateInputTokens([]string{"abcd", "abcdefgh"}, 1)
	assert.Equal(t, 1+MessageOverhead+2+MessageOverhead+ImageTokens, got)
}

func TestDetectLengthRequest(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		kind     LengthKind
		pages    int
		words    int
		longDocs bool
	}{
		{"french pages", "Écris un rapport de 5 pages", LengthPages, 5, 2500, true},
		{"english single page", "write 1 page about go", LengthPages, 1, 500, false},
		{"words", "give me 300 words on RAG", LengthWords, 0, 300, false},
		{"french words", "un texte de 1500 mots", LengthWords, 0, 1500, true},
		{"detailed", "Fais un rapport détaillé sur le projet", LengthDetailed, 0, 0, true},
		{"brief", "explain briefly what a goroutine is", LengthBrief, 0, 0, false},
		{"brief not inside other words", "shortcut keys in vim", LengthNone, 0, 0, false},
		{"none", "hello", LengthNone, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectLengthRequest(tt.text)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.pages, got.Pages)
			assert.Equal(t, tt.words, got.Words)
			assert.Equal(t, tt.longDocs, got.IsLongDocument)
		})
	}
}

func TestCalculateMaxTokens(t *testing.T) {
	t.Run("five pages capped to model limit with warning", func(t *testing.T) {
		b := CalculateMaxTokens("Écris un rapport de 5 pages", 4096)
		assert.Equal(t, 4096, b.MaxTokens)
		assert.Equal(t, 4500, b.RequestedTokens)
		assert.NotEmpty(t, b.Warning)
	})

	t.Run("fits under limit", func(t *testing.T) {
		b := CalculateMaxTokens("write 1 page", 4096)
		assert.Equal(t, 900, b.MaxTokens)
		assert.Empty(t, b.Warning)
	})

	t.Run("no cue uses default", func(t *testing.T) {
		b := CalculateMaxTokens("hello", 8192)
		assert.Equal(t, DefaultMaxTokens, b.MaxTokens)
		assert.Empty(t, b.Warning)
	})

	t.Run("no cue on small model is capped silently", func(t *testing.T) {
		b := CalculateMaxTokens("hello", 1024)
		assert.Equal(t, 1024, b.MaxTokens)
		assert.Empty(t, b.Warning)
	})

	t.Run("unknown model limit falls back", func(t *testing.T) {
		b := CalculateMaxTokens("Fais un rapport détaillé", 0)
		assert.Equal(t, 4000, b.MaxTokens)
	})
}
