package tokens

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	WordsPerPage  = 500
	TokensPerWord = 1.5
	SafetyMargin  = 1.2

	// DefaultMaxTokens applies when the question carries no length cue.
	DefaultMaxTokens = 2048

	// DefaultModelMaxOutput is used when the model limit is unknown.
	DefaultModelMaxOutput = 4096

	detailedTokens = 4000
	briefTokens    = 500
)

type LengthKind string

const (
	LengthNone     LengthKind = "none"
	LengthPages    LengthKind = "pages"
	LengthWords    LengthKind = "words"
	LengthDetailed LengthKind = "detailed"
	LengthBrief    LengthKind = "brief"
)

// LengthRequest describes how long the user wants the answer to be.
type LengthRequest struct {
	Kind           LengthKind
	Pages          int
	Words          int
	Cue            string
	IsLongDocument bool
}

var (
	pagesPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:pages?|p\.)`)
	wordsPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:mots?|words?)\b`)

	detailedCues = []string{
		"rapport détaillé", "rapport complet", "detailed report", "in detail", "en détail",
		"de manière détaillée", "comprehensive", "exhaustif", "exhaustive", "approfondi", "in-depth",
		"dissertation", "essay", "long document",
	}
	briefCues = []string{
		"bref", "brève", "en bref", "court", "courte", "short", "brief", "briefly", "tl;dr",
		"en une phrase", "in one sentence", "résume en", "summarize in",
	}
)

// DetectLengthRequest looks for explicit page or word counts, then for
// qualitative cues, in French and English.
func DetectLengthRequest(text string) LengthRequest {
	if m := pagesPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return LengthRequest{Kind: LengthPages, Pages: n, Words: n * WordsPerPage, Cue: m[0], IsLongDocument: n >= 2}
		}
	}
	if m := wordsPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return LengthRequest{Kind: LengthWords, Words: n, Cue: m[0], IsLongDocument: n >= 1000}
		}
	}

	lower := strings.ToLower(text)
	for _, cue := range detailedCues {
		if strings.Contains(lower, cue) {
			return LengthRequest{Kind: LengthDetailed, Cue: cue, IsLongDocument: true}
		}
	}
	for _, cue := range briefCues {
		if containsWord(lower, cue) {
			return LengthRequest{Kind: LengthBrief, Cue: cue}
		}
	}
	return LengthRequest{Kind: LengthNone}
}

// Budget is the output token budget for one request.
type Budget struct {
	MaxTokens       int
	RequestedTokens int
	Request         LengthRequest
	// Warning is non-empty when the requested length cannot be honored.
	Warning string
}

// CalculateMaxTokens derives an output budget from the phrasing of the
// question, capped to modelMaxOutput.
func CalculateMaxTokens(question string, modelMaxOutput int) Budget {
	if modelMaxOutput <= 0 {
		modelMaxOutput = DefaultModelMaxOutput
	}

	req := DetectLengthRequest(question)
	requested := DefaultMaxTokens
	switch req.Kind {
	case LengthPages, LengthWords:
		requested = int(math.Round(float64(req.Words) * TokensPerWord * SafetyMargin))
	case LengthDetailed:
		requested = detailedTokens
	case LengthBrief:
		requested = briefTokens
	}

	budget := Budget{MaxTokens: requested, RequestedTokens: requested, Request: req}
	if requested > modelMaxOutput {
		budget.MaxTokens = modelMaxOutput
		if req.Kind != LengthNone {
			budget.Warning = fmt.Sprintf(
				"Requested length (%s, about %d tokens) exceeds the model output limit of %d tokens; the answer will be truncated to fit.",
				req.Cue, requested, modelMaxOutput,
			)
		}
	}
	return budget
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		if isBoundary(text, start-1) && isBoundary(text, end) {
			return true
		}
		idx = start + 1
	}
}

func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c >= 0x80)
}
