package tokens

import "unicode/utf8"

const (
	// CharsPerToken is the usual rule of thumb for BPE tokenizers on latin text.
	CharsPerToken = 4

	// MessageOverhead covers role markers and separators added per chat message.
	MessageOverhead = 4

	// ImageTokens is a flat estimate for one attached screenshot.
	ImageTokens = 765
)

// EstimateTokens returns an approximate token count for text.
// Streaming transports do not report exact usage so every count derived
// from this function must be flagged as an estimate.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + CharsPerToken - 1) / CharsPerToken
}

// EstimateInputTokens estimates the prompt size of a request made of the
// given message contents plus imageCount attached images.
func EstimateInputTokens(contents []string, imageCount int) int {
	total := 0
	for _, c := range contents {
		total += EstimateTokens(c) + MessageOverhead
	}
	if imageCount > 0 {
		total += imageCount * ImageTokens
	}
	return total
}
