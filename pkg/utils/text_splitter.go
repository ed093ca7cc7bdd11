package utils

// TextChunk is a slice of a larger text. Start and End are rune offsets,
// End exclusive.
type TextChunk struct {
	Text  string
	Start int
	End   int
}

// SplitText splits a long string into chunks of approximately 'chunkSize' characters.
// It includes an 'overlap' to preserve context at boundaries.
func SplitText(text string, chunkSize int, overlap int) []string {
	chunks := SplitTextWithOffsets(text, chunkSize, overlap)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// SplitTextWithOffsets behaves like SplitText and keeps the rune range
// each chunk was cut from. When a space or newline sits in the last
// fifth of a window the chunk ends there instead of mid-word.
func SplitTextWithOffsets(text string, chunkSize int, overlap int) []TextChunk {
	runes := []rune(text)
	totalLen := len(runes)
	if chunkSize <= 0 || totalLen <= chunkSize {
		return []TextChunk{{Text: text, Start: 0, End: totalLen}}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []TextChunk
	for i := 0; i < totalLen; {
		end := i + chunkSize
		if end >= totalLen {
			end = totalLen
		} else if cut := lastBreak(runes, i+chunkSize*4/5, end); cut > 0 {
			end = cut
		}

		chunks = append(chunks, TextChunk{Text: string(runes[i:end]), Start: i, End: end})
		if end == totalLen {
			break
		}

		next := end - overlap
		if next <= i {
			next = i + step
		}
		i = next
	}
	return chunks
}

func lastBreak(runes []rune, from, to int) int {
	for j := to; j > from; j-- {
		if r := runes[j-1]; r == ' ' || r == '\n' {
			return j
		}
	}
	return 0
}
