package document

import "strings"

const pageSeparator = "\n\n"

// JoinPages concatenates per-page text and records exact page ranges.
// Each separator is attributed to the page before it so the ranges
// partition the whole text.
func JoinPages(pages []string) (string, []PageBreak) {
	var sb strings.Builder
	breaks := make([]PageBreak, 0, len(pages))
	offset := 0

	for i, p := range pages {
		start := offset
		sb.WriteString(p)
		offset += runeLen(p)
		if i < len(pages)-1 {
			sb.WriteString(pageSeparator)
			offset += runeLen(pageSeparator)
		}
		breaks = append(breaks, PageBreak{PageNumber: i + 1, CharStart: start, CharEnd: offset})
	}
	return sb.String(), breaks
}

// InferPageBreaks approximates page ranges for text extracted as a single
// block. Form feeds are used when their count matches the page count,
// otherwise the text is split evenly. Both are approximations.
func InferPageBreaks(text string, pageCount int) ([]PageBreak, PageBreakMethod) {
	total := runeLen(text)
	if pageCount <= 0 || total == 0 {
		return nil, PageBreakNone
	}
	if pageCount == 1 {
		return []PageBreak{{PageNumber: 1, CharStart: 0, CharEnd: total}}, PageBreakPerPage
	}

	if breaks, ok := formFeedBreaks(text, pageCount); ok {
		return breaks, PageBreakFormFeed
	}
	return evenBreaks(total, pageCount), PageBreakEven
}

func formFeedBreaks(text string, pageCount int) ([]PageBreak, bool) {
	var positions []int
	idx := 0
	for _, r := range text {
		if r == '\f' {
			positions = append(positions, idx)
		}
		idx++
	}
	total := idx

	// Some parsers emit a trailing form feed after the last page.
	if len(positions) == pageCount && positions[len(positions)-1] == total-1 {
		positions = positions[:len(positions)-1]
	}
	if len(positions) != pageCount-1 {
		return nil, false
	}

	breaks := make([]PageBreak, 0, pageCount)
	start := 0
	for i, pos := range positions {
		breaks = append(breaks, PageBreak{PageNumber: i + 1, CharStart: start, CharEnd: pos + 1})
		start = pos + 1
	}
	breaks = append(breaks, PageBreak{PageNumber: pageCount, CharStart: start, CharEnd: total})
	return breaks, true
}

func evenBreaks(total, pageCount int) []PageBreak {
	breaks := make([]PageBreak, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		start := total * i / pageCount
		end := total * (i + 1) / pageCount
		breaks = append(breaks, PageBreak{PageNumber: i + 1, CharStart: start, CharEnd: end})
	}
	return breaks
}

// PageForOffset returns the page containing rune offset, or 0 when breaks
// are empty. Offsets past the end map to the last page.
func PageForOffset(breaks []PageBreak, offset int) int {
	if len(breaks) == 0 {
		return 0
	}
	for _, b := range breaks {
		if offset >= b.CharStart && offset < b.CharEnd {
			return b.PageNumber
		}
	}
	if offset < breaks[0].CharStart {
		return breaks[0].PageNumber
	}
	return breaks[len(breaks)-1].PageNumber
}

func runeLen(s string) int {
	return len([]rune(s))
}
