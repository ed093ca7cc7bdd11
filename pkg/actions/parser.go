package actions

import (
	"regexp"
	"strings"
)

const (
	openPrefix  = "<<"
	closePrefix = "<</"
	tagSuffix   = ">>"
)

var knownKinds = map[Kind]bool{
	KindEmail:         true,
	KindTask:          true,
	KindProfileSwitch: true,
	KindUploadRequest: true,
	KindQuery:         true,
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ParseResult holds the directives in order of appearance and the text
// with every well-formed directive removed.
type ParseResult struct {
	Actions   []Action
	CleanText string
}

// Parse scans text once. Unknown or unterminated tags are left in the
// clean text untouched. Parse holds no state between calls.
func Parse(text string) ParseResult {
	var res ParseResult
	var clean strings.Builder

	i := 0
	for i < len(text) {
		open := strings.Index(text[i:], openPrefix)
		if open < 0 {
			clean.WriteString(text[i:])
			break
		}
		open += i

		kind, bodyStart, ok := readOpenTag(text, open)
		if !ok {
			clean.WriteString(text[i : open+len(openPrefix)])
			i = open + len(openPrefix)
			continue
		}

		closing := closePrefix + string(kind) + tagSuffix
		end := strings.Index(text[bodyStart:], closing)
		if end < 0 {
			clean.WriteString(text[i : open+len(openPrefix)])
			i = open + len(openPrefix)
			continue
		}
		end += bodyStart

		clean.WriteString(text[i:open])
		if a, valid := build(kind, parseFields(kind, text[bodyStart:end])); valid {
			res.Actions = append(res.Actions, a)
		}
		i = end + len(closing)
	}

	res.CleanText = strings.TrimSpace(blankRuns.ReplaceAllString(clean.String(), "\n\n"))
	return res
}

// HasActions reports whether text contains at least one well-formed
// directive.
func HasActions(text string) bool {
	return len(Parse(text).Actions) > 0
}

func readOpenTag(text string, at int) (Kind, int, bool) {
	start := at + len(openPrefix)
	j := start
	for j < len(text) && (text[j] >= 'A' && text[j] <= 'Z' || text[j] == '_') {
		j++
	}
	if j == start || !strings.HasPrefix(text[j:], tagSuffix) {
		return "", 0, false
	}
	kind := Kind(text[start:j])
	if !knownKinds[kind] {
		return "", 0, false
	}
	return kind, j + len(tagSuffix), true
}

func parseFields(kind Kind, body string) map[string]string {
	aliases := fieldAliases[kind]
	fields := make(map[string]string)
	current := defaultField[kind]

	for _, line := range strings.Split(body, "\n") {
		if key, value, ok := strings.Cut(line, ":"); ok {
			if canonical, known := aliases[strings.ToLower(strings.TrimSpace(key))]; known {
				current = canonical
				fields[current] = strings.TrimSpace(value)
				continue
			}
		}
		trimmed := strings.TrimRight(line, " \t\r")
		if fields[current] == "" {
			fields[current] = strings.TrimSpace(trimmed)
		} else {
			fields[current] += "\n" + trimmed
		}
	}

	for k, v := range fields {
		fields[k] = strings.TrimSpace(v)
	}
	return fields
}
