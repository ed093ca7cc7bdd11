package rag

import (
	"fmt"
	"strings"
)

type PromptResult struct {
	Prompt     string
	Sources    []Source
	HasContext bool
}

// BuildKnowledgeBaseAwarePrompt appends the knowledge base status to
// basePrompt, and the numbered sources when rc holds any. A nil status
// is reported as unknown so the model never claims an empty library.
func BuildKnowledgeBaseAwarePrompt(query, basePrompt string, status *Status, rc *RetrievedContext) PromptResult {
	var b strings.Builder
	b.WriteString(strings.TrimRight(basePrompt, "\n"))
	b.WriteString("\n\n<knowledge_base>\n")

	switch {
	case status == nil:
		b.WriteString("The status of the user's document library is currently unknown.\n")
	case status.DocumentCount == 0:
		b.WriteString("The user has not uploaded any documents yet. If asked about their documents, say so and suggest uploading files.\n")
	default:
		fmt.Fprintf(&b, "The user has %d document(s) in their library, %d of them indexed (%d searchable passages).\n",
			status.DocumentCount, status.IndexedCount, status.ChunkCount)
	}

	res := PromptResult{HasContext: rc != nil && rc.HasContext}
	if res.HasContext {
		res.Sources = rc.Sources
		b.WriteString("Passages retrieved for this question:\n\n")
		b.WriteString(rc.Text)
		b.WriteString("Ground your answer in these passages when they are relevant and cite them as [n]. ")
		b.WriteString("If they do not answer the question, say so before using general knowledge.\n")
	} else if status != nil && status.DocumentCount > 0 {
		fmt.Fprintf(&b, "No passage matched %q closely enough; answer from general knowledge and mention it.\n", truncate(query, 120))
	}
	b.WriteString("</knowledge_base>")

	res.Prompt = b.String()
	return res
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
