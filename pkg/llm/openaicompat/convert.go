package openaicompat

import (
	"encoding/base64"
	"fmt"

	"lucide-core/pkg/llm"

	"github.com/sashabaranov/go-openai"
)

func toOpenAIMessages(msgs []llm.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		if len(m.Parts) == 0 {
			out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
			continue
		}

		parts := make([]openai.ChatMessagePart, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch p.Type {
			case llm.PartText:
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: p.Text,
				})
			case llm.PartImage:
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL(p.MimeType, p.ImageData),
						Detail: openai.ImageURLDetailAuto,
					},
				})
			}
		}
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, MultiContent: parts})
	}
	return out
}

func dataURL(mime string, data []byte) string {
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

func fromLLMMessages(history []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(history))
	for i, m := range history {
		role := m.Role
		if role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}
