package llm

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const maxFrameSize = 1024 * 1024

// Frame is one `data:` payload of an event stream.
type Frame struct {
	Data string
	Done bool
}

// StreamDecoder reads newline-delimited `data: <json|[DONE]>` frames.
type StreamDecoder struct {
	scanner *bufio.Scanner
}

func NewStreamDecoder(r io.Reader) *StreamDecoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &StreamDecoder{scanner: s}
}

// Next returns the next data frame, or io.EOF when the stream ends
// without a [DONE] sentinel.
func (d *StreamDecoder) Next() (Frame, error) {
	for d.scanner.Scan() {
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return Frame{Done: true}, nil
		}
		return Frame{Data: data}, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}

// ErrMalformedFrame marks a data frame that is not a completion chunk.
var ErrMalformedFrame = errors.New("malformed stream frame")

type streamErrorPayload struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// DeltaContent extracts choices[0].delta.content from a frame. Frames that
// carry an error object are reported as *APIError.
func DeltaContent(f Frame) (string, error) {
	var errPayload streamErrorPayload
	if err := json.Unmarshal([]byte(f.Data), &errPayload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if errPayload.Error != nil {
		return "", &APIError{StatusCode: 200, Body: errPayload.Error.Message}
	}

	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(f.Data), &chunk); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}
