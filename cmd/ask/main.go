// Command ask sends one question to a running lucide server and prints
// the answer rendered as markdown.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"lucide-core/internal/dto"
	"lucide-core/internal/pkg/serverutils"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"golang.org/x/term"
)

func main() {
	baseURL := flag.String("server", envOr("LUCIDE_SERVER", "http://localhost:3000/api"), "api base url")
	token := flag.String("token", os.Getenv("LUCIDE_TOKEN"), "bearer token")
	raw := flag.Bool("raw", false, "print the answer without markdown rendering")
	flag.Parse()

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, `usage: ask [-server URL] [-token T] "question"`)
		os.Exit(2)
	}

	c := &client{baseURL: strings.TrimRight(*baseURL, "/"), token: *token, http: &http.Client{Timeout: 5 * time.Minute}}

	var res serverutils.BaseResponse[dto.SendMessageResponse]
	if err := c.do(http.MethodPost, "/ask/v1/messages", dto.SendMessageRequest{Text: question}, &res); err != nil {
		color.Red("request failed: %v", err)
		os.Exit(1)
	}
	if !res.Data.Success {
		if res.Data.Cancelled {
			color.Yellow("cancelled: %s", res.Data.Error)
		} else {
			color.Red("error: %s", res.Data.Error)
		}
		os.Exit(1)
	}
	if res.Data.SessionId == nil {
		color.Red("server returned no session")
		os.Exit(1)
	}

	var msgs serverutils.BaseResponse[[]dto.MessageResponse]
	if err := c.do(http.MethodGet, "/session/v1/"+res.Data.SessionId.String()+"/messages", nil, &msgs); err != nil {
		color.Red("fetch answer: %v", err)
		os.Exit(1)
	}

	answer, found := lastAssistant(msgs.Data)
	if !found {
		color.Yellow("no answer stored")
		return
	}
	fmt.Print(render(answer.Content, *raw))
	for _, cit := range answer.Citations {
		if cit.PageNumber > 0 {
			color.HiBlack("  [%s p.%d]", cit.Title, cit.PageNumber)
		} else {
			color.HiBlack("  [%s]", cit.Title)
		}
	}
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func (c *client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e serverutils.BaseResponse[any]
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return fmt.Errorf("%s: %s", resp.Status, e.Message)
		}
		return fmt.Errorf("%s", resp.Status)
	}
	return json.Unmarshal(data, out)
}

func lastAssistant(msgs []dto.MessageResponse) (dto.MessageResponse, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "assistant" {
			return msgs[i], true
		}
	}
	return dto.MessageResponse{}, false
}

// render falls back to plain text when stdout is not a terminal.
func render(markdown string, raw bool) string {
	fd := int(os.Stdout.Fd())
	if raw || !term.IsTerminal(fd) {
		return markdown + "\n"
	}

	width := 80
	if w, _, err := term.GetSize(fd); err == nil && w > 20 {
		width = w
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return markdown + "\n"
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown + "\n"
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
