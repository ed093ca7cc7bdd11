package document

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFCodec extracts text page by page with ledongthuc/pdf.
type PDFCodec struct{}

func (PDFCodec) Name() string { return "pdf" }

func (PDFCodec) Formats() []FileType { return []FileType{FileTypePDF} }

func (PDFCodec) Available() error { return nil }

func (c PDFCodec) Extract(ctx context.Context, data []byte, _ ExtractOptions) (*ExtractionResult, error) {
	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if isPasswordError(err) {
			return nil, &PDFProtectedError{Cause: err}
		}
		return nil, err
	}

	n := rdr.NumPage()
	pages, ok := c.pageTexts(ctx, rdr, n)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ok {
		text, breaks := JoinPages(pages)
		if strings.TrimSpace(text) == "" {
			return &ExtractionResult{Text: NoTextSentinel, PageCount: n, PageBreakMethod: PageBreakNone}, nil
		}
		return &ExtractionResult{Text: text, PageCount: n, PageBreaks: breaks, PageBreakMethod: PageBreakPerPage}, nil
	}

	// Per-page extraction failed somewhere: fall back to whole-document
	// text and approximate the page ranges.
	text, err := c.wholeText(rdr)
	if err != nil {
		if isPasswordError(err) {
			return nil, &PDFProtectedError{Cause: err}
		}
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return &ExtractionResult{Text: NoTextSentinel, PageCount: n, PageBreakMethod: PageBreakNone}, nil
	}
	breaks, method := InferPageBreaks(text, n)
	return &ExtractionResult{Text: text, PageCount: n, PageBreaks: breaks, PageBreakMethod: method}, nil
}

func (PDFCodec) pageTexts(ctx context.Context, rdr *pdf.Reader, n int) ([]string, bool) {
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if ctx.Err() != nil {
			return nil, false
		}
		p := rdr.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			return nil, false
		}
		pages = append(pages, normalizePageText(txt))
	}
	return pages, true
}

func (PDFCodec) wholeText(rdr *pdf.Reader) (string, error) {
	r, err := rdr.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(b), "\r\n", "\n"), nil
}

func normalizePageText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
