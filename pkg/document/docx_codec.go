package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxCodec reads word/document.xml and keeps paragraph, tab and break
// structure as plain text.
type DocxCodec struct{}

func (DocxCodec) Name() string { return "docx" }

func (DocxCodec) Formats() []FileType { return []FileType{FileTypeDOCX} }

func (DocxCodec) Available() error { return nil }

func (DocxCodec) Extract(ctx context.Context, data []byte, _ ExtractOptions) (*ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &DocxCorruptError{Cause: err}
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return nil, &DocxCorruptError{Cause: errors.New("word/document.xml not found")}
	}

	rc, err := body.Open()
	if err != nil {
		return nil, &DocxCorruptError{Cause: err}
	}
	defer rc.Close()

	text, err := docxText(ctx, rc)
	if err != nil {
		if isCorruptZipError(err) {
			return nil, &DocxCorruptError{Cause: err}
		}
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return &ExtractionResult{Text: NoTextSentinel, PageBreakMethod: PageBreakNone}, nil
	}
	return &ExtractionResult{Text: text, PageBreakMethod: PageBreakNone}, nil
}

func docxText(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func isCorruptZipError(err error) bool {
	if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrChecksum) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "end of data") || strings.Contains(msg, "unexpected eof") || strings.Contains(msg, "flate")
}
