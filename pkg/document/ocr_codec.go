package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const DefaultOCRLanguages = "fra+eng"

// OCRCodec shells out to the tesseract CLI.
type OCRCodec struct {
	Binary    string
	Languages string
	TempDir   string
}

func NewOCRCodec(binary, languages string) *OCRCodec {
	if binary == "" {
		binary = "tesseract"
	}
	if languages == "" {
		languages = DefaultOCRLanguages
	}
	return &OCRCodec{Binary: binary, Languages: languages}
}

func (c *OCRCodec) Name() string { return "tesseract" }

func (c *OCRCodec) Formats() []FileType {
	return []FileType{FileTypeJPG, FileTypeJPEG, FileTypePNG, FileTypeGIF}
}

func (c *OCRCodec) Available() error {
	if _, err := exec.LookPath(c.Binary); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", c.Binary, err)
	}
	return nil
}

func (c *OCRCodec) Extract(ctx context.Context, data []byte, opts ExtractOptions) (*ExtractionResult, error) {
	ext := ".img"
	if t, ok := DetectType(data); ok {
		ext = "." + string(t)
	}

	f, err := os.CreateTemp(c.TempDir, "lucide-ocr-*"+ext)
	if err != nil {
		return nil, &OCRError{Cause: err}
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, &OCRError{Cause: err}
	}
	if err := f.Close(); err != nil {
		return nil, &OCRError{Cause: err}
	}

	text, err := c.RecognizeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return &ExtractionResult{Text: text, PageBreakMethod: PageBreakNone}, nil
}

// RecognizeFile runs OCR on an image already on disk.
func (c *OCRCodec) RecognizeFile(ctx context.Context, path string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Binary, path, "stdout", "-l", c.Languages)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &OCRError{Cause: err, Stderr: strings.TrimSpace(stderr.String())}
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", &OCREmptyError{}
	}
	return text, nil
}
