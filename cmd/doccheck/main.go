// Command doccheck validates and extracts a document the way an upload
// would, without a server or database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lucide-core/internal/config"
	"lucide-core/pkg/document"

	"github.com/fatih/color"
)

func main() {
	preview := flag.Int("preview", 400, "characters of extracted text to print")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: doccheck [-preview N] <file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	registry := document.DefaultRegistry(document.NewOCRCodec(cfg.Document.TesseractPath, cfg.Document.OCRLanguages))

	color.Cyan("Codecs")
	for _, st := range registry.Status() {
		if st.Available {
			color.Green("  %-10s %v", st.Name, st.Formats)
		} else {
			color.Red("  %-10s %v (%s)", st.Name, st.Formats, st.Reason)
		}
	}

	path := flag.Arg(0)
	if !check(path, cfg.Document, registry, *preview) {
		os.Exit(1)
	}
}

func check(path string, cfg config.DocumentConfig, registry *document.Registry, preview int) bool {
	name := filepath.Base(path)
	color.Cyan("\nFile %s", name)

	ft, ok := document.FileTypeFromFilename(name)
	if !ok {
		color.Red("  %v", &document.UnsupportedTypeError{Filename: name, Extension: strings.TrimPrefix(filepath.Ext(name), ".")})
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		color.Red("  %v", err)
		return false
	}
	if info.Size() > cfg.MaxFileSizeBytes() {
		color.Red("  %v", &document.FileTooLargeError{Size: info.Size(), MaxSize: cfg.MaxFileSizeBytes(), MaxLabel: cfg.MaxFileSizeLabel()})
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		color.Red("  %v", err)
		return false
	}

	v := document.ValidateFile(data, ft, name)
	for _, w := range v.Warnings {
		color.Yellow("  warning: %s", w)
	}
	if !v.Valid {
		for _, e := range v.Errors {
			color.Red("  invalid: %s", e)
		}
		return false
	}
	color.Green("  valid %s (%d bytes, detected %s)", ft, info.Size(), v.DetectedType)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	started := time.Now()
	res, err := document.NewExtractor(registry).Extract(ctx, data, ft, document.ExtractOptions{WithPageInfo: true, Filename: name})
	if err != nil {
		color.Red("  %v", err)
		return false
	}
	color.Green("  extracted %d characters in %s", len([]rune(res.Text)), time.Since(started).Round(time.Millisecond))
	if res.PageCount > 0 {
		fmt.Printf("  pages: %d, breaks: %d (%s)\n", res.PageCount, len(res.PageBreaks), res.PageBreakMethod)
	}
	if res.Text == document.NoTextSentinel {
		color.Yellow("  no extractable text")
	}

	text := []rune(res.Text)
	if preview > 0 && len(text) > 0 {
		if len(text) > preview {
			text = append(text[:preview], []rune("...")...)
		}
		color.White("\n%s", string(text))
	}
	return true
}
