package document

import (
	"path/filepath"
	"strings"
)

type FileType string

const (
	FileTypeTXT  FileType = "txt"
	FileTypeMD   FileType = "md"
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeJPG  FileType = "jpg"
	FileTypeJPEG FileType = "jpeg"
	FileTypePNG  FileType = "png"
	FileTypeGIF  FileType = "gif"
)

// SupportedTypes lists every accepted upload extension, in display order.
var SupportedTypes = []FileType{
	FileTypeTXT, FileTypeMD, FileTypePDF, FileTypeDOCX,
	FileTypeJPG, FileTypeJPEG, FileTypePNG, FileTypeGIF,
}

// NoTextSentinel replaces the text of documents that parse correctly but
// yield no characters, typically scanned PDFs.
const NoTextSentinel = "[Document contains no extractable text - may be image-based or protected]"

func (t FileType) IsText() bool {
	return t == FileTypeTXT || t == FileTypeMD
}

func (t FileType) IsImage() bool {
	switch t {
	case FileTypeJPG, FileTypeJPEG, FileTypePNG, FileTypeGIF:
		return true
	}
	return false
}

func (t FileType) IsSupported() bool {
	for _, s := range SupportedTypes {
		if s == t {
			return true
		}
	}
	return false
}

// FileTypeFromFilename derives the declared type from the extension.
// The second return is false for unknown or missing extensions.
func FileTypeFromFilename(filename string) (FileType, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	ft := FileType(ext)
	return ft, ext != "" && ft.IsSupported()
}

// PageBreak is a half-open rune range [CharStart, CharEnd) of the
// extracted text belonging to PageNumber (1-based).
type PageBreak struct {
	PageNumber int `json:"page_number"`
	CharStart  int `json:"char_start"`
	CharEnd    int `json:"char_end"`
}

// PageBreakMethod records how page boundaries were obtained.
type PageBreakMethod string

const (
	PageBreakNone     PageBreakMethod = "none"
	PageBreakPerPage  PageBreakMethod = "per_page"
	PageBreakFormFeed PageBreakMethod = "form_feed"
	// PageBreakEven splits the text evenly across pages. Citations derived
	// from it can point at the wrong page for unevenly distributed text.
	PageBreakEven PageBreakMethod = "even_division"
)

// ExtractionResult is the output of a codec. PageCount and PageBreaks are
// only set for page-aware formats.
type ExtractionResult struct {
	Text            string
	PageCount       int
	PageBreaks      []PageBreak
	PageBreakMethod PageBreakMethod
}

type ExtractOptions struct {
	WithPageInfo bool
	Filename     string
}

// ValidationResult aggregates content and structural checks.
type ValidationResult struct {
	Valid        bool
	Errors       []string
	Warnings     []string
	DetectedType FileType
}
