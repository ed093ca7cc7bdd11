package document

import (
	"fmt"
	"strings"
)

type UnsupportedTypeError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedTypeError) Error() string {
	types := make([]string, len(SupportedTypes))
	for i, t := range SupportedTypes {
		types[i] = string(t)
	}
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file type %q for %s; supported types: %s", ext, e.Filename, strings.Join(types, ", "))
}

type FileTooLargeError struct {
	Size     int64
	MaxSize  int64
	MaxLabel string
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file is too large (%d bytes); maximum allowed size is %s", e.Size, e.MaxLabel)
}

// InvalidFileError carries every validation failure reason.
type InvalidFileError struct {
	Filename string
	Reasons  []string
}

func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("invalid file %s: %s", e.Filename, strings.Join(e.Reasons, "; "))
}

// ExtractionError is the only error type extraction surfaces to callers.
// Cause is one of the format errors below or the parser error itself.
type ExtractionError struct {
	Format FileType
	Cause  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Format, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

type PDFProtectedError struct {
	Cause error
}

func (e *PDFProtectedError) Error() string {
	return "PDF is password protected or encrypted"
}

func (e *PDFProtectedError) Unwrap() error {
	return e.Cause
}

type DocxCorruptError struct {
	Cause error
}

func (e *DocxCorruptError) Error() string {
	return fmt.Sprintf("DOCX file is corrupted or incomplete: %v", e.Cause)
}

func (e *DocxCorruptError) Unwrap() error {
	return e.Cause
}

// OCREmptyError means OCR ran but recognized no text.
type OCREmptyError struct{}

func (e *OCREmptyError) Error() string {
	return "no readable text found in image"
}

// OCRError means the OCR engine itself failed.
type OCRError struct {
	Cause  error
	Stderr string
}

func (e *OCRError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("OCR failed: %v: %s", e.Cause, e.Stderr)
	}
	return fmt.Sprintf("OCR failed: %v", e.Cause)
}

func (e *OCRError) Unwrap() error {
	return e.Cause
}

// UnavailableCodecError is returned when no usable codec is registered for
// a format.
type UnavailableCodecError struct {
	Format FileType
	Codec  string
	Reason string
}

func (e *UnavailableCodecError) Error() string {
	if e.Codec == "" {
		return fmt.Sprintf("no codec registered for %s", e.Format)
	}
	return fmt.Sprintf("codec %s for %s is unavailable: %s", e.Codec, e.Format, e.Reason)
}
