package document

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"
)

const (
	trailerWindow      = 1024
	minDocxSize        = 100
	maxControlCharRate = 0.10
)

type signature struct {
	fileType FileType
	magic    []byte
}

// signatures is checked in order when detecting the actual type of a
// buffer. jpg and jpeg share a signature so only jpg is listed.
var signatures = []signature{
	{FileTypePNG, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{FileTypePDF, []byte{0x25, 0x50, 0x44, 0x46, 0x2D}},
	{FileTypeDOCX, []byte{0x50, 0x4B, 0x03, 0x04}},
	{FileTypeGIF, []byte{0x47, 0x49, 0x46, 0x38}},
	{FileTypeJPG, []byte{0xFF, 0xD8, 0xFF}},
}

var (
	pdfHeaderPattern = regexp.MustCompile(`^%PDF-(\d+)\.(\d+)`)
	pdfObjectPattern = regexp.MustCompile(`\d+\s+\d+\s+obj`)

	zipEOCD = []byte{0x50, 0x4B, 0x05, 0x06}
)

func magicFor(t FileType) []byte {
	if t == FileTypeJPEG {
		t = FileTypeJPG
	}
	for _, s := range signatures {
		if s.fileType == t {
			return s.magic
		}
	}
	return nil
}

// DetectType returns the type whose signature matches buf at offset 0.
func DetectType(buf []byte) (FileType, bool) {
	for _, s := range signatures {
		if bytes.HasPrefix(buf, s.magic) {
			return s.fileType, true
		}
	}
	return "", false
}

// ContentCheck is the result of signature or text validation.
type ContentCheck struct {
	Valid        bool
	DetectedType FileType
	Error        string
}

// ValidateContent checks that buf really holds declaredType content.
func ValidateContent(buf []byte, declaredType FileType) ContentCheck {
	if len(buf) == 0 {
		return ContentCheck{Error: "file is empty"}
	}

	if declaredType.IsText() {
		return validateText(buf)
	}

	magic := magicFor(declaredType)
	if magic == nil {
		return ContentCheck{Error: fmt.Sprintf("no signature registered for type %s", declaredType)}
	}
	if bytes.HasPrefix(buf, magic) {
		return ContentCheck{Valid: true, DetectedType: declaredType}
	}

	detected, ok := DetectType(buf)
	if !ok {
		return ContentCheck{Error: fmt.Sprintf("file content does not match declared type %s (unknown signature)", declaredType)}
	}
	return ContentCheck{
		DetectedType: detected,
		Error:        fmt.Sprintf("file content does not match declared type %s (detected %s)", declaredType, detected),
	}
}

func validateText(buf []byte) ContentCheck {
	if bytes.IndexByte(buf, 0x00) >= 0 {
		return ContentCheck{Error: "text file contains null bytes (binary content)"}
	}

	total, control := 0, 0
	for i := 0; i < len(buf); {
		r, size := utf8.DecodeRune(buf[i:])
		i += size
		total++
		switch {
		case r == utf8.RuneError && size == 1:
			control++
		case r == '\n' || r == '\r' || r == '\t':
		case r < 0x20 || r == 0x7F:
			control++
		}
	}
	if float64(control)/float64(total) >= maxControlCharRate {
		return ContentCheck{Error: fmt.Sprintf("text file has too many control characters (%d of %d)", control, total)}
	}
	return ContentCheck{Valid: true, DetectedType: FileTypeTXT}
}

// StructureCheck is the result of structural validation.
type StructureCheck struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidateStructure runs integrity checks for pdf and docx. Other types
// have no structure to check and are always valid.
func ValidateStructure(buf []byte, t FileType) StructureCheck {
	switch t {
	case FileTypePDF:
		return validatePDFStructure(buf)
	case FileTypeDOCX:
		return validateDocxStructure(buf)
	}
	return StructureCheck{Valid: true}
}

func validatePDFStructure(buf []byte) StructureCheck {
	var res StructureCheck

	m := pdfHeaderPattern.FindSubmatch(buf)
	if m == nil {
		res.Errors = append(res.Errors, "PDF appears corrupted or truncated: invalid header")
	} else {
		major, _ := strconv.Atoi(string(m[1]))
		minor, _ := strconv.Atoi(string(m[2]))
		if !plausiblePDFVersion(major, minor) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unusual PDF version %d.%d", major, minor))
		}
	}

	if !bytes.Contains(tail(buf, trailerWindow), []byte("%%EOF")) {
		res.Errors = append(res.Errors, "PDF appears corrupted or truncated: missing %%EOF marker")
	}

	if !pdfObjectPattern.Match(buf) {
		res.Errors = append(res.Errors, "PDF appears corrupted or truncated: no objects found")
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func plausiblePDFVersion(major, minor int) bool {
	return (major == 1 && minor <= 7) || (major == 2 && minor == 0)
}

func validateDocxStructure(buf []byte) StructureCheck {
	var res StructureCheck

	if !bytes.HasPrefix(buf, magicFor(FileTypeDOCX)) {
		res.Errors = append(res.Errors, "DOCX appears corrupted: missing ZIP header")
	}
	if len(buf) < minDocxSize {
		res.Errors = append(res.Errors, fmt.Sprintf("DOCX appears truncated: %d bytes", len(buf)))
	}
	if !bytes.Contains(tail(buf, trailerWindow), zipEOCD) {
		res.Errors = append(res.Errors, "DOCX appears corrupted or truncated: missing ZIP end of central directory")
	}
	if !bytes.Contains(buf, []byte("[Content_Types].xml")) && !bytes.Contains(buf, []byte("word/document.xml")) {
		res.Errors = append(res.Errors, "DOCX appears corrupted: not a Word document package")
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func tail(buf []byte, n int) []byte {
	if len(buf) <= n {
		return buf
	}
	return buf[len(buf)-n:]
}

// ValidateFile runs content validation, then structural validation for
// pdf and docx. Content failure short-circuits.
func ValidateFile(buf []byte, t FileType, filename string) ValidationResult {
	content := ValidateContent(buf, t)
	if !content.Valid {
		return ValidationResult{
			Errors:       []string{fmt.Sprintf("%s: %s", filename, content.Error)},
			DetectedType: content.DetectedType,
		}
	}

	res := ValidationResult{Valid: true, DetectedType: content.DetectedType}
	if t == FileTypePDF || t == FileTypeDOCX {
		structure := ValidateStructure(buf, t)
		res.Warnings = structure.Warnings
		if !structure.Valid {
			res.Valid = false
			res.Errors = structure.Errors
		}
	}
	return res
}
