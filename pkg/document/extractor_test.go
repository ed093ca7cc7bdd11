package document

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPartition(t *testing.T, text string, breaks []PageBreak) {
	t.Helper()
	require.NotEmpty(t, breaks)
	total := len([]rune(text))
	assert.Equal(t, 0, breaks[0].CharStart)
	for i, b := range breaks {
		assert.Equal(t, i+1, b.PageNumber)
		assert.LessOrEqual(t, b.CharStart, b.CharEnd)
		if i > 0 {
			assert.Equal(t, breaks[i-1].CharEnd, b.CharStart, "ranges must be contiguous")
		}
	}
	assert.Equal(t, total, breaks[len(breaks)-1].CharEnd)
}

func TestPDFExtraction_ThreePagesWithPageInfo(t *testing.T) {
	buf := buildPDF([]string{"Introduction page", "Results page", "Conclusion page"})
	ex := NewExtractor(NewRegistry(PDFCodec{}))

	res, err := ex.Extract(context.Background(), buf, FileTypePDF, ExtractOptions{WithPageInfo: true})

	require.NoError(t, err)
	assert.Equal(t, 3, res.PageCount)
	require.Len(t, res.PageBreaks, 3)
	assert.Equal(t, PageBreakPerPage, res.PageBreakMethod)
	assertPartition(t, res.Text, res.PageBreaks)

	runes := []rune(res.Text)
	second := string(runes[res.PageBreaks[1].CharStart:res.PageBreaks[1].CharEnd])
	assert.Contains(t, second, "Results")
}

func TestPDFExtraction_WithoutPageInfoDropsBreaks(t *testing.T) {
	buf := buildPDF([]string{"alpha", "beta"})
	ex := NewExtractor(NewRegistry(PDFCodec{}))

	res, err := ex.Extract(context.Background(), buf, FileTypePDF, ExtractOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, res.PageCount)
	assert.Nil(t, res.PageBreaks)
	assert.Contains(t, res.Text, "alpha")
}

func TestPDFExtraction_ScannedReturnsSentinel(t *testing.T) {
	buf := buildPDF([]string{"", ""})
	require.True(t, ValidateFile(buf, FileTypePDF, "scan.pdf").Valid)

	ex := NewExtractor(NewRegistry(PDFCodec{}))
	res, err := ex.Extract(context.Background(), buf, FileTypePDF, ExtractOptions{WithPageInfo: true})

	require.NoError(t, err)
	assert.Equal(t, NoTextSentinel, res.Text)
	assert.Equal(t, 2, res.PageCount)
}

func TestPDFExtraction_GarbageIsExtractionError(t *testing.T) {
	ex := NewExtractor(NewRegistry(PDFCodec{}))

	_, err := ex.Extract(context.Background(), []byte("%PDF-1.4 garbage"), FileTypePDF, ExtractOptions{})

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, FileTypePDF, extErr.Format)
}

func TestIsPasswordError(t *testing.T) {
	assert.True(t, isPasswordError(errors.New("encrypted PDF: invalid password")))
	assert.False(t, isPasswordError(errors.New("malformed xref")))
}

func TestDocxExtraction(t *testing.T) {
	ex := NewExtractor(NewRegistry(DocxCodec{}))

	res, err := ex.Extract(context.Background(), buildDocx("Premier paragraphe", "Second"), FileTypeDOCX, ExtractOptions{WithPageInfo: true})

	require.NoError(t, err)
	assert.Equal(t, "Premier paragraphe\nSecond", res.Text)
	assert.Nil(t, res.PageBreaks)
}

func TestDocxExtraction_EmptyReturnsSentinel(t *testing.T) {
	ex := NewExtractor(NewRegistry(DocxCodec{}))

	res, err := ex.Extract(context.Background(), buildDocx(), FileTypeDOCX, ExtractOptions{})

	require.NoError(t, err)
	assert.Equal(t, NoTextSentinel, res.Text)
}

func TestDocxExtraction_CorruptZip(t *testing.T) {
	buf := buildDocx("text")
	ex := NewExtractor(NewRegistry(DocxCodec{}))

	_, err := ex.Extract(context.Background(), buf[:len(buf)-30], FileTypeDOCX, ExtractOptions{})

	var corrupt *DocxCorruptError
	require.ErrorAs(t, err, &corrupt)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, FileTypeDOCX, extErr.Format)
}

func TestTextExtractionIsVerbatim(t *testing.T) {
	ex := NewExtractor(NewRegistry(TextCodec{}))

	res, err := ex.Extract(context.Background(), []byte("  line one\r\nline two  "), FileTypeMD, ExtractOptions{})

	require.NoError(t, err)
	assert.Equal(t, "  line one\r\nline two  ", res.Text)
}

type stubCodec struct {
	available error
	panics    bool
}

func (s stubCodec) Name() string        { return "stub" }
func (s stubCodec) Formats() []FileType { return []FileType{FileTypePNG} }
func (s stubCodec) Available() error    { return s.available }
func (s stubCodec) Extract(context.Context, []byte, ExtractOptions) (*ExtractionResult, error) {
	if s.panics {
		panic("boom")
	}
	return &ExtractionResult{Text: "ok"}, nil
}

func TestRegistry_UnavailableCodec(t *testing.T) {
	ex := NewExtractor(NewRegistry(stubCodec{available: errors.New("tesseract not found")}))

	_, err := ex.Extract(context.Background(), pngHeader, FileTypePNG, ExtractOptions{})

	var unavailable *UnavailableCodecError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "stub", unavailable.Codec)
	assert.Contains(t, err.Error(), "tesseract not found")
}

func TestRegistry_MissingCodec(t *testing.T) {
	ex := NewExtractor(NewRegistry())

	_, err := ex.Extract(context.Background(), []byte("x"), FileTypeTXT, ExtractOptions{})

	var unavailable *UnavailableCodecError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, FileTypeTXT, unavailable.Format)
}

func TestExtractor_RecoversCodecPanic(t *testing.T) {
	ex := NewExtractor(NewRegistry(stubCodec{panics: true}))

	_, err := ex.Extract(context.Background(), pngHeader, FileTypePNG, ExtractOptions{})

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, err.Error(), "panic")
}

func TestRegistry_Status(t *testing.T) {
	reg := NewRegistry(TextCodec{}, stubCodec{available: errors.New("missing")})

	st := reg.Status()

	require.Len(t, st, 2)
	assert.Equal(t, "stub", st[0].Name)
	assert.False(t, st[0].Available)
	assert.Equal(t, "text", st[1].Name)
	assert.True(t, st[1].Available)
}
