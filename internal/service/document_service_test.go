package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"lucide-core/internal/config"
	"lucide-core/pkg/document"
	"lucide-core/pkg/document/documenttest"
	"lucide-core/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type documentFixture struct {
	store     *memStore
	remover   *recordingRemover
	publisher *recordingPublisher
	svc       IDocumentService
}

func newDocumentFixture(maxMB int, codecs ...document.Codec) *documentFixture {
	if len(codecs) == 0 {
		codecs = []document.Codec{document.TextCodec{}, document.PDFCodec{}, document.DocxCodec{}}
	}
	f := &documentFixture{
		store:     newMemStore(),
		remover:   &recordingRemover{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewDocumentService(
		f.store,
		document.NewExtractor(document.NewRegistry(codecs...)),
		f.remover,
		f.publisher,
		config.DocumentConfig{MaxFileSizeMB: maxMB},
		testLogger,
	)
	return f
}

func TestUpload_ThreePagePDF(t *testing.T) {
	f := newDocumentFixture(10)
	owner := uuid.New()
	data := documenttest.BuildPDF([]string{"Introduction page", "Results page", "Conclusion page"})

	doc, err := f.svc.Upload(context.Background(), owner, FileData{Filename: "report.pdf", Data: data}, nil)
	require.NoError(t, err)

	assert.Equal(t, "report", doc.Title)
	assert.Equal(t, document.FileTypePDF, doc.FileType)
	assert.Equal(t, 3, doc.PageCount)
	assert.Len(t, doc.PageBreaks, 3)
	assert.Equal(t, document.PageBreakPerPage, doc.PageBreakMethod)
	assert.False(t, doc.Indexed)
	assert.Equal(t, 0, doc.ChunkCount)
	assert.Contains(t, doc.Content, "Results")
	assert.Equal(t, []string{events.TypeDocumentUploaded}, f.publisher.types())

	stored := f.store.documents[doc.Id]
	require.NotNil(t, stored)
	assert.Nil(t, stored.PageBreaks)

	indexable, err := f.svc.Indexable(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, owner, indexable.UserID)
	assert.Empty(t, indexable.PageBreaks)
}

func TestUpload_UpperCaseExtensionTitle(t *testing.T) {
	f := newDocumentFixture(10)
	data := documenttest.BuildPDF([]string{"Quarterly numbers"})

	doc, err := f.svc.Upload(context.Background(), uuid.New(), FileData{Filename: "Report.PDF", Data: data}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Report", doc.Title)
	assert.Equal(t, document.FileTypePDF, doc.FileType)
}

func TestTitleFromFilename(t *testing.T) {
	cases := map[string]string{
		"report.pdf":  "report",
		"Report.PDF":  "Report",
		"notes.v2.Md": "notes.v2",
		"README":      "README",
		"trailing.":   "trailing.",
	}
	for in, want := range cases {
		assert.Equal(t, want, titleFromFilename(in), in)
	}
}

func TestUpload_FromPath(t *testing.T) {
	f := newDocumentFixture(10)
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\n\nbody"), 0o600))

	doc, err := f.svc.Upload(context.Background(), uuid.New(), FileData{Filename: "notes.md", Path: path}, &Metadata{
		Title: "Meeting notes",
		Tags:  []string{"work", " Work ", "", "q3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Meeting notes", doc.Title)
	assert.Equal(t, "# Notes\n\nbody", doc.Content)
	assert.Equal(t, []string{"work", "q3"}, doc.Tags)
	assert.Equal(t, int64(len("# Notes\n\nbody")), doc.FileSize)
	assert.Empty(t, doc.PageBreaks)
}

func TestUpload_Rejections(t *testing.T) {
	f := newDocumentFixture(1)
	ctx := context.Background()
	owner := uuid.New()

	_, err := f.svc.Upload(ctx, owner, FileData{Filename: "setup.exe", Data: []byte("MZ")}, nil)
	var unsupported *document.UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "exe", unsupported.Extension)

	big := bytes.Repeat([]byte("a"), 2*1024*1024)
	_, err = f.svc.Upload(ctx, owner, FileData{Filename: "big.txt", Data: big}, nil)
	var tooLarge *document.FileTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "1MB", tooLarge.MaxLabel)

	disguised := append(append([]byte{}, documenttest.PNGHeader...), bytes.Repeat([]byte{0}, 64)...)
	_, err = f.svc.Upload(ctx, owner, FileData{Filename: "scan.pdf", Data: disguised}, nil)
	var invalid *document.InvalidFileError
	require.ErrorAs(t, err, &invalid)

	_, err = f.svc.Upload(ctx, owner, FileData{Filename: "empty.txt"}, nil)
	require.ErrorAs(t, err, &invalid)

	assert.Empty(t, f.store.documents)
	assert.Empty(t, f.publisher.types())
}

func TestUpload_LargeFileOnDiskIsNotRead(t *testing.T) {
	f := newDocumentFixture(1)
	path := filepath.Join(t.TempDir(), "huge.txt")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("b"), 1024*1024+1), 0o600))

	_, err := f.svc.Upload(context.Background(), uuid.New(), FileData{Filename: "huge.txt", Path: path}, nil)
	var tooLarge *document.FileTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, int64(1024*1024+1), tooLarge.Size)
}

func TestUpload_SuppliedContentSkipsExtraction(t *testing.T) {
	// No text codec registered; extraction would fail.
	f := newDocumentFixture(10, document.PDFCodec{})

	doc, err := f.svc.Upload(context.Background(), uuid.New(), FileData{
		Filename: "clip.txt",
		Data:     []byte("raw"),
		Content:  "already extracted",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "already extracted", doc.Content)
}

func TestUpload_UnavailableCodec(t *testing.T) {
	f := newDocumentFixture(10, document.TextCodec{})

	_, err := f.svc.Upload(context.Background(), uuid.New(), FileData{
		Filename: "letter.docx",
		Data:     documenttest.BuildDocx("Dear team"),
	}, nil)
	var unavailable *document.UnavailableCodecError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, document.FileTypeDOCX, unavailable.Format)
}

func TestShowAndDelete_Ownership(t *testing.T) {
	f := newDocumentFixture(10)
	ctx := context.Background()
	owner := uuid.New()

	doc, err := f.svc.Upload(ctx, owner, FileData{Filename: "a.txt", Data: []byte("alpha")}, nil)
	require.NoError(t, err)

	_, err = f.svc.Show(ctx, uuid.New(), doc.Id)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	shown, err := f.svc.Show(ctx, owner, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "alpha", shown.Content)
	assert.Equal(t, []string{}, shown.Tags)

	assert.ErrorIs(t, f.svc.Delete(ctx, uuid.New(), doc.Id), ErrDocumentNotFound)
	require.NoError(t, f.svc.Delete(ctx, owner, doc.Id))
	assert.Equal(t, []uuid.UUID{doc.Id}, f.remover.removed)
	assert.Equal(t, []string{events.TypeDocumentUploaded, events.TypeDocumentDeleted}, f.publisher.types())

	gone, err := f.svc.Indexable(ctx, doc.Id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCountAndMarkIndexed(t *testing.T) {
	f := newDocumentFixture(10)
	ctx := context.Background()
	owner := uuid.New()

	a, err := f.svc.Upload(ctx, owner, FileData{Filename: "a.txt", Data: []byte("alpha")}, nil)
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, owner, FileData{Filename: "b.txt", Data: []byte("beta")}, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkIndexed(ctx, a.Id, 4))

	total, indexed, err := f.svc.CountDocuments(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), indexed)

	list, err := f.svc.List(ctx, owner, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCodecs(t *testing.T) {
	f := newDocumentFixture(10)
	names := make([]string, 0)
	for _, c := range f.svc.Codecs() {
		names = append(names, c.Name)
		assert.True(t, c.Available)
	}
	assert.Equal(t, []string{"docx", "pdf", "text"}, names)
}
