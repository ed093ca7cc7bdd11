package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lucide-core/internal/pkg/logger"
	"lucide-core/pkg/document"
	"lucide-core/pkg/embedding"
	"lucide-core/pkg/rag/vectorstore"
	"lucide-core/pkg/utils"

	"github.com/google/uuid"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 200
)

// IndexableDocument is the part of a stored document the indexer reads.
type IndexableDocument struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Title      string
	Content    string
	PageBreaks []document.PageBreak
}

type DocumentMarker interface {
	MarkIndexed(ctx context.Context, documentId uuid.UUID, chunkCount int) error
}

type Transcript struct {
	Title        string
	Text         string
	MessageCount int
}

type TranscriptSource interface {
	Transcript(ctx context.Context, sessionId uuid.UUID) (*Transcript, error)
}

type OCR interface {
	RecognizeFile(ctx context.Context, path string) (string, error)
}

type Indexer struct {
	store       vectorstore.Store
	embedder    embedding.EmbeddingProvider
	marker      DocumentMarker
	transcripts TranscriptSource
	ocr         OCR
	logger      logger.ILogger

	ChunkSize int
	Overlap   int
	TempDir   string
}

func NewIndexer(
	store vectorstore.Store,
	embedder embedding.EmbeddingProvider,
	marker DocumentMarker,
	transcripts TranscriptSource,
	ocr OCR,
	log logger.ILogger,
) *Indexer {
	return &Indexer{
		store:       store,
		embedder:    embedder,
		marker:      marker,
		transcripts: transcripts,
		ocr:         ocr,
		logger:      log,
		ChunkSize:   DefaultChunkSize,
		Overlap:     DefaultChunkOverlap,
		TempDir:     os.TempDir(),
	}
}

// IndexDocument replaces the chunks of doc and marks it indexed. Page
// numbers come from the page break containing each chunk's first rune.
func (ix *Indexer) IndexDocument(ctx context.Context, doc IndexableDocument) (int, error) {
	if strings.TrimSpace(doc.Content) == "" || doc.Content == document.NoTextSentinel {
		if err := ix.marker.MarkIndexed(ctx, doc.ID, 0); err != nil {
			return 0, err
		}
		return 0, nil
	}

	chunks, err := ix.embedChunks(ctx, doc.UserID, doc.ID, doc.Title, doc.Content, vectorstore.SourceDocument, doc.PageBreaks)
	if err != nil {
		return 0, err
	}
	if err := ix.store.Replace(ctx, doc.UserID, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	if err := ix.marker.MarkIndexed(ctx, doc.ID, len(chunks)); err != nil {
		return 0, fmt.Errorf("mark indexed: %w", err)
	}

	ix.logger.Info("INDEXER", "Document indexed", map[string]interface{}{
		"document_id": doc.ID.String(),
		"chunks":      len(chunks),
	})
	return len(chunks), nil
}

// IndexConversation stores the transcript of a session under the
// session id, replacing the previous version.
func (ix *Indexer) IndexConversation(ctx context.Context, userId, sessionId uuid.UUID) (int, error) {
	if ix.transcripts == nil {
		return 0, fmt.Errorf("conversation indexing is not configured")
	}
	tr, err := ix.transcripts.Transcript(ctx, sessionId)
	if err != nil {
		return 0, fmt.Errorf("load transcript: %w", err)
	}
	if tr == nil || strings.TrimSpace(tr.Text) == "" {
		return 0, nil
	}

	title := tr.Title
	if title == "" {
		title = "Conversation"
	}
	chunks, err := ix.embedChunks(ctx, userId, sessionId, title, tr.Text, vectorstore.SourceConversation, nil)
	if err != nil {
		return 0, err
	}
	if err := ix.store.Replace(ctx, userId, sessionId, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(chunks), nil
}

// IndexScreenshot OCRs the image through a temp file, which is removed
// whatever happens; a failed removal is only logged.
func (ix *Indexer) IndexScreenshot(ctx context.Context, userId, sessionId uuid.UUID, image []byte, mimeType string) (int, error) {
	if ix.ocr == nil {
		return 0, fmt.Errorf("screenshot indexing is not configured")
	}

	ext := ".png"
	if mimeType == "image/jpeg" {
		ext = ".jpg"
	}
	path := filepath.Join(ix.TempDir, "lucide-ocr-"+uuid.NewString()+ext)
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			ix.logger.Warn("INDEXER", "Failed to remove screenshot temp file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}()

	if err := os.WriteFile(path, image, 0o600); err != nil {
		return 0, fmt.Errorf("write screenshot: %w", err)
	}
	text, err := ix.ocr.RecognizeFile(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("ocr screenshot: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	id := uuid.New()
	chunks, err := ix.embedChunks(ctx, userId, id, "Screenshot", text, vectorstore.SourceScreenshot, nil)
	if err != nil {
		return 0, err
	}
	if err := ix.store.Replace(ctx, userId, id, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	ix.logger.Info("INDEXER", "Screenshot indexed", map[string]interface{}{
		"session_id": sessionId.String(),
		"chunks":     len(chunks),
	})
	return len(chunks), nil
}

func (ix *Indexer) embedChunks(
	ctx context.Context,
	userId, documentId uuid.UUID,
	title, text string,
	source vectorstore.Source,
	pageBreaks []document.PageBreak,
) ([]vectorstore.Chunk, error) {
	pieces := utils.SplitTextWithOffsets(text, ix.ChunkSize, ix.Overlap)
	chunks := make([]vectorstore.Chunk, 0, len(pieces))
	for i, p := range pieces {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		res, err := ix.embedder.Generate(ctx, p.Text, embedding.TaskDocument)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunks = append(chunks, vectorstore.Chunk{
			ID:         uuid.New(),
			DocumentID: documentId,
			UserID:     userId,
			Index:      len(chunks),
			Title:      title,
			Content:    p.Text,
			PageNumber: document.PageForOffset(pageBreaks, p.Start),
			Source:     source,
			Embedding:  res.Embedding.Values,
		})
	}
	return chunks, nil
}
