package rag

import (
	"context"
	"fmt"
	"strings"

	"lucide-core/pkg/embedding"
	"lucide-core/pkg/rag/vectorstore"
	"lucide-core/pkg/tokens"

	"github.com/google/uuid"
)

const (
	DefaultMaxChunks = 5
	DefaultMinScore  = 0.35
	snippetRunes     = 240
)

type Status struct {
	DocumentCount int `json:"document_count"`
	IndexedCount  int `json:"indexed_count"`
	ChunkCount    int `json:"chunk_count"`
}

// DocumentStats counts the documents of a user.
type DocumentStats interface {
	CountDocuments(ctx context.Context, userId uuid.UUID) (total int64, indexed int64, err error)
}

type Options struct {
	MaxChunks int
	MinScore  float64
}

// Source is one retrieved chunk as cited to the model, numbered from 1.
type Source struct {
	Index      int                `json:"index"`
	DocumentID uuid.UUID          `json:"document_id"`
	ChunkID    uuid.UUID          `json:"chunk_id"`
	Title      string             `json:"title"`
	PageNumber int                `json:"page_number,omitempty"`
	Score      float64            `json:"score"`
	Kind       vectorstore.Source `json:"kind"`
	Content    string             `json:"-"`
	Snippet    string             `json:"snippet"`
}

type RetrievedContext struct {
	HasContext  bool     `json:"has_context"`
	Sources     []Source `json:"sources"`
	TotalTokens int      `json:"total_tokens"`
	Text        string   `json:"-"`
}

type Retriever struct {
	store    vectorstore.Store
	embedder embedding.EmbeddingProvider
	stats    DocumentStats
}

func NewRetriever(store vectorstore.Store, embedder embedding.EmbeddingProvider, stats DocumentStats) *Retriever {
	return &Retriever{store: store, embedder: embedder, stats: stats}
}

func (r *Retriever) Status(ctx context.Context, userId uuid.UUID) (*Status, error) {
	total, indexed, err := r.stats.CountDocuments(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunks, err := r.store.Count(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	return &Status{DocumentCount: int(total), IndexedCount: int(indexed), ChunkCount: chunks}, nil
}

func (r *Retriever) RetrieveContext(ctx context.Context, userId uuid.UUID, query string, opts Options) (*RetrievedContext, error) {
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = DefaultMaxChunks
	}

	res, err := r.embedder.Generate(ctx, query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.store.Search(ctx, userId, res.Embedding.Values, opts.MaxChunks, opts.MinScore)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	out := &RetrievedContext{Sources: make([]Source, 0, len(matches))}
	var text strings.Builder
	for i, m := range matches {
		src := Source{
			Index:      i + 1,
			DocumentID: m.Chunk.DocumentID,
			ChunkID:    m.Chunk.ID,
			Title:      m.Chunk.Title,
			PageNumber: m.Chunk.PageNumber,
			Score:      m.Score,
			Kind:       m.Chunk.Source,
			Content:    m.Chunk.Content,
			Snippet:    snippet(m.Chunk.Content),
		}
		out.Sources = append(out.Sources, src)
		writeSource(&text, src)
	}
	out.HasContext = len(out.Sources) > 0
	out.Text = text.String()
	out.TotalTokens = tokens.EstimateTokens(out.Text)
	return out, nil
}

func writeSource(b *strings.Builder, s Source) {
	fmt.Fprintf(b, "[%d] %s", s.Index, s.Title)
	if s.PageNumber > 0 {
		fmt.Fprintf(b, " (page %d)", s.PageNumber)
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(s.Content))
	b.WriteString("\n\n")
}

func snippet(content string) string {
	r := []rune(strings.TrimSpace(content))
	if len(r) <= snippetRunes {
		return string(r)
	}
	return string(r[:snippetRunes]) + "…"
}
