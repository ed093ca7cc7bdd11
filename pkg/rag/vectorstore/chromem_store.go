package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

const (
	metaDocumentID = "document_id"
	metaIndex      = "chunk_index"
	metaTitle      = "title"
	metaPage       = "page_number"
	metaSource     = "source"
)

var errEmbeddingRequired = errors.New("chunks must carry their embedding")

// ChromemStore keeps one chromem collection per user, either in memory
// or persisted under a directory.
type ChromemStore struct {
	db          *chromem.DB
	concurrency int
	mu          sync.Mutex
}

func NewChromemStore(path string) (*ChromemStore, error) {
	if path == "" {
		return &ChromemStore{db: chromem.NewDB(), concurrency: 4}, nil
	}
	db, err := chromem.NewPersistentDB(path, true)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return &ChromemStore{db: db, concurrency: 4}, nil
}

func collectionName(userID uuid.UUID) string {
	return "lucide_" + userID.String()
}

func (s *ChromemStore) collection(userID uuid.UUID) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	noEmbed := func(context.Context, string) ([]float32, error) { return nil, errEmbeddingRequired }
	return s.db.GetOrCreateCollection(collectionName(userID), nil, noEmbed)
}

func (s *ChromemStore) Replace(ctx context.Context, userID, documentID uuid.UUID, chunks []Chunk) error {
	col, err := s.collection(userID)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, map[string]string{metaDocumentID: documentID.String()}, nil); err != nil {
		return fmt.Errorf("delete previous chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return errEmbeddingRequired
		}
		docs[i] = chromem.Document{
			ID:        c.ID.String(),
			Content:   c.Content,
			Embedding: c.Embedding,
			Metadata: map[string]string{
				metaDocumentID: documentID.String(),
				metaIndex:      strconv.Itoa(c.Index),
				metaTitle:      c.Title,
				metaPage:       strconv.Itoa(c.PageNumber),
				metaSource:     string(c.Source),
			},
		}
	}
	return col.AddDocuments(ctx, docs, s.concurrency)
}

func (s *ChromemStore) Search(ctx context.Context, userID uuid.UUID, query []float32, limit int, minScore float64) ([]Match, error) {
	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}
	// chromem rejects nResults above the collection size.
	if n := col.Count(); limit > n {
		limit = n
	}
	if limit <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		if float64(r.Similarity) < minScore {
			continue
		}
		matches = append(matches, Match{Chunk: chunkFromResult(userID, r), Score: float64(r.Similarity)})
	}
	return matches, nil
}

func (s *ChromemStore) DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) error {
	col, err := s.collection(userID)
	if err != nil {
		return err
	}
	return col.Delete(ctx, map[string]string{metaDocumentID: documentID.String()}, nil)
}

func (s *ChromemStore) Count(_ context.Context, userID uuid.UUID) (int, error) {
	col, err := s.collection(userID)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

func chunkFromResult(userID uuid.UUID, r chromem.Result) Chunk {
	id, _ := uuid.Parse(r.ID)
	docID, _ := uuid.Parse(r.Metadata[metaDocumentID])
	index, _ := strconv.Atoi(r.Metadata[metaIndex])
	page, _ := strconv.Atoi(r.Metadata[metaPage])
	return Chunk{
		ID:         id,
		DocumentID: docID,
		UserID:     userID,
		Index:      index,
		Title:      r.Metadata[metaTitle],
		Content:    r.Content,
		PageNumber: page,
		Source:     Source(r.Metadata[metaSource]),
		Embedding:  r.Embedding,
	}
}
