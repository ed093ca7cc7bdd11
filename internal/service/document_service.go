package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"lucide-core/internal/config"
	"lucide-core/internal/dto"
	"lucide-core/internal/entity"
	"lucide-core/internal/pkg/logger"
	"lucide-core/internal/repository/unitofwork"
	"lucide-core/pkg/document"
	"lucide-core/pkg/events"
	"lucide-core/pkg/rag"

	"github.com/google/uuid"
)

var ErrDocumentNotFound = errors.New("document not found")

// EventPublisher sends sync events to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// FileData is one uploaded file. Exactly one of Path or Data carries the
// bytes. Content, when set, is used instead of running extraction.
type FileData struct {
	Filename string
	Path     string
	Data     []byte
	Content  string
}

type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

type IDocumentService interface {
	Upload(ctx context.Context, ownerId uuid.UUID, file FileData, meta *Metadata) (*entity.Document, error)
	List(ctx context.Context, ownerId uuid.UUID, limit, offset int) ([]*dto.DocumentResponse, error)
	Show(ctx context.Context, ownerId, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	Delete(ctx context.Context, ownerId, id uuid.UUID) error
	Indexable(ctx context.Context, id uuid.UUID) (*rag.IndexableDocument, error)
	CountDocuments(ctx context.Context, userId uuid.UUID) (int64, int64, error)
	MarkIndexed(ctx context.Context, documentId uuid.UUID, chunkCount int) error
	Codecs() []document.CodecStatus
}

type documentService struct {
	uowFactory     unitofwork.RepositoryFactory
	extractor      *document.Extractor
	chunks         ChunkRemover
	eventPublisher EventPublisher
	logger         logger.ILogger
	maxSize        int64
	maxLabel       string
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	extractor *document.Extractor,
	chunks ChunkRemover,
	eventPublisher EventPublisher,
	cfg config.DocumentConfig,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:     uowFactory,
		extractor:      extractor,
		chunks:         chunks,
		eventPublisher: eventPublisher,
		logger:         log,
		maxSize:        cfg.MaxFileSizeBytes(),
		maxLabel:       cfg.MaxFileSizeLabel(),
	}
}

// Upload validates, extracts and stores one file. Indexing is left to the
// caller; the returned document carries its page breaks for that step.
func (s *documentService) Upload(ctx context.Context, ownerId uuid.UUID, file FileData, meta *Metadata) (*entity.Document, error) {
	// 1. Type
	fileType, ok := document.FileTypeFromFilename(file.Filename)
	if !ok {
		return nil, &document.UnsupportedTypeError{Filename: file.Filename, Extension: extensionOf(file.Filename)}
	}

	// 2. Size, from the file system when possible so oversized files are never read
	size, err := s.sizeOf(file)
	if err != nil {
		return nil, err
	}
	if s.maxSize > 0 && size > s.maxSize {
		return nil, &document.FileTooLargeError{Size: size, MaxSize: s.maxSize, MaxLabel: s.maxLabel}
	}

	data := file.Data
	if data == nil {
		data, err = os.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
	}

	// 3. Content signature and structure
	validation := document.ValidateFile(data, fileType, file.Filename)
	if !validation.Valid {
		return nil, &document.InvalidFileError{Filename: file.Filename, Reasons: validation.Errors}
	}
	for _, w := range validation.Warnings {
		s.logger.Warn("DOCUMENT", "Validation warning", map[string]interface{}{"filename": file.Filename, "warning": w})
	}

	// 4. Extraction, skipped when the caller already has the text
	result := &document.ExtractionResult{Text: file.Content, PageBreakMethod: document.PageBreakNone}
	if strings.TrimSpace(file.Content) == "" {
		result, err = s.extractor.Extract(ctx, data, fileType, document.ExtractOptions{
			WithPageInfo: fileType == document.FileTypePDF,
			Filename:     file.Filename,
		})
		if err != nil {
			return nil, err
		}
	}
	if result.PageBreakMethod == document.PageBreakEven {
		s.logger.Warn("DOCUMENT", "Page boundaries approximated by even division", map[string]interface{}{
			"filename": file.Filename,
			"pages":    result.PageCount,
		})
	}

	// 5. Persist
	if meta == nil {
		meta = &Metadata{}
	}
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = titleFromFilename(file.Filename)
	}
	doc := &entity.Document{
		Id:          uuid.New(),
		UserId:      ownerId,
		Title:       title,
		Filename:    file.Filename,
		FileType:    fileType,
		FileSize:    size,
		Content:     result.Text,
		Tags:        cleanTags(meta.Tags),
		Description: meta.Description,
		PageCount:   result.PageCount,
		CreatedAt:   time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	doc.PageBreaks = result.PageBreaks
	doc.PageBreakMethod = result.PageBreakMethod

	s.logger.Info("DOCUMENT", "Document uploaded", map[string]interface{}{
		"document_id": doc.Id.String(),
		"file_type":   string(fileType),
		"size":        size,
		"pages":       doc.PageCount,
	})
	s.publish(ctx, events.New(events.TypeDocumentUploaded, ownerId.String(), map[string]interface{}{
		"document_id": doc.Id.String(),
		"title":       doc.Title,
		"file_type":   string(fileType),
	}))
	return doc, nil
}

func (s *documentService) sizeOf(file FileData) (int64, error) {
	if file.Data != nil {
		return int64(len(file.Data)), nil
	}
	if file.Path == "" {
		return 0, &document.InvalidFileError{Filename: file.Filename, Reasons: []string{"no file content"}}
	}
	info, err := os.Stat(file.Path)
	if err != nil {
		return 0, fmt.Errorf("stat upload: %w", err)
	}
	return info.Size(), nil
}

func (s *documentService) publish(ctx context.Context, evt events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("DOCUMENT", "Failed to publish event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *documentService) owned(ctx context.Context, uow unitofwork.UnitOfWork, ownerId, id uuid.UUID) (*entity.Document, error) {
	doc, err := uow.DocumentRepository().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.UserId != ownerId {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, ownerId uuid.UUID, limit, offset int) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().ListByUser(ctx, ownerId, limit, offset)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		res = append(res, toDocumentResponse(d))
	}
	return res, nil
}

func (s *documentService) Show(ctx context.Context, ownerId, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.owned(ctx, uow, ownerId, id)
	if err != nil {
		return nil, err
	}
	return &dto.ShowDocumentResponse{
		DocumentResponse: *toDocumentResponse(doc),
		Content:          doc.Content,
	}, nil
}

// Delete removes the document and its chunks.
func (s *documentService) Delete(ctx context.Context, ownerId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.owned(ctx, uow, ownerId, id); err != nil {
		return err
	}

	if s.chunks != nil {
		if err := s.chunks.DeleteDocument(ctx, ownerId, id); err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.New(events.TypeDocumentDeleted, ownerId.String(), map[string]interface{}{
		"document_id": id.String(),
	}))
	return nil
}

// Indexable returns nil when the document no longer exists.
func (s *documentService) Indexable(ctx context.Context, id uuid.UUID) (*rag.IndexableDocument, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindByID(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return &rag.IndexableDocument{
		ID:      doc.Id,
		UserID:  doc.UserId,
		Title:   doc.Title,
		Content: doc.Content,
	}, nil
}

func (s *documentService) CountDocuments(ctx context.Context, userId uuid.UUID) (int64, int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().CountByUser(ctx, userId)
}

func (s *documentService) MarkIndexed(ctx context.Context, documentId uuid.UUID, chunkCount int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().MarkIndexed(ctx, documentId, chunkCount)
}

func (s *documentService) Codecs() []document.CodecStatus {
	return s.extractor.Registry().Status()
}

func toDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &dto.DocumentResponse{
		Id:          d.Id,
		Title:       d.Title,
		Filename:    d.Filename,
		FileType:    d.FileType,
		FileSize:    d.FileSize,
		Tags:        tags,
		Description: d.Description,
		ChunkCount:  d.ChunkCount,
		PageCount:   d.PageCount,
		Indexed:     d.Indexed,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// titleFromFilename drops the extension whatever its case.
func titleFromFilename(filename string) string {
	ext := extensionOf(filename)
	if ext == "" {
		return filename
	}
	return filename[:len(filename)-len(ext)-1]
}

func extensionOf(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}
