package dto

import (
	"time"

	"lucide-core/pkg/document"

	"github.com/google/uuid"
)

type UploadDocumentResponse struct {
	Id              uuid.UUID                `json:"id"`
	Title           string                   `json:"title"`
	Filename        string                   `json:"filename"`
	FileType        document.FileType        `json:"file_type"`
	FileSize        int64                    `json:"file_size"`
	PageCount       int                      `json:"page_count"`
	PageBreakMethod document.PageBreakMethod `json:"page_break_method,omitempty"`
	Indexed         bool                     `json:"indexed"`
	ChunkCount      int                      `json:"chunk_count"`
}

type DocumentResponse struct {
	Id          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Filename    string            `json:"filename"`
	FileType    document.FileType `json:"file_type"`
	FileSize    int64             `json:"file_size"`
	Tags        []string          `json:"tags"`
	Description string            `json:"description"`
	ChunkCount  int               `json:"chunk_count"`
	PageCount   int               `json:"page_count"`
	Indexed     bool              `json:"indexed"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   *time.Time        `json:"updated_at"`
}

type ShowDocumentResponse struct {
	DocumentResponse
	Content string `json:"content"`
}

// PublishIndexDocumentMessage is the payload of the document index topic.
type PublishIndexDocumentMessage struct {
	DocumentId uuid.UUID            `json:"document_id"`
	PageBreaks []document.PageBreak `json:"page_breaks,omitempty"`
}
