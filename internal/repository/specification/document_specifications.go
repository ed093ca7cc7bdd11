package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByMessageID struct {
	MessageID uuid.UUID
}

func (s ByMessageID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_id = ?", s.MessageID)
}

type IndexedOnly struct{}

func (s IndexedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("indexed = ?", true)
}

type CreatedSince struct {
	Since interface{}
}

func (s CreatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ?", s.Since)
}
