package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// ActiveSession matches sessions that were never ended.
type ActiveSession struct{}

func (s ActiveSession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("ended_at IS NULL")
}
