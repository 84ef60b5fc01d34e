// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
)

// CreateMessage inserts a new message row. A zero createdAt means "now";
// imports pass the timestamp carried by the payload so ordering survives a
// round-trip.
func CreateMessage(db *gorm.DB, conversationID, role, content string, createdAt time.Time) (*domain.Message, error) {
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	m := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      createdAt,
	}
	return m, db.Create(m).Error
}

// ListMessages returns a conversation's messages ordered deterministically
// (CreatedAt ASC, ID ASC).
func ListMessages(db *gorm.DB, conversationID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(db *gorm.DB, conversationID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM messages WHERE conversation_id = ?", conversationID).Scan(&total).Error
	return total, err
}

// ClearMessages deletes every message belonging to a conversation. Used by
// the importer's overwrite mode before replaying the incoming payload.
func ClearMessages(db *gorm.DB, conversationID string) error {
	return db.Where("conversation_id = ?", conversationID).Delete(&domain.Message{}).Error
}

// DeleteMessage removes a single message by id (repair pass, orphans).
func DeleteMessage(db *gorm.DB, id string) error {
	return db.Where("id = ?", id).Delete(&domain.Message{}).Error
}

// ListAllMessages returns every message in the store, ordered by creation
// time. Full-scan helper for the repair pass and the database backup.
func ListAllMessages(db *gorm.DB) ([]domain.Message, error) {
	var out []domain.Message
	err := db.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}
