// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a conversation is not found, functions return
//     gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a new Conversation row with the given title,
// zero messages, and the provided creation instant (time.Time zero value
// means "now"). The ID is a randomly generated UUID.
func CreateConversation(ctx context.Context, db *gorm.DB, title string, createdAt time.Time) (*domain.Conversation, error) {
	return CreateConversationWithID(ctx, db, uuid.NewString(), title, createdAt)
}

// CreateConversationWithID inserts a new Conversation row using a
// caller-supplied id. Inserting an id that already exists returns the
// constraint error from the driver; callers that need a fallback (the
// importer's preserve-ids mode) handle it themselves.
func CreateConversationWithID(ctx context.Context, db *gorm.DB, id, title string, createdAt time.Time) (*domain.Conversation, error) {
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	c := &domain.Conversation{
		ID:           id,
		Title:        title,
		MessageCount: 0,
		CreatedAt:    createdAt,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation fetches a single conversation by ID, or ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns all conversations ordered by creation time
// descending (most recent first). It returns an empty slice when the store
// is empty.
func ListConversations(ctx context.Context, db *gorm.DB) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// CountConversations returns the total number of stored conversations.
func CountConversations(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Count(&total).Error
	return total, err
}

// UpdateConversationMeta rewrites title and creation instant of an existing
// conversation (used by the importer's overwrite mode). Missing rows return
// ErrNotFound.
func UpdateConversationMeta(ctx context.Context, db *gorm.DB, id, title string, createdAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{"title": title, "created_at": createdAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetMessageCount persists a corrected cached message count (repair pass).
func SetMessageCount(ctx context.Context, db *gorm.DB, id string, count int64) error {
	return db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update("message_count", count).Error
}

// DeleteConversationCascade removes a conversation together with all of its
// messages in one transaction, so readers never observe a half-deleted
// state. Deleting an id that does not exist is a no-op success.
func DeleteConversationCascade(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Conversation{}).Error
	})
}
