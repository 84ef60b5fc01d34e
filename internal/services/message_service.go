// Package services – MessageService
//
// This file implements MessageService, the component that owns the message
// lifecycle. Appending a message, bumping the owning conversation's cached
// message count, and deriving the conversation title from the first user
// message happen in one transaction, so sequential callers never observe a
// message without its count update.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the conversation identifier.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
	"github.com/jdmnt1999/line-claude-viewer/internal/repo"
)

// MessageService coordinates message persistence and the count/title
// bookkeeping on the owning conversation.
type MessageService struct {
	DB *gorm.DB
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{DB: db}
}

// Append inserts a message into an existing conversation and increments the
// conversation's cached message count in the same transaction. When the
// message is the conversation's first and its role is "user", the
// conversation title is rewritten to a 50-rune preview of the content.
//
// The conversation must already exist; Append returns
// ErrConversationNotFound rather than auto-creating (callers that need the
// implicit-create flow go through ConversationService.Create first).
// A zero `at` stores the current time; imports pass the payload timestamp.
func (s *MessageService) Append(ctx context.Context, conversationID, role, content string, at time.Time) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("message.role", role),
		),
	)
	defer span.End()

	if !domain.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	var msg *domain.Message
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := repo.GetConversation(ctx, tx, conversationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}

		m, err := repo.CreateMessage(tx, conversationID, role, content, at)
		if err != nil {
			return err
		}
		msg = m

		updates := map[string]any{"message_count": conv.MessageCount + 1}
		if conv.MessageCount == 0 && role == domain.RoleUser {
			updates["title"] = domain.TitlePreview(content)
		}
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", conversationID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Messages returns a conversation's messages in ascending timestamp order.
// An unknown conversation id yields an empty slice, not an error: after a
// cascade delete the caller sees "no messages" rather than a failure.
func (s *MessageService) Messages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	return repo.ListMessages(s.DB.WithContext(ctx), conversationID)
}
