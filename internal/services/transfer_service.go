// Package services – TransferService
//
// This file implements export and import of conversations, plus whole-
// database backup and restore. Single-conversation exports carry no internal
// ids: they are {title, timestamp, messages[{role, content, timestamp}]},
// directly consumable by the import reconciler or an external backup file.
//
// The database restore path is a conscious best-effort bulk loader: a
// per-object insert failure is logged and counted but does not stop the
// remaining inserts.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
	"github.com/jdmnt1999/line-claude-viewer/internal/repo"
)

// DefaultImportTitle is used when an imported payload carries no title.
const DefaultImportTitle = "Imported Conversation"

// MessageExport is the serializable shape of one message inside a
// conversation export. Timestamp is omitted when unset; imports regenerate
// missing timestamps but never drop supplied ones.
type MessageExport struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ConversationExport is the single-conversation export format.
type ConversationExport struct {
	Title     string          `json:"title"`
	Timestamp time.Time       `json:"timestamp"`
	Messages  []MessageExport `json:"messages"`
}

// DatabaseBackup is the full-database export format: the raw contents of
// both object stores, internal ids included.
type DatabaseBackup struct {
	Conversations []domain.Conversation `json:"conversations"`
	Messages      []domain.Message      `json:"messages"`
}

// RestoreReport summarizes a best-effort database restore.
type RestoreReport struct {
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
	Failed        int `json:"failed"`
}

// TransferService implements conversation export/import and database
// backup/restore on top of the repo layer.
type TransferService struct {
	DB       *gorm.DB
	Messages *MessageService
	Log      zerolog.Logger
}

// NewTransferService constructs a TransferService.
func NewTransferService(db *gorm.DB, msgs *MessageService, log zerolog.Logger) *TransferService {
	return &TransferService{DB: db, Messages: msgs, Log: log}
}

// ExportConversation produces a serializable snapshot of one conversation,
// or ErrConversationNotFound.
func (s *TransferService) ExportConversation(ctx context.Context, id string) (*ConversationExport, error) {
	conv, err := repo.GetConversation(ctx, s.DB, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	msgs, err := repo.ListMessages(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	out := &ConversationExport{
		Title:     conv.Title,
		Timestamp: conv.CreatedAt,
		Messages:  make([]MessageExport, 0, len(msgs)),
	}
	for _, m := range msgs {
		out.Messages = append(out.Messages, MessageExport{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		})
	}
	return out, nil
}

// ImportConversation creates a new conversation from an export payload and
// appends its messages in array order, preserving supplied timestamps.
// The payload's title wins over the first-user-message auto-title, so an
// export/import round-trip preserves the title verbatim.
func (s *TransferService) ImportConversation(ctx context.Context, data *ConversationExport) (string, error) {
	return s.importAs(ctx, "", data)
}

// ImportConversationWithID is ImportConversation with a caller-supplied id
// (the reconciler's preserve-ids mode). An occupied id surfaces the driver's
// constraint error; the caller decides on the fallback.
func (s *TransferService) ImportConversationWithID(ctx context.Context, id string, data *ConversationExport) (string, error) {
	return s.importAs(ctx, id, data)
}

func (s *TransferService) importAs(ctx context.Context, id string, data *ConversationExport) (string, error) {
	if data == nil {
		return "", ErrMalformedPayload
	}
	title := data.Title
	if title == "" {
		title = DefaultImportTitle
	}

	var conv *domain.Conversation
	var err error
	if id != "" {
		conv, err = repo.CreateConversationWithID(ctx, s.DB, id, title, data.Timestamp)
	} else {
		conv, err = repo.CreateConversation(ctx, s.DB, title, data.Timestamp)
	}
	if err != nil {
		return "", err
	}

	if err := s.appendAll(ctx, conv.ID, data.Messages); err != nil {
		return "", err
	}

	// Append may have auto-titled from the first user message; the payload's
	// title is authoritative on import.
	if len(data.Messages) > 0 {
		if err := repo.UpdateConversationMeta(ctx, s.DB, conv.ID, title, conv.CreatedAt); err != nil {
			return "", err
		}
	}
	return conv.ID, nil
}

// appendAll replays export messages into a conversation in array order.
func (s *TransferService) appendAll(ctx context.Context, conversationID string, msgs []MessageExport) error {
	for _, m := range msgs {
		if _, err := s.Messages.Append(ctx, conversationID, m.Role, m.Content, m.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

// ExportDatabase returns the raw contents of both object stores.
func (s *TransferService) ExportDatabase(ctx context.Context) (*DatabaseBackup, error) {
	tr := otel.Tracer("services/TransferService")
	ctx, span := tr.Start(ctx, "ExportDatabase")
	defer span.End()

	convs, err := repo.ListConversations(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	msgs, err := repo.ListAllMessages(s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &DatabaseBackup{Conversations: convs, Messages: msgs}, nil
}

// ImportDatabase loads a full backup into the store. With clearExisting set,
// both stores are emptied first. Row inserts are best-effort: a failing row
// is logged and counted, and loading continues with the rest.
func (s *TransferService) ImportDatabase(ctx context.Context, backup *DatabaseBackup, clearExisting bool) (*RestoreReport, error) {
	tr := otel.Tracer("services/TransferService")
	ctx, span := tr.Start(ctx, "ImportDatabase",
		trace.WithAttributes(attribute.Bool("clear_existing", clearExisting)),
	)
	defer span.End()

	if backup == nil {
		return nil, ErrMalformedPayload
	}

	if clearExisting {
		if err := s.DB.WithContext(ctx).Where("1 = 1").Delete(&domain.Message{}).Error; err != nil {
			return nil, err
		}
		if err := s.DB.WithContext(ctx).Where("1 = 1").Delete(&domain.Conversation{}).Error; err != nil {
			return nil, err
		}
	}

	report := &RestoreReport{}
	for i := range backup.Conversations {
		c := backup.Conversations[i]
		if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
			s.Log.Warn().Err(err).Str("conversation_id", c.ID).Msg("restore: conversation insert failed")
			report.Failed++
			continue
		}
		report.Conversations++
	}
	for i := range backup.Messages {
		m := backup.Messages[i]
		if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
			s.Log.Warn().Err(err).Str("message_id", m.ID).Msg("restore: message insert failed")
			report.Failed++
			continue
		}
		report.Messages++
	}
	return report, nil
}
