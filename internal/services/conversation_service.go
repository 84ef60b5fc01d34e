// Package services – ConversationService
//
// This file implements the ConversationService, which manages the lifecycle
// of conversations. It validates and normalizes titles, coordinates
// repository operations for creating, listing, deleting, and searching
// conversations, and maps repository absence onto service-level errors.
//
// Search is a linear scan: an empty or whitespace query returns every
// conversation (most recent first); a non-empty query matches
// case-insensitively against the title or any message content. No content
// index is maintained, so search cost grows with total stored content.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
	"github.com/jdmnt1999/line-claude-viewer/internal/repo"
)

// DefaultConversationTitle is the placeholder used when no title is given.
const DefaultConversationTitle = "New conversation"

// ConversationService provides conversation-level operations such as
// creating, listing, deleting, and searching conversations.
type ConversationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewConversationService constructs a ConversationService with defaults.
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{DB: db, TitleMaxLen: 255}
}

// Create inserts a new empty conversation with the provided title.
// Titles are normalized, trimmed, clipped, and a default fallback is applied.
func (s *ConversationService) Create(ctx context.Context, title string) (*domain.Conversation, error) {
	title = normalizeTitle(title)
	if title == "" {
		title = DefaultConversationTitle
	}
	return repo.CreateConversation(ctx, s.DB, s.clip(title), time.Time{})
}

// Get fetches a conversation by id, mapping absence to
// ErrConversationNotFound.
func (s *ConversationService) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	c, err := repo.GetConversation(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns all conversations, most recent first.
func (s *ConversationService) List(ctx context.Context) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, s.DB)
}

// Delete removes a conversation and cascades deletion of its messages in a
// single transaction. Deleting an id that does not exist is a no-op success
// (best-effort cleanup).
func (s *ConversationService) Delete(ctx context.Context, id string) error {
	return repo.DeleteConversationCascade(ctx, s.DB, id)
}

// foldCaser performs Unicode case folding for caseless matching.
// cases.Fold is stateless and safe for concurrent use.
var foldCaser = cases.Fold()

// Search returns conversations matching the query. An empty or whitespace
// query returns the same ordered set as List. A conversation matches when
// its title or any of its messages' content contains the query,
// case-insensitively. Linear over conversations and their messages.
func (s *ConversationService) Search(ctx context.Context, query string) ([]domain.Conversation, error) {
	all, err := repo.ListConversations(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}

	needle := foldCaser.String(query)
	matched := make([]domain.Conversation, 0, len(all))
	for _, c := range all {
		if strings.Contains(foldCaser.String(c.Title), needle) {
			matched = append(matched, c)
			continue
		}
		msgs, err := repo.ListMessages(s.DB.WithContext(ctx), c.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range msgs {
			if strings.Contains(foldCaser.String(m.Content), needle) {
				matched = append(matched, c)
				break
			}
		}
	}
	return matched, nil
}

// clip truncates a title to the configured maximum rune length.
func (s *ConversationService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
