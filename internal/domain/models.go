// Package domain defines the persistence models for conversations and
// messages. These types are mapped with GORM and form the core data layer
// of the conversation viewer backend.
package domain

import (
	"time"
	"unicode/utf8"
)

// Message roles. The database constrains the column to these two values.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TitlePreviewMax caps the rune length of titles derived from the first user
// message, including the trailing ellipsis.
const TitlePreviewMax = 50

// Conversation represents a stored conversation. Each conversation carries a
// cached MessageCount that mirrors the number of Message rows referencing it;
// the repair pass restores the cache when the two drift apart.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Title: human-readable label; derived from the first user message when
//     not supplied explicitly.
//   - MessageCount: cached count of messages in this conversation.
//   - CreatedAt: canonical creation instant. Legacy exports carry the same
//     value under "timestamp"; ingestion accepts both, storage keeps one.
//   - UpdatedAt: timestamp managed by GORM.
type Conversation struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	Title        string    `json:"title"         gorm:"type:varchar(255);not null;index:idx_conv_title"`
	MessageCount int64     `json:"messageCount"  gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"createdAt"     gorm:"index:idx_conv_created"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message represents a single utterance within a conversation, authored
// either by the "user" or the "assistant". A message whose ConversationID
// does not resolve to a live conversation is an orphan and is removed by
// the repair pass.
type Message struct {
	ID             string    `json:"id"             gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversationId" gorm:"type:char(36);not null;index:idx_msg_conv,priority:1"`
	Role           string    `json:"role"           gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string    `json:"content"        gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"createdAt"      gorm:"index:idx_msg_conv,priority:2"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// ValidRole reports whether role is one of the two accepted message roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

// TitlePreview derives a conversation title from message content: content
// longer than 50 runes is clipped to 47 runes with "..." appended, so the
// result never exceeds 50 runes.
func TitlePreview(content string) string {
	if utf8.RuneCountInString(content) <= TitlePreviewMax {
		return content
	}
	return string([]rune(content)[:TitlePreviewMax-3]) + "..."
}
