// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations            (create)
//   - GET    /conversations            (list, newest first)
//   - GET    /conversations/search     (case-insensitive title/content search)
//   - GET    /conversations/{id}       (fetch one)
//   - DELETE /conversations/{id}       (delete with messages)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
	"github.com/jdmnt1999/line-claude-viewer/internal/importer"
	"github.com/jdmnt1999/line-claude-viewer/internal/logbuf"
	"github.com/jdmnt1999/line-claude-viewer/internal/services"
)

//
// Service contracts (context-aware)
//

// ConversationService defines conversation lifecycle operations consumed by
// the HTTP layer. Implementations must honor the provided context.
type ConversationService interface {
	// Create starts a new empty conversation with an optional title.
	Create(ctx context.Context, title string) (*domain.Conversation, error)
	// Get returns one conversation or services.ErrConversationNotFound.
	Get(ctx context.Context, id string) (*domain.Conversation, error)
	// List returns all conversations, newest first.
	List(ctx context.Context) ([]domain.Conversation, error)
	// Delete removes a conversation and its messages; unknown ids succeed.
	Delete(ctx context.Context, id string) error
	// Search matches the query against titles and message bodies.
	Search(ctx context.Context, query string) ([]domain.Conversation, error)
}

// MessageService defines message retrieval and append operations.
type MessageService interface {
	// Append stores one message and maintains the conversation's count.
	Append(ctx context.Context, conversationID, role, content string, at time.Time) (*domain.Message, error)
	// Messages returns a conversation's messages oldest first.
	Messages(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// ChatService sends a prompt to the model provider and stores both sides of
// the exchange.
type ChatService interface {
	Send(ctx context.Context, conversationID, prompt string) (*domain.Message, error)
}

// TransferService defines export/import of single conversations and whole
// database backups.
type TransferService interface {
	ExportConversation(ctx context.Context, id string) (*services.ConversationExport, error)
	ImportConversation(ctx context.Context, data *services.ConversationExport) (string, error)
	ExportDatabase(ctx context.Context) (*services.DatabaseBackup, error)
	ImportDatabase(ctx context.Context, backup *services.DatabaseBackup, clearExisting bool) (*services.RestoreReport, error)
}

// ImportService runs reconciling batch imports.
type ImportService interface {
	StartImport(ctx context.Context, payloads []importer.Payload, opts importer.Options) (*importer.BatchResult, error)
	Cancel()
	InProgress() bool
}

// RepairService restores referential integrity after partial failures.
type RepairService interface {
	RepairInconsistentData(ctx context.Context) (*services.RepairResult, error)
}

// LogSource exposes recent in-memory log entries for diagnostics.
type LogSource interface {
	Tail(n int) []logbuf.Entry
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints and their service dependencies.
type Handlers struct {
	convSvc   ConversationService
	msgSvc    MessageService
	chatSvc   ChatService
	xferSvc   TransferService
	importSvc ImportService
	repairSvc RepairService
	logs      LogSource
}

// New constructs a Handlers instance bound to the given services.
func New(conv ConversationService, msgs MessageService, chat ChatService, xfer TransferService, imp ImportService, repair RepairService, logs LogSource) *Handlers {
	return &Handlers{
		convSvc:   conv,
		msgSvc:    msgs,
		chatSvc:   chat,
		xferSvc:   xfer,
		importSvc: imp,
		repairSvc: repair,
		logs:      logs,
	}
}

//
// DTOs
//

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// Title optionally names the conversation; a default is used when empty.
	Title string `json:"title"`
}

// ConversationWithMessages is the detail response for a single conversation.
type ConversationWithMessages struct {
	domain.Conversation
	Messages []domain.Message `json:"messages"`
}

//
// Handlers
//

// CreateConversation handles POST /conversations.
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	conv, err := h.convSvc.Create(c.Request.Context(), strings.TrimSpace(req.Title))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations handles GET /conversations.
func (h *Handlers) ListConversations(c *gin.Context) {
	items, err := h.convSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"conversations": items, "total": len(items)})
}

// GetConversation handles GET /conversations/:id, returning the conversation
// together with its messages.
func (h *Handlers) GetConversation(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	conv, err := h.convSvc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	msgs, err := h.msgSvc.Messages(ctx, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ConversationWithMessages{Conversation: *conv, Messages: msgs})
}

// DeleteConversation handles DELETE /conversations/:id. Deleting an unknown
// id succeeds, matching the service's idempotent contract.
func (h *Handlers) DeleteConversation(c *gin.Context) {
	if err := h.convSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}

// SearchConversations handles GET /conversations/search?q=…. An empty query
// returns every conversation.
func (h *Handlers) SearchConversations(c *gin.Context) {
	items, err := h.convSvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"conversations": items, "total": len(items)})
}
