// Message HTTP handlers.
//
// This file exposes endpoints under a conversation:
//   - GET  /conversations/{id}/messages  (list, oldest first)
//   - POST /conversations/{id}/messages  (append a single message)
//   - POST /conversations/{id}/chat      (send a prompt to the model)
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jdmnt1999/line-claude-viewer/internal/services"
)

// AppendMessageRequest is the JSON payload for appending one message.
type AppendMessageRequest struct {
	// Role must be "user" or "assistant".
	Role string `json:"role" binding:"required"`
	// Content is the message body; empty bodies are stored as-is.
	Content string `json:"content"`
	// Timestamp optionally backdates the message; zero means now.
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is the JSON payload for sending a prompt.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ListMessages handles GET /conversations/:id/messages. The conversation must
// exist; its messages may be empty.
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.convSvc.Get(ctx, id); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	msgs, err := h.msgSvc.Messages(ctx, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"messages": msgs, "total": len(msgs)})
}

// PostMessage handles POST /conversations/:id/messages.
func (h *Handlers) PostMessage(c *gin.Context) {
	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role required")
		return
	}

	msg, err := h.msgSvc.Append(c.Request.Context(), c.Param("id"), req.Role, req.Content, req.Timestamp)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		case errors.Is(err, services.ErrInvalidRole):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role must be user or assistant")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, msg)
}

// PostChat handles POST /conversations/:id/chat. The user prompt and the
// assistant reply are both persisted; a provider failure still yields a
// stored reply carrying the error text.
func (h *Handlers) PostChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	reply, err := h.chatSvc.Send(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message must not be empty")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeChatFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, reply)
}
