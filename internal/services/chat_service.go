// Package services – ChatService
//
// This file implements the chat turn: append the user's prompt to a
// conversation, relay the full history to the LLM, and store the reply. A
// failed completion is not an exceptional path for the conversation log —
// the error text is stored as the assistant's reply, so the transcript
// records what the user saw.
package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
	"github.com/jdmnt1999/line-claude-viewer/internal/llm"
)

// ChatService relays conversation turns to an LLM and persists both sides.
type ChatService struct {
	Messages *MessageService
	LLM      llm.Client

	Model     string
	MaxTokens int
}

// NewChatService constructs a ChatService bound to a provider client.
func NewChatService(msgs *MessageService, client llm.Client, model string, maxTokens int) *ChatService {
	return &ChatService{Messages: msgs, LLM: client, Model: model, MaxTokens: maxTokens}
}

// Send appends the prompt as a user message, sends the conversation history
// plus the prompt to the model, and appends the assistant's reply. On a
// completion error the error message itself becomes the stored reply, and
// Send still returns the assistant message. Store failures propagate.
func (s *ChatService) Send(ctx context.Context, conversationID, prompt string) (*domain.Message, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	history, err := s.Messages.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.Messages.Append(ctx, conversationID, domain.RoleUser, prompt, time.Time{}); err != nil {
		return nil, err
	}

	req := &llm.CompletionRequest{
		Model:     s.Model,
		MaxTokens: s.MaxTokens,
		Messages:  make([]llm.ChatMessage, 0, len(history)+1),
	}
	for _, m := range history {
		req.Messages = append(req.Messages, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	req.Messages = append(req.Messages, llm.ChatMessage{Role: domain.RoleUser, Content: prompt})

	reply := ""
	if resp, cerr := s.LLM.Complete(ctx, req); cerr != nil {
		reply = "Error: " + cerr.Error()
	} else {
		reply = resp.Content
	}

	return s.Messages.Append(ctx, conversationID, domain.RoleAssistant, reply, time.Time{})
}
