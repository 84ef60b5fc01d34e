// Package services – RepairService
//
// This file implements the integrity repair pass. The store's invariants
// (no orphan messages, message_count equal to the live count) hold under
// correct sequential use, but drift can be introduced by interrupted
// restores or prior application bugs. Repair is the self-healing pass that
// restores them: a full scan, intended for manual invocation rather than
// steady-state use.
package services

import (
	"context"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jdmnt1999/line-claude-viewer/internal/repo"
)

// RepairResult reports what the repair pass corrected.
type RepairResult struct {
	OrphanedMessages   int `json:"orphanedMessages"`
	FixedConversations int `json:"fixedConversations"`
}

// RepairService restores referential integrity between the two stores.
type RepairService struct {
	DB *gorm.DB
}

// NewRepairService constructs a RepairService.
func NewRepairService(db *gorm.DB) *RepairService {
	return &RepairService{DB: db}
}

// RepairInconsistentData scans every message, deletes those whose
// conversation no longer exists, recomputes each conversation's message
// count from the surviving rows, and persists corrected counts. Running it
// twice in a row reports zeros on the second run.
func (s *RepairService) RepairInconsistentData(ctx context.Context) (*RepairResult, error) {
	tr := otel.Tracer("services/RepairService")
	ctx, span := tr.Start(ctx, "RepairInconsistentData")
	defer span.End()

	result := &RepairResult{}

	convs, err := repo.ListConversations(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	liveIDs := make(map[string]struct{}, len(convs))
	for _, c := range convs {
		liveIDs[c.ID] = struct{}{}
	}

	msgs, err := repo.ListAllMessages(s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(convs))
	for _, m := range msgs {
		if _, ok := liveIDs[m.ConversationID]; ok {
			counts[m.ConversationID]++
			continue
		}
		if err := repo.DeleteMessage(s.DB.WithContext(ctx), m.ID); err != nil {
			return nil, err
		}
		result.OrphanedMessages++
	}

	for _, c := range convs {
		correct := counts[c.ID]
		if c.MessageCount == correct {
			continue
		}
		if err := repo.SetMessageCount(ctx, s.DB, c.ID, correct); err != nil {
			return nil, err
		}
		result.FixedConversations++
	}

	span.SetAttributes(
		attribute.Int("repair.orphaned_messages", result.OrphanedMessages),
		attribute.Int("repair.fixed_conversations", result.FixedConversations),
	)
	return result, nil
}
