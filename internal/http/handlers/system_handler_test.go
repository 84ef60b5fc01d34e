package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jdmnt1999/line-claude-viewer/internal/services"
)

func TestRepair_OK(t *testing.T) {
	d, r := newHarness()
	d.repair.repairFn = func(ctx context.Context) (*services.RepairResult, error) {
		return &services.RepairResult{OrphanedMessages: 3, FixedConversations: 1}, nil
	}

	w := doJSON(t, r, http.MethodPost, "/repair", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got services.RepairResult
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.OrphanedMessages != 3 {
		t.Fatalf("body = %s (err %v)", w.Body.String(), err)
	}
}

func TestRepair_Error(t *testing.T) {
	d, r := newHarness()
	d.repair.repairFn = func(ctx context.Context) (*services.RepairResult, error) {
		return nil, errors.New("db locked")
	}

	w := doJSON(t, r, http.MethodPost, "/repair", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLogs_TailsEntries(t *testing.T) {
	d, r := newHarness()
	for i := 0; i < 5; i++ {
		_, _ = d.ring.Write([]byte("entry\n"))
	}

	w := doJSON(t, r, http.MethodGet, "/logs?n=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Total != 2 {
		t.Fatalf("body = %s (err %v)", w.Body.String(), err)
	}
}

func TestLogs_AllWhenNoLimit(t *testing.T) {
	d, r := newHarness()
	for i := 0; i < 3; i++ {
		_, _ = d.ring.Write([]byte("entry\n"))
	}

	w := doJSON(t, r, http.MethodGet, "/logs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Total != 3 {
		t.Fatalf("body = %s (err %v)", w.Body.String(), err)
	}
}
