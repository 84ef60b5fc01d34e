package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jdmnt1999/line-claude-viewer/internal/importer"
	"github.com/jdmnt1999/line-claude-viewer/internal/services"
)

func TestBatchImport_DefaultsToSkip(t *testing.T) {
	d, r := newHarness()
	var gotOpts importer.Options
	d.impt.startFn = func(ctx context.Context, ps []importer.Payload, o importer.Options) (*importer.BatchResult, error) {
		gotOpts = o
		return &importer.BatchResult{Total: len(ps), Imported: len(ps)}, nil
	}

	body := BatchImportRequest{
		Conversations: []importer.Payload{
			{Title: "a", Messages: []services.MessageExport{}},
		},
	}
	w := doJSON(t, r, http.MethodPost, "/import/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if !gotOpts.SkipExisting {
		t.Fatal("expected default SkipExisting when options omitted")
	}
}

func TestBatchImport_ForwardsOptions(t *testing.T) {
	d, r := newHarness()
	var gotOpts importer.Options
	d.impt.startFn = func(ctx context.Context, ps []importer.Payload, o importer.Options) (*importer.BatchResult, error) {
		gotOpts = o
		return &importer.BatchResult{}, nil
	}

	body := BatchImportRequest{
		Conversations: []importer.Payload{},
		Options:       &importer.Options{OverwriteExisting: true, PreserveIDs: true},
	}
	w := doJSON(t, r, http.MethodPost, "/import/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !gotOpts.OverwriteExisting || !gotOpts.PreserveIDs {
		t.Fatalf("options not forwarded: %+v", gotOpts)
	}
}

func TestBatchImport_ConflictWhenRunning(t *testing.T) {
	d, r := newHarness()
	d.impt.startFn = func(ctx context.Context, ps []importer.Payload, o importer.Options) (*importer.BatchResult, error) {
		return nil, importer.ErrImportInProgress
	}

	w := doJSON(t, r, http.MethodPost, "/import/batch",
		BatchImportRequest{Conversations: []importer.Payload{}})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Code != ErrCodeConflict {
		t.Fatalf("body = %s (err %v)", w.Body.String(), err)
	}
}

func TestBatchImport_MissingConversations(t *testing.T) {
	_, r := newHarness()
	w := doJSON(t, r, http.MethodPost, "/import/batch", gin.H{"options": gin.H{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCancelImport(t *testing.T) {
	d, r := newHarness()
	w := doJSON(t, r, http.MethodPost, "/import/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !d.impt.cancelled {
		t.Fatal("Cancel not invoked")
	}
}

func TestImportStatus(t *testing.T) {
	d, r := newHarness()
	d.impt.inProgress = true

	w := doJSON(t, r, http.MethodGet, "/import/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		InProgress bool `json:"in_progress"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.InProgress {
		t.Fatalf("body = %s (err %v)", w.Body.String(), err)
	}
}
