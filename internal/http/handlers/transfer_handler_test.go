package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jdmnt1999/line-claude-viewer/internal/services"
)

func TestExportConversation_OK(t *testing.T) {
	d, r := newHarness()
	d.xfer.exportFn = func(ctx context.Context, id string) (*services.ConversationExport, error) {
		return &services.ConversationExport{
			Title:     "exported",
			Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Messages:  []services.MessageExport{{Role: "user", Content: "hi"}},
		}, nil
	}

	w := doJSON(t, r, http.MethodGet, "/conversations/c1/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Fatal("missing Content-Disposition")
	}
	var got services.ConversationExport
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.Title != "exported" {
		t.Fatalf("body = %s (err %v)", w.Body.String(), err)
	}
}

func TestExportConversation_NotFound(t *testing.T) {
	d, r := newHarness()
	d.xfer.exportFn = func(ctx context.Context, id string) (*services.ConversationExport, error) {
		return nil, services.ErrConversationNotFound
	}

	w := doJSON(t, r, http.MethodGet, "/conversations/missing/export", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestImportConversation_Created(t *testing.T) {
	d, r := newHarness()
	d.xfer.importFn = func(ctx context.Context, data *services.ConversationExport) (string, error) {
		if data.Title != "from file" || len(data.Messages) != 1 {
			t.Errorf("payload = %+v", data)
		}
		return "new-id", nil
	}

	body := services.ConversationExport{
		Title:    "from file",
		Messages: []services.MessageExport{{Role: "user", Content: "hi"}},
	}
	w := doJSON(t, r, http.MethodPost, "/conversations/import", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.ID != "new-id" {
		t.Fatalf("body = %s (err %v)", w.Body.String(), err)
	}
}

func TestImportConversation_Malformed(t *testing.T) {
	d, r := newHarness()
	d.xfer.importFn = func(ctx context.Context, data *services.ConversationExport) (string, error) {
		return "", services.ErrMalformedPayload
	}

	w := doJSON(t, r, http.MethodPost, "/conversations/import", services.ConversationExport{Title: "no messages"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestExportDatabase_OK(t *testing.T) {
	d, r := newHarness()
	d.xfer.backupFn = func(ctx context.Context) (*services.DatabaseBackup, error) {
		return &services.DatabaseBackup{}, nil
	}

	w := doJSON(t, r, http.MethodGet, "/backup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRestoreDatabase_PassesClearFlag(t *testing.T) {
	d, r := newHarness()
	var gotClear bool
	d.xfer.restoreFn = func(ctx context.Context, b *services.DatabaseBackup, clear bool) (*services.RestoreReport, error) {
		gotClear = clear
		return &services.RestoreReport{}, nil
	}

	w := doJSON(t, r, http.MethodPost, "/restore?clear=true", services.DatabaseBackup{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !gotClear {
		t.Fatal("clear flag not forwarded")
	}
}
