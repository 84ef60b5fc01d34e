// Batch import HTTP handlers.
//
//   - POST /import/batch   (reconciling batch import)
//   - POST /import/cancel  (cooperative cancellation)
//   - GET  /import/status  (is a batch running)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdmnt1999/line-claude-viewer/internal/importer"
)

// BatchImportRequest is the JSON payload for POST /import/batch.
type BatchImportRequest struct {
	// Conversations may be empty but must be present; an empty batch is a
	// valid no-op.
	Conversations []importer.Payload `json:"conversations"`
	Options       *importer.Options  `json:"options"`
}

// BatchImport handles POST /import/batch. Items are processed in order; the
// response reports per-item outcomes. A concurrent batch is rejected with 409.
func (h *Handlers) BatchImport(c *gin.Context) {
	var req BatchImportRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Conversations == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversations field required")
		return
	}
	opts := importer.DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	result, err := h.importSvc.StartImport(c.Request.Context(), req.Conversations, opts)
	if err != nil {
		if errors.Is(err, importer.ErrImportInProgress) {
			fail(c, http.StatusConflict, ErrCodeConflict, "an import is already running")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeImportFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, result)
}

// CancelImport handles POST /import/cancel. It always succeeds; with no
// batch running it is a no-op.
func (h *Handlers) CancelImport(c *gin.Context) {
	h.importSvc.Cancel()
	ok(c, http.StatusOK, gin.H{"cancelled": true})
}

// ImportStatus handles GET /import/status.
func (h *Handlers) ImportStatus(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"in_progress": h.importSvc.InProgress()})
}
