// Export/import and backup HTTP handlers.
//
//   - GET  /conversations/{id}/export  (single conversation, shareable JSON)
//   - POST /conversations/import       (single conversation)
//   - GET  /backup                     (full database snapshot)
//   - POST /restore?clear=…            (full database restore, best effort)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdmnt1999/line-claude-viewer/internal/services"
	"github.com/jdmnt1999/line-claude-viewer/internal/utils"
)

// ExportConversation handles GET /conversations/:id/export. The payload
// carries no internal ids and can be re-imported elsewhere.
func (h *Handlers) ExportConversation(c *gin.Context) {
	data, err := h.xferSvc.ExportConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="conversation.json"`)
	ok(c, http.StatusOK, data)
}

// ImportConversation handles POST /conversations/import, creating a new
// conversation from an export payload.
func (h *Handlers) ImportConversation(c *gin.Context) {
	var data services.ConversationExport
	if err := c.ShouldBindJSON(&data); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	id, err := h.xferSvc.ImportConversation(c.Request.Context(), &data)
	if err != nil {
		if errors.Is(err, services.ErrMalformedPayload) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "messages field required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeImportFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, gin.H{"id": id})
}

// ExportDatabase handles GET /backup, returning every conversation and
// message as one snapshot.
func (h *Handlers) ExportDatabase(c *gin.Context) {
	backup, err := h.xferSvc.ExportDatabase(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="backup.json"`)
	ok(c, http.StatusOK, backup)
}

// RestoreDatabase handles POST /restore. With ?clear=true the store is wiped
// first; rows that fail to insert are skipped and counted in the report.
func (h *Handlers) RestoreDatabase(c *gin.Context) {
	var backup services.DatabaseBackup
	if err := c.ShouldBindJSON(&backup); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	clearExisting := utils.BoolDefault(c.Query("clear"), false)

	report, err := h.xferSvc.ImportDatabase(c.Request.Context(), &backup, clearExisting)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRestoreFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, report)
}
