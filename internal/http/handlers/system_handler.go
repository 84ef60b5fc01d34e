// Maintenance and diagnostics HTTP handlers.
//
//   - POST /repair  (fix orphaned messages and drifted counts)
//   - GET  /logs    (recent in-memory log entries)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdmnt1999/line-claude-viewer/internal/utils"
)

// Repair handles POST /repair. Safe to run repeatedly; a healthy store
// reports zeros.
func (h *Handlers) Repair(c *gin.Context) {
	result, err := h.repairSvc.RepairInconsistentData(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRepairFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, result)
}

// Logs handles GET /logs?n=…, returning up to n recent entries (all of them
// when n is absent or not positive).
func (h *Handlers) Logs(c *gin.Context) {
	n := utils.AtoiDefault(c.Query("n"), 0)
	entries := h.logs.Tail(n)
	ok(c, http.StatusOK, gin.H{"entries": entries, "total": len(entries)})
}
