package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const auditPageSize = 200

// ListAuditLogs shows the latest recorded changes, optionally narrowed to
// one entity with ?entity=&id=.
func (h *Handlers) ListAuditLogs(c *gin.Context) {
	limit := auditPageSize
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v < auditPageSize {
		limit = v
	}

	entries, err := h.store.History(c.Request.Context(), c.Query("entity"), c.Query("id"), limit)
	if err != nil {
		h.logger.WithError(err).Error("load audit log failed")
		c.String(http.StatusInternalServerError, "failed to load audit log")
		return
	}

	render(c, http.StatusOK, "audit.html", gin.H{
		"entries": entries,
	})
}
