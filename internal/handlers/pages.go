package handlers

import (
	"net/http"

	"pipe-rack-manager/internal/middleware"

	"github.com/gin-gonic/gin"
)

// AppShell serves the page the live client mounts into. A cookie whose
// credential no longer resolves to a user is dropped.
func (h *Handlers) AppShell(c *gin.Context) {
	if middleware.CurrentUser(c) == nil {
		_ = middleware.ClearCredential(c)
		c.Redirect(http.StatusFound, "/login")
		return
	}
	render(c, http.StatusOK, "app.html", nil)
}
