package handlers

import (
	"bytes"

	"pipe-rack-manager/internal/middleware"
	"pipe-rack-manager/internal/view"

	"github.com/gin-gonic/gin"
)

// render wraps c.HTML and passes CurrentUser to every page template.
func render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if u := middleware.CurrentUser(c); u != nil {
		data["CurrentUser"] = u
		data["CurrentUserRole"] = u.Role
	}
	c.HTML(status, tmpl, data)
}

// renderScreen produces the HTML fragment pushed to a live client.
func (h *Handlers) renderScreen(v view.View) (string, error) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "screen", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
