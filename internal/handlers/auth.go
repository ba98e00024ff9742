package handlers

import (
	"errors"
	"net/http"
	"strings"

	"pipe-rack-manager/internal/identity"
	"pipe-rack-manager/internal/middleware"

	"github.com/gin-gonic/gin"
)

const (
	MsgProfileMissing = "User profile not found. Please contact administrator."
	MsgSignInFailed   = "Sign in failed. Please try again."
	MsgGuestFailed    = "Guest login failed. Please try again."
)

func (h *Handlers) ShowLogin(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	render(c, http.StatusOK, "login.html", gin.H{"error": ""})
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (h *Handlers) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "login.html", gin.H{"error": "Invalid form data"})
		return
	}
	form.Email = strings.TrimSpace(form.Email)
	ctx := c.Request.Context()

	cred, err := h.ids.SignInWithPassword(ctx, form.Email, form.Password)
	if err != nil {
		h.metrics.SignIn("password", false)
		status := http.StatusInternalServerError
		if errors.Is(err, identity.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		render(c, status, "login.html", gin.H{"error": err.Error(), "email": form.Email})
		return
	}

	// a credential without a profile is not let in
	profile, err := h.store.GetUser(ctx, cred.UID)
	if err != nil {
		h.metrics.SignIn("password", false)
		h.logger.WithError(err).Error("profile lookup failed during login", "uid", cred.UID)
		render(c, http.StatusInternalServerError, "login.html", gin.H{"error": MsgSignInFailed, "email": form.Email})
		return
	}
	if profile == nil {
		h.metrics.SignIn("password", false)
		h.logger.Warn("login rejected: no user profile", "uid", cred.UID, "email", cred.Email)
		render(c, http.StatusForbidden, "login.html", gin.H{"error": MsgProfileMissing, "email": form.Email})
		return
	}

	if err := middleware.SaveCredential(c, cred); err != nil {
		h.logger.WithError(err).Error("save session cookie failed")
		render(c, http.StatusInternalServerError, "login.html", gin.H{"error": MsgSignInFailed, "email": form.Email})
		return
	}
	h.metrics.SignIn("password", true)
	h.logger.Info("user signed in", "uid", cred.UID, "role", profile.Role)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handlers) Guest(c *gin.Context) {
	cred, err := h.ids.SignInAnonymously(c.Request.Context())
	if err == nil {
		err = middleware.SaveCredential(c, cred)
	}
	if err != nil {
		h.metrics.SignIn("anonymous", false)
		h.logger.WithError(err).Error("guest login failed")
		render(c, http.StatusInternalServerError, "login.html", gin.H{"error": MsgGuestFailed})
		return
	}
	h.metrics.SignIn("anonymous", true)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handlers) Logout(c *gin.Context) {
	_ = middleware.ClearCredential(c)
	c.Redirect(http.StatusFound, "/login")
}
