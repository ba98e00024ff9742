package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pipe-rack-manager/internal/config"
	"pipe-rack-manager/internal/docstore"
	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/handlers"
	"pipe-rack-manager/internal/identity"
	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/metrics"
	"pipe-rack-manager/internal/middleware"
	"pipe-rack-manager/internal/models"
	"pipe-rack-manager/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionCookieName = "piperacks_session"

type Deps struct {
	Config   *config.Config
	Identity *identity.Service
	Store    *docstore.Store
	Bus      eventbus.Bus
	Metrics  *metrics.Metrics
	Logger   *logging.Logger
	// Shutdown, when cancelled, closes every live websocket.
	Shutdown context.Context
}

func NewRouter(d Deps) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.Default()
	r.Use(d.Metrics.Middleware())

	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", web.Static())

	store := cookie.NewStore([]byte(d.Config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   d.Config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, store))

	r.Use(middleware.InjectUser(d.Store, d.Logger))

	h := handlers.New(handlers.Deps{
		Identity:  d.Identity,
		Store:     d.Store,
		Bus:       d.Bus,
		Metrics:   d.Metrics,
		Logger:    d.Logger,
		Templates: tmpl,
		Shutdown:  d.Shutdown,
	})

	// AUTH
	r.GET("/login", h.ShowLogin)
	r.POST("/login", h.Login)
	r.POST("/guest", h.Guest)
	r.GET("/logout", h.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	// APP
	auth.GET("/", h.AppShell)
	auth.GET("/ws", h.LiveSocket)

	// AUDIT
	auth.GET("/audit",
		middleware.RequireRole(models.RoleAdmin),
		h.ListAuditLogs,
	)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	return r, nil
}
