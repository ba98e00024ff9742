package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pipe-rack-manager/internal/identity"
	"pipe-rack-manager/internal/middleware"
	"pipe-rack-manager/internal/session"
	"pipe-rack-manager/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// screenMessage is what the browser receives for every view.
type screenMessage struct {
	Screen  view.Screen `json:"screen"`
	Version uint64      `json:"version"`
	HTML    string      `json:"html"`
}

// latestSink keeps only the newest view; the writer always sends current
// state and never queues stale screens.
type latestSink struct {
	mu     sync.Mutex
	latest *view.View
	notify chan struct{}
}

func newLatestSink() *latestSink {
	return &latestSink{notify: make(chan struct{}, 1)}
}

func (s *latestSink) Show(v view.View) {
	s.mu.Lock()
	s.latest = &v
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *latestSink) take() (view.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return view.View{}, false
	}
	v := *s.latest
	s.latest = nil
	return v, true
}

// LiveSocket runs one client: its credential stream, session store and
// view router, wired to the socket until either side goes away.
func (h *Handlers) LiveSocket(c *gin.Context) {
	cred, err := h.restoreCredential(c)
	if err != nil {
		h.logger.WithError(err).Error("restore credential failed")
		cred = nil
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.metrics.WSConnectionOpened()
	defer h.metrics.WSConnectionClosed()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	if h.shutdown != nil {
		stop := context.AfterFunc(h.shutdown, cancel)
		defer stop()
	}

	logger := h.logger.With("remote", c.ClientIP())
	if cred != nil {
		logger = logger.With("uid", cred.UID)
	}

	auth := h.ids.NewAuth(cred)
	sessions := session.NewStore(h.store, logger)
	sink := newLatestSink()
	router := view.NewRouter(ctx, view.Config{
		Store:    h.store,
		Bus:      h.bus,
		Accounts: h.ids,
		Auth:     auth,
		Sessions: sessions,
		Sink:     sink,
		Logger:   logger,
		Observer: h.metrics,
	})
	defer router.Close()

	detach := sessions.Attach(ctx, auth)
	defer detach()

	logger.Debug("live client connected")
	go h.readPump(ctx, conn, router, cancel)
	h.writePump(ctx, conn, sink)
	logger.Debug("live client disconnected")
}

// restoreCredential re-validates the cookie credential. Anonymous
// credentials are taken as is; a named one must still have an account.
func (h *Handlers) restoreCredential(c *gin.Context) (*identity.Credential, error) {
	cred := middleware.Credential(c)
	if cred == nil || cred.Anonymous {
		return cred, nil
	}
	return h.ids.Lookup(c.Request.Context(), cred.UID)
}

func (h *Handlers) readPump(ctx context.Context, conn *websocket.Conn, router *view.Router, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.WithError(err).Warn("websocket read error")
			}
			return
		}

		var action view.Action
		if err := json.Unmarshal(msg, &action); err != nil {
			h.metrics.RecordWSMessage("in", "invalid")
			h.logger.WithError(err).Warn("malformed client action")
			continue
		}
		h.metrics.RecordWSMessage("in", string(action.Kind))

		if err := router.Dispatch(ctx, action); err != nil {
			h.logger.WithError(err).Warn("action rejected", "action", action.Kind)
		}
	}
}

func (h *Handlers) writePump(ctx context.Context, conn *websocket.Conn, sink *latestSink) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return

		case <-sink.notify:
			v, ok := sink.take()
			if !ok {
				continue
			}
			html, err := h.renderScreen(v)
			if err != nil {
				h.logger.WithError(err).Error("render screen failed", "screen", v.Screen)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(screenMessage{Screen: v.Screen, Version: v.Version, HTML: html}); err != nil {
				h.logger.WithError(err).Debug("websocket write failed")
				return
			}
			h.metrics.RecordWSMessage("out", string(v.Screen))

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
