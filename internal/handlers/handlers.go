package handlers

import (
	"context"
	"html/template"

	"pipe-rack-manager/internal/docstore"
	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/identity"
	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/metrics"

	"github.com/gorilla/websocket"
)

type Deps struct {
	Identity  *identity.Service
	Store     *docstore.Store
	Bus       eventbus.Bus
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
	Templates *template.Template
	// Shutdown ends every live socket when cancelled.
	Shutdown  context.Context
}

// Handlers serves the login pages, the app shell and the live socket.
type Handlers struct {
	ids      *identity.Service
	store    *docstore.Store
	bus      eventbus.Bus
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tmpl     *template.Template
	shutdown context.Context
	upgrader websocket.Upgrader
}

func New(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handlers{
		ids:      d.Identity,
		store:    d.Store,
		bus:      d.Bus,
		metrics:  d.Metrics,
		logger:   logger,
		tmpl:     d.Templates,
		shutdown: d.Shutdown,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

