package view

import (
	"context"
	"sync"
	"time"

	"pipe-rack-manager/internal/access"
	"pipe-rack-manager/internal/docstore"
	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/identity"
	"pipe-rack-manager/internal/live"
	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/models"
	"pipe-rack-manager/internal/session"
)

// Store is the document store surface the screens read and write.
type Store interface {
	ListUnits(ctx context.Context) ([]models.Unit, error)
	GetUnit(ctx context.Context, id string) (*models.Unit, error)
	CreateUnit(ctx context.Context, actorID string, unit models.Unit) error
	DeleteUnit(ctx context.Context, actorID, id string) error

	ListPipeRacks(ctx context.Context, unitID string) ([]models.PipeRack, error)
	CreatePipeRack(ctx context.Context, actorID, unitID, rackID string) error
	UpdatePipeRackStatus(ctx context.Context, unitID, rackID string, upd docstore.StatusUpdate) error
	DeletePipeRack(ctx context.Context, actorID, unitID, rackID string) error

	ListUsers(ctx context.Context) ([]models.User, error)
	SetUser(ctx context.Context, actorID string, user models.User) error
	UpdateUser(ctx context.Context, actorID, id string, upd docstore.UserUpdate) error
	DeleteUser(ctx context.Context, actorID, id string) error
}

// Accounts creates sign-in credentials for new users.
type Accounts interface {
	CreateAccount(ctx context.Context, email, password string) (*identity.Credential, error)
}

type SignOuter interface {
	SignOut()
}

type Config struct {
	Store    Store
	Bus      eventbus.Bus
	Accounts Accounts
	Auth     SignOuter
	Sessions *session.Store
	Sink     Sink
	Logger   *logging.Logger
	Observer live.Observer
	Now      func() time.Time
}

// scope owns the live bindings of one screen or overlay.
type scope struct {
	bindings []*live.Binding
}

func (s *scope) add(b *live.Binding) {
	s.bindings = append(s.bindings, b)
}

func (s *scope) close() {
	if s == nil {
		return
	}
	for _, b := range s.bindings {
		b.Unsubscribe()
	}
	s.bindings = nil
}

// Router drives one client's screens.
//
// opMu serialises transitions and actions. mu guards the view state and is
// the only lock snapshot callbacks take, so a transition may wait for an
// in-flight delivery while holding opMu.
type Router struct {
	ctx      context.Context
	store    Store
	bus      eventbus.Bus
	accounts Accounts
	auth     SignOuter
	sessions *session.Store
	sink     Sink
	logger   *logging.Logger
	observer live.Observer
	now      func() time.Time

	opMu sync.Mutex

	mu          sync.Mutex
	view        View
	screen      *scope
	overlay     *scope
	editorToken uint64
	version     uint64
	closed      bool

	unsubscribe func()
}

// NewRouter subscribes to the session store and shows the screen that
// matches its current state. Bindings live until Close or until ctx ends.
func NewRouter(ctx context.Context, cfg Config) *Router {
	r := &Router{
		ctx:      ctx,
		store:    cfg.Store,
		bus:      cfg.Bus,
		accounts: cfg.Accounts,
		auth:     cfg.Auth,
		sessions: cfg.Sessions,
		sink:     cfg.Sink,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		now:      cfg.Now,
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	if r.sink == nil {
		r.sink = SinkFunc(func(View) {})
	}
	if r.now == nil {
		r.now = time.Now
	}

	r.unsubscribe = r.sessions.Subscribe(r.onSession)

	sess, resolved := r.sessions.Current()
	switch {
	case !resolved:
		r.mu.Lock()
		r.view = View{Screen: ScreenLoading}
		r.emitLocked()
		r.mu.Unlock()
	default:
		r.onSession(sess)
	}
	return r
}

// Close tears down all bindings. Later session changes and actions are ignored.
func (r *Router) Close() {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.unsubscribe()
	r.teardown()
}

// Current returns the latest view.
func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Router) snapshotLocked() View {
	v := r.view
	v.Version = r.version
	if v.Editor != nil {
		e := *v.Editor
		v.Editor = &e
	}
	if v.Admin != nil {
		a := *v.Admin
		v.Admin = &a
	}
	capability := access.For(v.Session)
	v.CanManage = v.Session != nil && capability.IsAdmin()
	v.CanEditStatus = v.Screen == ScreenUnitDetail && v.Unit != nil && capability.CanEditRackStatus(v.Unit.ID)
	return v
}

func (r *Router) emitLocked() {
	if r.closed {
		return
	}
	r.version++
	r.sink.Show(r.snapshotLocked())
}

func (r *Router) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Router) bindOptions() live.Options {
	return live.Options{Logger: r.logger, Observer: r.observer}
}

func (r *Router) onSession(sess *session.Session) {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	if r.isClosed() {
		return
	}

	r.mu.Lock()
	r.view.Session = sess
	r.mu.Unlock()

	if sess == nil {
		r.enterLoggedOut()
		return
	}
	r.enterDashboard()
}

//
// TRANSITIONS (caller holds opMu)
//

// teardown closes the overlay and screen bindings. It must not run with mu
// held: Unsubscribe waits for deliveries that take mu.
func (r *Router) teardown() {
	r.mu.Lock()
	screen, overlay := r.screen, r.overlay
	r.screen, r.overlay = nil, nil
	r.mu.Unlock()

	overlay.close()
	screen.close()
}

func (r *Router) resetLocked(screen Screen) {
	r.editorToken++
	r.view = View{Screen: screen, Session: r.view.Session}
}

func (r *Router) enterLoggedOut() {
	r.teardown()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked(ScreenLoggedOut)
	r.emitLocked()
}

func (r *Router) enterDashboard() {
	r.teardown()

	sc := &scope{}
	r.mu.Lock()
	r.resetLocked(ScreenDashboard)
	r.screen = sc
	r.mu.Unlock()

	sc.add(live.Bind(r.ctx, r.bus, string(docstore.UnitsPath), r.store.ListUnits, func(units []models.Unit) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.screen != sc {
			return
		}
		r.view.Units = units
		r.emitLocked()
	}, r.bindOptions()))
}

func (r *Router) enterUnitDetail(unit *models.Unit) {
	r.teardown()

	sc := &scope{}
	r.mu.Lock()
	r.resetLocked(ScreenUnitDetail)
	r.view.Unit = unit
	r.screen = sc
	r.mu.Unlock()

	unitID := unit.ID
	load := func(ctx context.Context) ([]models.PipeRack, error) {
		return r.store.ListPipeRacks(ctx, unitID)
	}
	sc.add(live.Bind(r.ctx, r.bus, string(docstore.PipeRacksPath(unitID)), load, func(racks []models.PipeRack) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.screen != sc {
			return
		}
		r.view.Racks = racks
		r.emitLocked()
	}, r.bindOptions()))
}

func (r *Router) openAdminPanel() {
	sc := &scope{}
	r.mu.Lock()
	r.overlay = sc
	r.view.Admin = &AdminPanelView{}
	r.view.Alert, r.view.Notice = "", ""
	r.emitLocked()
	r.mu.Unlock()

	sc.add(live.Bind(r.ctx, r.bus, string(docstore.UsersPath), r.store.ListUsers, func(users []models.User) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.overlay != sc {
			return
		}
		panel := *r.view.Admin
		panel.Users = users
		r.view.Admin = &panel
		r.emitLocked()
	}, r.bindOptions()))

	sc.add(live.Bind(r.ctx, r.bus, string(docstore.UnitsPath), r.store.ListUnits, func(units []models.Unit) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.overlay != sc {
			return
		}
		panel := *r.view.Admin
		panel.Units = units
		r.view.Admin = &panel
		r.emitLocked()
	}, r.bindOptions()))
}

func (r *Router) closeAdminPanel() {
	r.mu.Lock()
	sc := r.overlay
	r.overlay = nil
	r.view.Admin = nil
	r.emitLocked()
	r.mu.Unlock()

	sc.close()
}
