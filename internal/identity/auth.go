package identity

import (
	"context"
	"sync"
)

// Auth is the credential state of one connected client. Listeners registered
// with OnCredentialChange are called in change order; a listener must not
// call back into SignIn*/SignOut of the same Auth.
type Auth struct {
	svc *Service

	emitMu sync.Mutex // serialises changes with their notifications

	mu        sync.Mutex
	current   *Credential
	listeners map[int]func(*Credential)
	nextID    int
}

func (s *Service) NewAuth(initial *Credential) *Auth {
	return &Auth{
		svc:       s,
		current:   clone(initial),
		listeners: make(map[int]func(*Credential)),
	}
}

func clone(c *Credential) *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func (a *Auth) Current() *Credential {
	a.mu.Lock()
	defer a.mu.Unlock()
	return clone(a.current)
}

// OnCredentialChange calls cb right away with the current credential (nil
// when signed out) and again on every change until the returned func is called.
func (a *Auth) OnCredentialChange(cb func(*Credential)) func() {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = cb
	cur := clone(a.current)
	a.mu.Unlock()

	cb(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

func (a *Auth) set(c *Credential) {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.mu.Lock()
	a.current = clone(c)
	ids := make([]int, 0, len(a.listeners))
	for id := range a.listeners {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	for _, id := range ids {
		a.mu.Lock()
		cb, ok := a.listeners[id]
		a.mu.Unlock()
		if ok {
			cb(clone(c))
		}
	}
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*Credential, error) {
	cred, err := a.svc.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.set(cred)
	return clone(cred), nil
}

func (a *Auth) SignInAnonymously(ctx context.Context) (*Credential, error) {
	cred, err := a.svc.SignInAnonymously(ctx)
	if err != nil {
		return nil, err
	}
	a.set(cred)
	return clone(cred), nil
}

func (a *Auth) SignOut() {
	a.set(nil)
}
