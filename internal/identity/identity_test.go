package identity

import (
	"context"
	"sync"
	"testing"

	"pipe-rack-manager/internal/database"
	"pipe-rack-manager/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return NewService(db, logging.Discard())
}

func TestCreateAccountAndSignIn(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, " Worker@Site.Local ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "worker@site.local", created.Email)
	assert.False(t, created.Anonymous)

	cred, err := s.SignInWithPassword(ctx, "WORKER@site.local", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, cred.UID)

	found, err := s.Lookup(ctx, created.UID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.Email, found.Email)

	gone, err := s.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	_, err := s.CreateAccount(ctx, "worker@site.local", "secret1")
	require.NoError(t, err)

	_, err = s.SignInWithPassword(ctx, "worker@site.local", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	var aerr *AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "invalid email or password", aerr.Error())

	_, err = s.SignInWithPassword(ctx, "nobody@site.local", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateAccountValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.CreateAccount(ctx, "no-at-sign", "secret1")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = s.CreateAccount(ctx, "a@b.c", "123")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = s.CreateAccount(ctx, "a@b.c", "secret1")
	require.NoError(t, err)
	_, err = s.CreateAccount(ctx, "A@B.C", "secret2")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestSignInAnonymouslyIsNotPersisted(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a, err := s.SignInAnonymously(ctx)
	require.NoError(t, err)
	b, err := s.SignInAnonymously(ctx)
	require.NoError(t, err)

	assert.True(t, a.Anonymous)
	assert.NotEqual(t, a.UID, b.UID)

	found, err := s.Lookup(ctx, a.UID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

type recorder struct {
	mu    sync.Mutex
	calls []*Credential
}

func (r *recorder) record(c *Credential) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recorder) snapshot() []*Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Credential(nil), r.calls...)
}

func TestAuthStreamFiresOnSubscribeAndChanges(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	_, err := s.CreateAccount(ctx, "admin@site.local", "Admin123!")
	require.NoError(t, err)

	auth := s.NewAuth(nil)
	rec := &recorder{}
	unsubscribe := auth.OnCredentialChange(rec.record)

	require.Len(t, rec.snapshot(), 1)
	assert.Nil(t, rec.snapshot()[0])

	_, err = auth.SignInWithPassword(ctx, "admin@site.local", "wrong")
	require.Error(t, err)
	assert.Len(t, rec.snapshot(), 1, "failed sign-in does not change the credential")

	cred, err := auth.SignInWithPassword(ctx, "admin@site.local", "Admin123!")
	require.NoError(t, err)
	auth.SignOut()

	calls := rec.snapshot()
	require.Len(t, calls, 3)
	assert.Equal(t, cred.UID, calls[1].UID)
	assert.Nil(t, calls[2])
	assert.Nil(t, auth.Current())

	unsubscribe()
	unsubscribe()
	_, err = auth.SignInAnonymously(ctx)
	require.NoError(t, err)
	assert.Len(t, rec.snapshot(), 3)
	assert.True(t, auth.Current().Anonymous)
}

func TestAuthInitialCredential(t *testing.T) {
	s := newTestService(t)
	auth := s.NewAuth(&Credential{UID: "u1", Email: "a@b.c"})

	var got *Credential
	auth.OnCredentialChange(func(c *Credential) { got = c })
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UID)

	got.UID = "mutated"
	assert.Equal(t, "u1", auth.Current().UID)
}
