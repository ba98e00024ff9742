package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"pipe-rack-manager/internal/database"
	"pipe-rack-manager/internal/docstore"
	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "racks.db")
	t.Setenv("DB_DSN", path)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("REDIS_URL", "")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCommand(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestCreateAdminOnlyOnce(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "create-admin", "--email", "Ops@Site.local", "--password", "secret99")
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin ops@site.local")

	_, err = run(t, "create-admin", "--email", "second@site.local", "--password", "secret99")
	require.ErrorIs(t, err, database.ErrAdminExists)
}

func TestCreateAdminRequiresPassword(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "create-admin", "--email", "ops@site.local")
	require.Error(t, err)
}

func TestOrphansListAndPurge(t *testing.T) {
	path := setupEnv(t)

	// Run once so the schema exists.
	out, err := run(t, "orphans")
	require.NoError(t, err)
	assert.Contains(t, out, "No orphaned pipe racks.")

	db, err := database.OpenSQLite(path, nil)
	require.NoError(t, err)
	bus := eventbus.NewMemory()
	store := docstore.New(db, bus, logging.Discard())
	ctx := context.Background()
	require.NoError(t, store.CreateUnit(ctx, "admin", models.Unit{ID: "550", Name: "Unit 550"}))
	require.NoError(t, store.CreatePipeRack(ctx, "admin", "550", "PR01"))
	require.NoError(t, store.CreateUnit(ctx, "admin", models.Unit{ID: "560", Name: "Unit 560"}))
	require.NoError(t, store.CreatePipeRack(ctx, "admin", "560", "PR01"))
	require.NoError(t, store.DeleteUnit(ctx, "admin", "550"))
	require.NoError(t, bus.Close())
	require.NoError(t, database.Close(db))

	out, err = run(t, "orphans")
	require.NoError(t, err)
	assert.Contains(t, out, "550")
	assert.NotContains(t, out, "560")

	out, err = run(t, "orphans", "--purge")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 orphaned pipe rack(s).")

	out, err = run(t, "orphans", "--json")
	require.NoError(t, err)
	var racks []models.PipeRack
	require.NoError(t, json.Unmarshal([]byte(out), &racks))
	assert.Empty(t, racks)

	out, err = run(t, "history", "--entity", "pipe_rack", "--id", "550/PR01", "--json")
	require.NoError(t, err)
	var entries []docstore.AuditEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, ActorID, entries[0].UserID)
}
