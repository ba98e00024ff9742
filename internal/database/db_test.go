package database

import (
	"testing"

	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)
	for _, table := range []string{"accounts", "users", "units", "pipe_racks", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	admin, err := SeedAdmin(db, " Admin@Site.local ", "Admin123!", "", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "admin@site.local", admin.Email)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Administrator", admin.DisplayName)

	var account models.Account
	require.NoError(t, db.First(&account, "id = ?", admin.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("Admin123!")))

	_, err = SeedAdmin(db, "other@site.local", "x", "", logging.Discard())
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestSeedAdminReusesOrphanedAccount(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.Account{ID: "acc-1", Email: "boss@site.local", PasswordHash: "old"}).Error)

	admin, err := SeedAdmin(db, "boss@site.local", "NewPass1", "Boss", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", admin.ID)

	var count int64
	db.Model(&models.Account{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestAuditTrail(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, CreateAuditLog(db, "u1", "pipe_rack", "550/PR01", "create", "created"))
	require.NoError(t, CreateAuditLog(db, "u1", "pipe_rack", "550/PR01", "status_change", "empty -> no-space"))
	require.NoError(t, CreateAuditLog(db, "u1", "unit", "550", "create", "created"))
	require.NoError(t, CreateAuditLog(nil, "u1", "unit", "550", "create", "ignored"))

	logs, err := AuditTrail(db, "pipe_rack", "550/PR01", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "status_change", logs[0].Action)

	all, err := AuditTrail(db, "", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
