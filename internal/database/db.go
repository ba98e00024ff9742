package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"pipe-rack-manager/internal/config"
	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxConnectAttempts = 10
	connectRetryDelay  = 2 * time.Second
)

// Open connects to the configured database and runs migrations.
// Postgres connections are retried while the database container comes up.
func Open(cfg *config.Config, logger *logging.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err = OpenSQLite(cfg.DBDSN, gcfg)
	default:
		for i := 1; i <= maxConnectAttempts; i++ {
			logger.Info("connecting to database", "attempt", i, "max_attempts", maxConnectAttempts)
			db, err = gorm.Open(postgres.Open(cfg.DBDSN), gcfg)
			if err == nil {
				break
			}
			logger.WithError(err).Warn("database connection failed")
			time.Sleep(connectRetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}
	logger.Info("connected to database", "driver", cfg.DBDriver)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a pure-Go SQLite database. ":memory:" is pinned to a
// single connection so every query sees the same database.
func OpenSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	}
	db, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Account{},
		&models.User{},
		&models.Unit{},
		&models.PipeRack{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
