package cmd

import (
	"database/sql"
	"fmt"

	"github.com/frahmantamala/project-management/internal"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Database shares one connection pool between gorm (repositories) and sqlx
// (reporting queries).
type Database struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
	Raw  *sql.DB
	// Driver is the configured driver name, used as the health component.
	Driver string
}

func (d *Database) Close() error {
	return d.Raw.Close()
}

// sqlDriverName maps the config driver to the database/sql driver name, which
// is also what sqlx and goose key their bind style and dialect on.
func sqlDriverName(driver string) string {
	if driver == internal.DriverSQLite {
		return "sqlite3"
	}
	return "pgx"
}

func initDB(cfg internal.DatabaseConfig) (*Database, error) {
	driver := cfg.DriverName()
	gormCfg := &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Warn)}

	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case internal.DriverSQLite:
		gdb, err = gorm.Open(sqlite.Open(cfg.GetDSN()), gormCfg)
	default:
		conn, connErr := sqlx.Connect("pgx", cfg.GetDSN())
		if connErr != nil {
			return nil, fmt.Errorf("failed to open db connection: %w", connErr)
		}
		gdb, err = gorm.Open(postgres.New(postgres.Config{Conn: conn.DB}), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	raw, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if driver == internal.DriverSQLite {
		// one writer keeps sqlite from returning SQLITE_BUSY inside transactions
		raw.SetMaxOpenConns(1)
	} else {
		raw.SetMaxOpenConns(cfg.MaxOpenConns)
		raw.SetMaxIdleConns(cfg.MaxIdleConns)
		raw.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		raw.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := raw.Ping(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		Gorm:   gdb,
		SQLX:   sqlx.NewDb(raw, sqlDriverName(driver)),
		Raw:    raw,
		Driver: driver,
	}, nil
}
