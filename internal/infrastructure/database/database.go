// Package database bootstraps the gateway's PostgreSQL store: it
// creates the target database on first run, opens the shared GORM
// handle used by every repository and instruments query latency.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"conexao-server/services/chat-gateway/internal/infrastructure/metrics"
)

// Config controls GORM/PostgreSQL connectivity.
type Config struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        gormlogger.LogLevel
}

// Connect opens the gateway database, creating it first when the DSN
// points at a database that does not exist yet.
func Connect(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	if err := createIfMissing(cfg.DSN); err != nil {
		return nil, fmt.Errorf("ensure database: %w", err)
	}

	level := cfg.LogLevel
	if level == 0 {
		level = gormlogger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		PrepareStmt:    true,
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := tunePool(db, cfg); err != nil {
		return nil, err
	}
	if err := instrumentQueries(db); err != nil {
		return nil, fmt.Errorf("instrument queries: %w", err)
	}
	return db, nil
}

func tunePool(db *gorm.DB, cfg Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("retrieve sql db: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}

const queryStartKey = "metrics:query_start"

// instrumentQueries hooks the per-operation duration histogram into
// the GORM callback chain.
func instrumentQueries(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			if v, ok := tx.InstanceGet(queryStartKey); ok {
				if started, ok := v.(time.Time); ok {
					metrics.RecordDBQuery(op, time.Since(started).Seconds())
				}
			}
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("metrics:before_create", before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("metrics:after_create", after("create")); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("metrics:before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("metrics:after_query", after("query")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("metrics:before_update", before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("metrics:after_update", after("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("metrics:before_delete", before); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")); err != nil {
		return err
	}
	return nil
}

// createIfMissing connects to the maintenance database and creates the
// target database when absent. Non-URL DSN formats are left to the
// driver; the first real connection will surface any problem.
func createIfMissing(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil
	}

	name := strings.TrimPrefix(u.Path, "/")
	if name == "" || name == "postgres" {
		return nil
	}

	admin := *u
	admin.Path = "/postgres"

	sqlDB, err := sql.Open("postgres", admin.String())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var exists bool
	err = sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + quoteIdent(name))
	return err
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
