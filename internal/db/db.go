package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "github.com/suPer8Hu/keyword-chatbot/internal/logger"
)

type gormWriter struct {
	log *applog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.SugaredLogger.Warnf(format, args...)
}

// Dialector picks the gorm driver for dsn:
//
//	memory           in-memory SQLite
//	sqlite:<path>    SQLite file, parent directory created on demand
//	anything else    MySQL DSN
func Dialector(dsn string) (gorm.Dialector, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return sqlite.Open("file::memory:?cache=shared"), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(dsn, "sqlite:")
		if dir := filepath.Dir(path); dir != "." && dir != "/" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir %s: %w", dir, err)
			}
		}
		return sqlite.Open(path), nil
	default:
		return mysql.Open(dsn), nil
	}
}

// Connect opens the database and applies pool settings. Slow queries and
// driver errors go to log.
func Connect(dsn string, log *applog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = applog.NewNop()
	}
	d, err := Dialector(dsn)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(d, &gorm.Config{
		Logger: logger.New(
			gormWriter{log: log},
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if d.Name() == "sqlite" {
		// one writer keeps SQLite from returning SQLITE_BUSY under concurrent appends
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	return gdb, nil
}
