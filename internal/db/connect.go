package db

import (
	"fmt"
	"net"
	"strconv"

	"github.com/buurtplein/buurtchat/internal/config"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath is the sqlite path that keeps everything in-session.
const MemoryPath = ":memory:"

// DSN builds a MySQL DSN for the hosted backend.
func DSN(user, host string, port int, database string) string {
	c := mysqldriver.NewConfig()
	c.User = user
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.DBName = database
	c.ParseTime = true
	return c.FormatDSN()
}

// Connect opens a GORM connection for the configured driver.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	switch cfg.Driver {
	case config.DriverMySQL:
		db, err := gorm.Open(mysql.Open(DSN(cfg.User, cfg.Host, cfg.Port, cfg.Name)), gcfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
		}
		return db, nil
	case config.DriverSQLite, "":
		return ConnectSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// ConnectSQLite opens a sqlite database at path. The pool is pinned to a
// single connection: an in-memory database must share it to see the same
// data, and a file database has one writer anyway.
func ConnectSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = MemoryPath
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
