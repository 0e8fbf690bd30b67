// Package database owns the process wide gorm connection handle.
package database

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/novelhub/internal/config"
	"github.com/novelhub/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrClosed = errors.New("database connection closed")

// Conn is a lazily opened database handle. The first call to DB opens the
// pool; concurrent first callers share that single attempt.
type Conn struct {
	dialector func() gorm.Dialector
	gormCfg   *gorm.Config

	once   sync.Once
	mu     sync.Mutex
	db     *gorm.DB
	err    error
	closed bool
}

// NewConn creates a handle over an arbitrary dialector
func NewConn(dialector func() gorm.Dialector, gormCfg *gorm.Config) *Conn {
	if gormCfg == nil {
		gormCfg = &gorm.Config{}
	}
	return &Conn{dialector: dialector, gormCfg: gormCfg}
}

// NewPostgres creates a handle for the configured PostgreSQL database
func NewPostgres(cfg *config.Config) *Conn {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}
	dsn := cfg.Database.DSN()
	return NewConn(func() gorm.Dialector {
		return postgres.Open(dsn)
	}, &gorm.Config{Logger: gormLogger, TranslateError: true})
}

// DB returns the shared handle, opening it on first use
func (c *Conn) DB() (*gorm.DB, error) {
	c.once.Do(func() {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		db, err := c.open()
		c.mu.Lock()
		c.db, c.err = db, err
		c.mu.Unlock()
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.db, c.err
}

func (c *Conn) open() (*gorm.DB, error) {
	db, err := gorm.Open(c.dialector(), c.gormCfg)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("[Database] connection pool opened")
	return db, nil
}

// Close tears the pool down; later DB calls fail with ErrClosed
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates every table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
