package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/focuswin/core/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

// DB is the postgres connection pool shared by the sqlx repositories
type DB struct {
	pool *sqlx.DB
	name string
}

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type Queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type txKey struct{}

// New opens the pool described by cfg and waits until postgres answers
func New(cfg config.DatabaseConfig) (*DB, error) {
	pool, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	configurePool(pool, cfg)

	db := &DB{pool: pool, name: cfg.Name}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return db, nil
}

func configurePool(pool *sqlx.DB, cfg config.DatabaseConfig) {
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

func (db *DB) Close() error {
	if db.pool == nil {
		return nil
	}
	return db.pool.Close()
}

// HealthCheck pings postgres, bounded by pingTimeout
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.pool.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres unreachable: %w", err)
	}
	return nil
}

// PoolStats reports the pool counters shown by the detailed health check
func (db *DB) PoolStats() map[string]interface{} {
	s := db.pool.Stats()
	return map[string]interface{}{
		"max_open":      s.MaxOpenConnections,
		"open":          s.OpenConnections,
		"in_use":        s.InUse,
		"idle":          s.Idle,
		"wait_count":    s.WaitCount,
		"wait_duration": s.WaitDuration.String(),
	}
}

// Executor returns the transaction carried by ctx, or the pool when there is none
func (db *DB) Executor(ctx context.Context) Queryer {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.pool
}

// WithinTransaction runs fn in a transaction. Nested calls join the outer one.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.pool.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit transaction: %w", cErr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}
