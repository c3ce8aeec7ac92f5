package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/focuswin/core/internal/infrastructure/database"
	"github.com/focuswin/core/internal/ports"
)

const uniqueViolation = "23505"

// Store is the postgres-backed ports.Store
type Store struct {
	db     *database.DB
	users  ports.UserRepository
	groups ports.GroupRepository
	tasks  ports.TaskRepository
}

// NewStore wires the sqlx repositories over one connection pool
func NewStore(db *database.DB) *Store {
	return &Store{
		db:     db,
		users:  NewUserRepository(db),
		groups: NewGroupRepository(db),
		tasks:  NewTaskRepository(db),
	}
}

func (s *Store) Users() ports.UserRepository   { return s.users }
func (s *Store) Groups() ports.GroupRepository { return s.groups }
func (s *Store) Tasks() ports.TaskRepository   { return s.tasks }
func (s *Store) Transactor() ports.TxManager   { return s.db }

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// PoolStats exposes the postgres pool counters to the detailed health check
func (s *Store) PoolStats() map[string]interface{} {
	return s.db.PoolStats()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// sqlxNamedExec binds :name parameters and runs the statement on the
// transaction in ctx when there is one
func sqlxNamedExec(ctx context.Context, db *database.DB, query string, arg interface{}) (sql.Result, error) {
	exec := db.Executor(ctx)
	bound, args, err := sqlx.Named(query, arg)
	if err != nil {
		return nil, err
	}
	return exec.ExecContext(ctx, exec.Rebind(bound), args...)
}
