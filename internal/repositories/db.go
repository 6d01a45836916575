package repositories

import "database/sql"

// Tx is the transactional subset of *sql.Tx used by services that group
// multiple writes atomically.
type Tx interface {
	SQLExecutor
	Commit() error
	Rollback() error
}

// DB abstracts *sql.DB for the service layer: single-statement execution
// plus transaction handoff. Services depend on this interface so the store
// can be replaced in tests.
type DB interface {
	SQLExecutor
	Begin() (Tx, error)
}

type sqlDB struct {
	*sql.DB
}

// NewDB wraps a *sql.DB so its transactions surface through the Tx interface.
func NewDB(db *sql.DB) DB {
	return sqlDB{DB: db}
}

func (d sqlDB) Begin() (Tx, error) {
	tx, err := d.DB.Begin()
	if err != nil {
		return nil, err
	}
	return tx, nil
}
