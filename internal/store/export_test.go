package store

import (
	"database/sql"
	"errors"
)

// FailInsertsAfter makes every bulk write path fail once n records have
// been written, so tests can exercise mid-batch rollback. This file only
// compiles during `go test`.
func (s *Store) FailInsertsAfter(n int) {
	written := 0
	s.hooks.insert = func(stmt *sql.Stmt, rec ObjectRecord) (sql.Result, error) {
		if written >= n {
			return nil, errors.New("injected insert failure")
		}
		written++
		return stmt.Exec(rec.Name, rec.Package, rec.TypeID, rec.Path, rec.ModifiedAt.Unix(), rec.Size)
	}
}

// RestoreInserts removes a previously injected insert failure.
func (s *Store) RestoreInserts() {
	s.hooks.insert = nil
}
