// package repositories provides the sqlite cache for playlists, tracks and session history.
//
// Rows are keyed by Spotify IDs and overwritten on every fetch, so the cache always holds the
// most recently seen copy of an entity.
package repositories

import (
	"database/sql"
	"fmt"
)

// rowQuerier is satisfied by both [sql.DB] and [sql.Tx].
type rowQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// requireAffected turns a zero-row update or delete into an error wrapping notFound.
func requireAffected(result sql.Result, notFound error, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
