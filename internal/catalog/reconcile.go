package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// findOrCreate resolves a named entity (author, genre or list) to its row id
// within the enclosing transaction, creating the row if the exact name is
// not present yet. Because it runs on the transaction, a second call with
// the same name sees the first call's insert, so one multi-entity create
// can never produce two rows for one name.
func findOrCreate(ctx context.Context, tx *sql.Tx, table, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup %s %q: %w", table, name, err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert %s %q: %w", table, name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s %q id: %w", table, name, err)
	}
	return id, nil
}
