package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateIdempotentInTx(t *testing.T) {
	_, db, _ := newTestRepo(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	first, err := findOrCreate(ctx, tx, "authors", "Kishimoto")
	require.NoError(t, err)

	// a second lookup inside the same tx must see the uncommitted row
	second, err := findOrCreate(ctx, tx, "authors", "Kishimoto")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := findOrCreate(ctx, tx, "authors", "Oda")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	require.NoError(t, tx.Commit())

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM authors`).Scan(&rows))
	assert.Equal(t, 2, rows)
}
