package source

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangakeep/pkg/database"
	"mangakeep/pkg/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func TestSourceRepoSeedIdempotent(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx))
	require.NoError(t, repo.Seed(ctx))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Jikan", all[0].Name)
	assert.Equal(t, "MangaPassion", all[1].Name)
}

func TestSourceRepoCreateDuplicate(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	s, err := repo.Create(ctx, models.SourceCreate{Name: "Jikan", Language: "EN"})
	require.NoError(t, err)
	assert.NotZero(t, s.ID)

	_, err = repo.Create(ctx, models.SourceCreate{Name: "Jikan", Language: "EN"})
	require.ErrorIs(t, err, ErrDuplicateSource)
}

func TestSourceRepoGetByNameMissing(t *testing.T) {
	repo := NewRepo(newTestDB(t))

	s, err := repo.GetByName(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}
