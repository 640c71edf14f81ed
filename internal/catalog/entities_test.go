package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangakeep/pkg/models"
)

func TestEntityRepoAuthorsAndGenres(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	entities := NewEntityRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, narutoCreate())
	require.NoError(t, err)

	authors, err := entities.AllAuthors(ctx)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "Kishimoto", authors[0].Name)
	assert.EqualValues(t, 1, authors[0].MangaCount)

	a, err := entities.AuthorByID(ctx, authors[0].ID)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Kishimoto", a.Name)

	missing, err := entities.AuthorByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	genres, err := entities.AllGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "Action", genres[0].Name)
}

func TestEntityRepoCreateGenreIdempotent(t *testing.T) {
	_, db, _ := newTestRepo(t)
	entities := NewEntityRepo(db)
	ctx := context.Background()

	first, err := entities.CreateGenre(ctx, models.GenreCreate{Name: "Seinen"})
	require.NoError(t, err)
	require.NotNil(t, first)

	// creating an existing genre hands back the existing row
	second, err := entities.CreateGenre(ctx, models.GenreCreate{Name: "Seinen"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := entities.AllGenres(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEntityRepoLists(t *testing.T) {
	_, db, _ := newTestRepo(t)
	entities := NewEntityRepo(db)
	ctx := context.Background()

	l, err := entities.CreateList(ctx, models.ListCreate{Name: "Favorites"})
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "Favorites", l.Name)

	got, err := entities.ListByID(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	missing, err := entities.ListByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := entities.AllLists(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
