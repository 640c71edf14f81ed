package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangakeep/internal/covers"
	"mangakeep/pkg/database"
	"mangakeep/pkg/models"
)

func newTestRepo(t *testing.T) (*Repo, *sql.DB, string) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(database.Config{Path: filepath.Join(dir, "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))

	imageDir := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(imageDir, 0o755))

	return NewRepo(db, covers.NewManager(imageDir)), db, imageDir
}

func narutoCreate() models.MangaCreate {
	return models.MangaCreate{
		Title:    "Naruto",
		Language: "EN",
		Category: models.CategoryManga,
		Authors:  []models.AuthorCreate{{Name: "Kishimoto"}},
		Genres:   []models.GenreCreate{{Name: "Action"}},
		Lists:    []models.ListCreate{},
		Volumes:  []models.VolumeCreate{},
	}
}

func TestCreateAndGet(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	rating := 4.5
	m, err := repo.Create(ctx, models.MangaCreate{
		Title:         "Berserk",
		JapaneseTitle: "ベルセルク",
		ReadingStatus: models.ReadingInProgress,
		OverallStatus: models.StatusOngoing,
		StarRating:    &rating,
		Language:      "EN",
		Category:      models.CategoryManga,
		Summary:       "Dark fantasy.",
		Authors:       []models.AuthorCreate{{Name: "Miura"}},
		Genres:        []models.GenreCreate{{Name: "Action"}, {Name: "Horror"}},
		Lists:         []models.ListCreate{{Name: "Favorites"}},
		Volumes:       []models.VolumeCreate{{VolumeNumber: "0"}, {VolumeNumber: "13.5"}},
	})
	require.NoError(t, err)
	require.NotZero(t, m.ID)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)

	assert.Equal(t, "Berserk", got.Title)
	assert.Equal(t, "ベルセルク", got.JapaneseTitle)
	assert.Equal(t, models.ReadingInProgress, got.ReadingStatus)
	assert.Equal(t, models.StatusOngoing, got.OverallStatus)
	require.NotNil(t, got.StarRating)
	assert.Equal(t, 4.5, *got.StarRating)
	assert.Equal(t, "EN", got.Language)
	assert.Equal(t, models.CategoryManga, got.Category)
	assert.Equal(t, "Dark fantasy.", got.Summary)

	require.Len(t, got.Authors, 1)
	assert.Equal(t, "Miura", got.Authors[0].Name)
	assert.EqualValues(t, 1, got.Authors[0].MangaCount)

	require.Len(t, got.Genres, 2)
	require.Len(t, got.Lists, 1)
	assert.Equal(t, "Favorites", got.Lists[0].Name)

	require.Len(t, got.Volumes, 2)
	assert.Equal(t, "0", got.Volumes[0].VolumeNumber)
	assert.Equal(t, "13.5", got.Volumes[1].VolumeNumber)
	assert.Equal(t, m.ID, got.Volumes[0].MangaID)
}

func TestCreateSetsCountersToOne(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	m, err := repo.Create(ctx, narutoCreate())
	require.NoError(t, err)

	require.Len(t, m.Authors, 1)
	assert.Equal(t, "Kishimoto", m.Authors[0].Name)
	assert.EqualValues(t, 1, m.Authors[0].MangaCount)

	require.Len(t, m.Genres, 1)
	assert.Equal(t, "Action", m.Genres[0].Name)
	assert.EqualValues(t, 1, m.Genres[0].MangaCount)
}

func TestCreateDuplicateRejected(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, narutoCreate())
	require.NoError(t, err)

	_, err = repo.Create(ctx, narutoCreate())
	require.ErrorIs(t, err, ErrDuplicate)

	// the failed create must leave no trace behind
	var mangas, authors int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM mangas`).Scan(&mangas))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM authors`).Scan(&authors))
	assert.Equal(t, 1, mangas)
	assert.Equal(t, 1, authors)

	var count int64
	require.NoError(t, db.QueryRow(`SELECT manga_count FROM authors WHERE name = 'Kishimoto'`).Scan(&count))
	assert.EqualValues(t, 1, count)
}

func TestSameTitleDifferentLanguage(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	en := narutoCreate()
	de := narutoCreate()
	de.Language = "DE"

	_, err := repo.Create(ctx, en)
	require.NoError(t, err)
	_, err = repo.Create(ctx, de)
	require.NoError(t, err)

	got, err := repo.GetByTitle(ctx, "Naruto", "EN")
	require.NoError(t, err)
	assert.Equal(t, "EN", got.Language)

	got, err = repo.GetByTitle(ctx, "Naruto", "DE")
	require.NoError(t, err)
	assert.Equal(t, "DE", got.Language)
}

func TestSharedAuthorNotDuplicated(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	ctx := context.Background()

	first := narutoCreate()
	second := narutoCreate()
	second.Title = "Boruto"

	_, err := repo.Create(ctx, first)
	require.NoError(t, err)
	_, err = repo.Create(ctx, second)
	require.NoError(t, err)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM authors WHERE name = 'Kishimoto'`).Scan(&rows))
	assert.Equal(t, 1, rows)

	var count int64
	require.NoError(t, db.QueryRow(`SELECT manga_count FROM authors WHERE name = 'Kishimoto'`).Scan(&count))
	assert.EqualValues(t, 2, count)
}

func TestUpdateReplacesLinksAndRecounts(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	ctx := context.Background()

	mc := narutoCreate()
	mc.Genres = []models.GenreCreate{{Name: "Horror"}}
	m, err := repo.Create(ctx, mc)
	require.NoError(t, err)

	// drop the only genre, swap the author
	m.Genres = []models.Genre{}
	m.Authors = []models.Author{{Name: "Oda"}}
	updated, err := repo.Update(ctx, *m)
	require.NoError(t, err)

	assert.Empty(t, updated.Genres)
	require.Len(t, updated.Authors, 1)
	assert.Equal(t, "Oda", updated.Authors[0].Name)
	assert.EqualValues(t, 1, updated.Authors[0].MangaCount)

	// the dropped genre keeps its row but lands on zero
	var name string
	var count int64
	require.NoError(t, db.QueryRow(`SELECT name, manga_count FROM genres WHERE name = 'Horror'`).Scan(&name, &count))
	assert.Equal(t, "Horror", name)
	assert.EqualValues(t, 0, count)

	// the old author drops to zero too
	require.NoError(t, db.QueryRow(`SELECT manga_count FROM authors WHERE name = 'Kishimoto'`).Scan(&count))
	assert.EqualValues(t, 0, count)
}

func TestUpdateReplacesVolumes(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	ctx := context.Background()

	mc := narutoCreate()
	mc.Volumes = []models.VolumeCreate{{VolumeNumber: "1"}, {VolumeNumber: "2"}}
	m, err := repo.Create(ctx, mc)
	require.NoError(t, err)

	m.Volumes = []models.Volume{{VolumeNumber: "3"}}
	updated, err := repo.Update(ctx, *m)
	require.NoError(t, err)

	require.Len(t, updated.Volumes, 1)
	assert.Equal(t, "3", updated.Volumes[0].VolumeNumber)

	var total int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM volumes`).Scan(&total))
	assert.Equal(t, 1, total)
}

func TestCreateRejectsOutOfRangeRating(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	ctx := context.Background()

	for _, rating := range []float64{9.5, 0.5, -1} {
		mc := narutoCreate()
		mc.StarRating = &rating
		_, err := repo.Create(ctx, mc)
		require.ErrorIs(t, err, ErrInvalidRating, "rating %g", rating)
	}

	var mangas int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM mangas`).Scan(&mangas))
	assert.Zero(t, mangas)

	// boundary values are valid
	for i, rating := range []float64{1, 5} {
		mc := narutoCreate()
		mc.Title = mc.Title + string(rune('A'+i))
		mc.StarRating = &rating
		_, err := repo.Create(ctx, mc)
		require.NoError(t, err, "rating %g", rating)
	}
}

func TestCreateBatchRejectsOutOfRangeRating(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	ctx := context.Background()

	bad := narutoCreate()
	bad.Title = "Boruto"
	rating := 6.0
	bad.StarRating = &rating

	_, err := repo.CreateBatch(ctx, []models.MangaCreate{narutoCreate(), bad})
	require.ErrorIs(t, err, ErrInvalidRating)

	var mangas int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM mangas`).Scan(&mangas))
	assert.Zero(t, mangas)
}

func TestUpdateRejectsOutOfRangeRating(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	m, err := repo.Create(ctx, narutoCreate())
	require.NoError(t, err)

	rating := 0.0
	m.StarRating = &rating
	_, err = repo.Update(ctx, *m)
	require.ErrorIs(t, err, ErrInvalidRating)

	// stored row untouched
	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StarRating)
}

func TestUpdateRetitleOntoExistingPair(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, narutoCreate())
	require.NoError(t, err)

	other := narutoCreate()
	other.Title = "Boruto"
	m, err := repo.Create(ctx, other)
	require.NoError(t, err)

	m.Title = "Naruto"
	_, err = repo.Update(ctx, *m)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateNotFound(t *testing.T) {
	repo, _, _ := newTestRepo(t)

	_, err := repo.Update(context.Background(), models.Manga{ID: 9999, Title: "x", Category: models.CategoryManga})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReleasesOldCover(t *testing.T) {
	repo, _, imageDir := newTestRepo(t)
	ctx := context.Background()

	old := filepath.Join(imageDir, "old-cover.jpg")
	require.NoError(t, os.WriteFile(old, []byte("jpeg"), 0o644))

	mc := narutoCreate()
	mc.CoverImage = "old-cover.jpg"
	m, err := repo.Create(ctx, mc)
	require.NoError(t, err)
	assert.Equal(t, "old-cover.jpg", m.CoverImage)

	m.CoverImage = "new-cover.jpg"
	updated, err := repo.Update(ctx, *m)
	require.NoError(t, err)
	assert.Equal(t, "new-cover.jpg", updated.CoverImage)

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteRemovesCoverVolumesAndRecounts(t *testing.T) {
	repo, db, imageDir := newTestRepo(t)
	ctx := context.Background()

	cover := filepath.Join(imageDir, "naruto.jpg")
	require.NoError(t, os.WriteFile(cover, []byte("jpeg"), 0o644))

	mc := narutoCreate()
	mc.CoverImage = "naruto.jpg"
	mc.Volumes = []models.VolumeCreate{{VolumeNumber: "1"}}
	m, err := repo.Create(ctx, mc)
	require.NoError(t, err)

	_, err = repo.Delete(ctx, m.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, m.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = os.Stat(cover)
	assert.True(t, os.IsNotExist(err))

	var volumes int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM volumes`).Scan(&volumes))
	assert.Zero(t, volumes)

	var count int64
	require.NoError(t, db.QueryRow(`SELECT manga_count FROM authors WHERE name = 'Kishimoto'`).Scan(&count))
	assert.EqualValues(t, 0, count)
}

func TestDeleteNotFound(t *testing.T) {
	repo, _, _ := newTestRepo(t)

	_, err := repo.Delete(context.Background(), 12345)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBatchAtomic(t *testing.T) {
	repo, db, _ := newTestRepo(t)
	ctx := context.Background()

	boruto := narutoCreate()
	boruto.Title = "Boruto"

	// second member duplicates the first: the whole batch must roll back
	_, err := repo.CreateBatch(ctx, []models.MangaCreate{boruto, boruto})
	require.ErrorIs(t, err, ErrDuplicate)

	var mangas, authors int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM mangas`).Scan(&mangas))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM authors`).Scan(&authors))
	assert.Zero(t, mangas)
	assert.Zero(t, authors)

	created, err := repo.CreateBatch(ctx, []models.MangaCreate{narutoCreate(), boruto})
	require.NoError(t, err)
	require.Len(t, created, 2)
}

func TestListSearchSortAndPage(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	for _, title := range []string{"Akira", "Berserk", "Bleach"} {
		mc := narutoCreate()
		mc.Title = title
		_, err := repo.Create(ctx, mc)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, ListQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Akira", all[0].Title)

	desc, err := repo.List(ctx, ListQuery{Limit: 10, Sort: "desc"})
	require.NoError(t, err)
	assert.Equal(t, "Bleach", desc[0].Title)

	// case-insensitive substring match
	found, err := repo.List(ctx, ListQuery{Limit: 10, Search: "ble"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bleach", found[0].Title)

	page, err := repo.List(ctx, ListQuery{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Berserk", page[0].Title)
}

func TestListOversizedLimitClamps(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		mc := narutoCreate()
		mc.Title = fmt.Sprintf("Series %02d", i)
		_, err := repo.Create(ctx, mc)
		require.NoError(t, err)
	}

	// above the cap the limit clamps to the cap, it does not fall back
	// to the default page size
	all, err := repo.List(ctx, ListQuery{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, all, 12)
}

func TestListByListMarker(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	favorite := narutoCreate()
	favorite.Lists = []models.ListCreate{{Name: "Favorites"}}
	_, err := repo.Create(ctx, favorite)
	require.NoError(t, err)

	other := narutoCreate()
	other.Title = "Bleach"
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	found, err := repo.List(ctx, ListQuery{Limit: 10, Search: "list:Favorites"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Naruto", found[0].Title)
}

func TestListByRelations(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	rating := 5.0
	mc := narutoCreate()
	mc.StarRating = &rating
	m, err := repo.Create(ctx, mc)
	require.NoError(t, err)

	byAuthor, err := repo.ListByAuthor(ctx, m.Authors[0].ID)
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, m.ID, byAuthor[0].ID)

	byGenre, err := repo.ListByGenre(ctx, m.Genres[0].ID)
	require.NoError(t, err)
	require.Len(t, byGenre, 1)

	byList, err := repo.ListByList(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, byList)

	byRating, err := repo.ListByRating(ctx, 5.0)
	require.NoError(t, err)
	require.Len(t, byRating, 1)
}
