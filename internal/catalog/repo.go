// Package catalog owns the manga aggregate: create/update/delete with
// find-or-create reconciliation of authors, genres and lists, cover asset
// lifecycle, and the maintained manga_count counters. Every public mutation
// runs inside one transaction; slow work (cover downloads) happens before
// the transaction begins.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"mangakeep/internal/covers"
	"mangakeep/pkg/models"
)

// Search terms starting with this marker filter by list membership
// instead of by title substring.
const listSearchPrefix = "list:"

type Repo struct {
	DB     *sql.DB
	Covers *covers.Manager
}

func NewRepo(db *sql.DB, cov *covers.Manager) *Repo {
	return &Repo{DB: db, Covers: cov}
}

// querier is satisfied by both *sql.DB and *sql.Tx so aggregate loads work
// inside and outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type ListQuery struct {
	Skip   int
	Limit  int
	Search string
	Sort   string // "asc" or "desc" by title; default asc
}

// checkRating rejects ratings outside the inclusive 1-5 range. A nil
// rating means unrated and is always valid.
func checkRating(rating *float64) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fmt.Errorf("%g: %w", *rating, ErrInvalidRating)
	}
	return nil
}

// Create persists a new manga aggregate. The cover reference is resolved
// (possibly downloaded) before the transaction starts; duplicate
// (title, language) pairs are rejected with ErrDuplicate.
func (r *Repo) Create(ctx context.Context, mc models.MangaCreate) (*models.Manga, error) {
	if err := checkRating(mc.StarRating); err != nil {
		return nil, err
	}

	cover := r.Covers.Resolve(ctx, mc.CoverImage)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	m, err := r.createTx(ctx, tx, mc, cover)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return m, nil
}

// CreateBatch creates every manga in order within a single transaction.
// If any member fails the whole batch rolls back and the triggering error
// is returned.
func (r *Repo) CreateBatch(ctx context.Context, mcs []models.MangaCreate) ([]models.Manga, error) {
	// Validate before resolving so a doomed batch downloads nothing.
	for _, mc := range mcs {
		if err := checkRating(mc.StarRating); err != nil {
			return nil, fmt.Errorf("batch member %q: %w", mc.Title, err)
		}
	}

	// Resolve all covers first so no network I/O happens mid-transaction.
	coverFiles := make([]string, len(mcs))
	for i, mc := range mcs {
		coverFiles[i] = r.Covers.Resolve(ctx, mc.CoverImage)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	out := make([]models.Manga, 0, len(mcs))
	for i, mc := range mcs {
		m, err := r.createTx(ctx, tx, mc, coverFiles[i])
		if err != nil {
			return nil, fmt.Errorf("batch member %q: %w", mc.Title, err)
		}
		out = append(out, *m)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return out, nil
}

func (r *Repo) createTx(ctx context.Context, tx *sql.Tx, mc models.MangaCreate, cover string) (*models.Manga, error) {
	var existing int64
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM mangas WHERE title = ? AND IFNULL(language, '') = ?
	`, mc.Title, mc.Language).Scan(&existing)
	if err == nil {
		return nil, fmt.Errorf("%q (%s): %w", mc.Title, mc.Language, ErrDuplicate)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO mangas (title, japanese_title, reading_status, overall_status,
			star_rating, language, category, summary, cover_image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, mc.Title, nullable(mc.JapaneseTitle), nullable(string(mc.ReadingStatus)),
		nullable(string(mc.OverallStatus)), mc.StarRating, mc.Language,
		string(mc.Category), nullable(mc.Summary), nullable(cover))
	if err != nil {
		return nil, fmt.Errorf("insert manga: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert manga id: %w", err)
	}

	authorIDs, genreIDs, err := r.linkEntities(ctx, tx, id, mc.Authors, mc.Genres, mc.Lists)
	if err != nil {
		return nil, err
	}

	if err := insertVolumes(ctx, tx, id, mc.Volumes); err != nil {
		return nil, err
	}

	if err := recomputeCounts(ctx, tx, authorIDs, genreIDs); err != nil {
		return nil, err
	}

	return loadManga(ctx, tx, id)
}

// linkEntities reconciles every referenced author/genre/list name to a row
// and links it to the manga. Link inserts use OR IGNORE so an input that
// repeats a name does not fail on the join table's primary key.
func (r *Repo) linkEntities(ctx context.Context, tx *sql.Tx, mangaID int64,
	authors []models.AuthorCreate, genres []models.GenreCreate, lists []models.ListCreate,
) (authorIDs, genreIDs []int64, err error) {
	for _, a := range authors {
		aid, err := findOrCreate(ctx, tx, "authors", a.Name)
		if err != nil {
			return nil, nil, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO manga_author (manga_id, author_id) VALUES (?, ?)
		`, mangaID, aid); err != nil {
			return nil, nil, fmt.Errorf("link author: %w", err)
		}
		authorIDs = append(authorIDs, aid)
	}

	for _, g := range genres {
		gid, err := findOrCreate(ctx, tx, "genres", g.Name)
		if err != nil {
			return nil, nil, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO manga_genre (manga_id, genre_id) VALUES (?, ?)
		`, mangaID, gid); err != nil {
			return nil, nil, fmt.Errorf("link genre: %w", err)
		}
		genreIDs = append(genreIDs, gid)
	}

	for _, l := range lists {
		lid, err := findOrCreate(ctx, tx, "lists", l.Name)
		if err != nil {
			return nil, nil, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO manga_list (manga_id, list_id) VALUES (?, ?)
		`, mangaID, lid); err != nil {
			return nil, nil, fmt.Errorf("link list: %w", err)
		}
	}

	return authorIDs, genreIDs, nil
}

func insertVolumes(ctx context.Context, tx *sql.Tx, mangaID int64, vols []models.VolumeCreate) error {
	for _, v := range vols {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO volumes (volume_number, cover_image, manga_id) VALUES (?, ?, ?)
		`, v.VolumeNumber, nullable(v.CoverImage), mangaID); err != nil {
			return fmt.Errorf("insert volume %q: %w", v.VolumeNumber, err)
		}
	}
	return nil
}

// Update overwrites the whole aggregate: all scalar fields unconditionally,
// full replacement of author/genre/list links and of the volume set.
// Counters are recomputed for the union of previously- and newly-linked
// entities so anything that lost its last link ends at zero.
func (r *Repo) Update(ctx context.Context, m models.Manga) (*models.Manga, error) {
	if err := checkRating(m.StarRating); err != nil {
		return nil, err
	}

	stored, err := loadManga(ctx, r.DB, m.ID)
	if err != nil {
		return nil, err
	}

	cover := r.Covers.Resolve(ctx, m.CoverImage)
	if stored.CoverImage != "" && stored.CoverImage != cover {
		r.Covers.Release(stored.CoverImage)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE mangas SET title = ?, japanese_title = ?, reading_status = ?,
			overall_status = ?, star_rating = ?, language = ?, category = ?,
			summary = ?, cover_image = ?
		WHERE id = ?
	`, m.Title, nullable(m.JapaneseTitle), nullable(string(m.ReadingStatus)),
		nullable(string(m.OverallStatus)), m.StarRating, m.Language,
		string(m.Category), nullable(m.Summary), nullable(cover), m.ID); err != nil {
		// retitling onto an existing (title, language) pair trips the
		// unique index instead of the create path's select guard
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("%q (%s): %w", m.Title, m.Language, ErrDuplicate)
		}
		return nil, fmt.Errorf("update manga: %w", err)
	}

	for _, table := range []string{"manga_author", "manga_genre", "manga_list", "volumes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE manga_id = ?`, m.ID); err != nil {
			return nil, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	authors := make([]models.AuthorCreate, 0, len(m.Authors))
	for _, a := range m.Authors {
		authors = append(authors, models.AuthorCreate{Name: a.Name})
	}
	genres := make([]models.GenreCreate, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, models.GenreCreate{Name: g.Name})
	}
	lists := make([]models.ListCreate, 0, len(m.Lists))
	for _, l := range m.Lists {
		lists = append(lists, models.ListCreate{Name: l.Name})
	}

	authorIDs, genreIDs, err := r.linkEntities(ctx, tx, m.ID, authors, genres, lists)
	if err != nil {
		return nil, err
	}

	vols := make([]models.VolumeCreate, 0, len(m.Volumes))
	for _, v := range m.Volumes {
		vols = append(vols, models.VolumeCreate{VolumeNumber: v.VolumeNumber, CoverImage: v.CoverImage})
	}
	if err := insertVolumes(ctx, tx, m.ID, vols); err != nil {
		return nil, err
	}

	// union of old and new links, so dropped entities land on zero
	for _, a := range stored.Authors {
		authorIDs = append(authorIDs, a.ID)
	}
	for _, g := range stored.Genres {
		genreIDs = append(genreIDs, g.ID)
	}
	if err := recomputeCounts(ctx, tx, authorIDs, genreIDs); err != nil {
		return nil, err
	}

	updated, err := loadManga(ctx, tx, m.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

// Delete removes the manga, its volumes (cascade) and its links, releases
// the cover asset, and recomputes counters for everything it was linked to.
func (r *Repo) Delete(ctx context.Context, id int64) (*models.Manga, error) {
	stored, err := loadManga(ctx, r.DB, id)
	if err != nil {
		return nil, err
	}

	if stored.CoverImage != "" {
		r.Covers.Release(stored.CoverImage)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mangas WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete manga: %w", err)
	}

	var authorIDs, genreIDs []int64
	for _, a := range stored.Authors {
		authorIDs = append(authorIDs, a.ID)
	}
	for _, g := range stored.Genres {
		genreIDs = append(genreIDs, g.ID)
	}
	if err := recomputeCounts(ctx, tx, authorIDs, genreIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return stored, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Manga, error) {
	return loadManga(ctx, r.DB, id)
}

// GetByTitle looks up one manga by its exact (title, language) pair.
func (r *Repo) GetByTitle(ctx context.Context, title, language string) (*models.Manga, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		SELECT id FROM mangas WHERE title = ? AND IFNULL(language, '') = ?
	`, title, language).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%q (%s): %w", title, language, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get by title: %w", err)
	}
	return loadManga(ctx, r.DB, id)
}

// List returns a page of mangas ordered by title. A search term filters by
// case-insensitive title substring, unless it carries the "list:" prefix,
// in which case it filters by membership in the named list.
func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Manga, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	skip := q.Skip
	if skip < 0 {
		skip = 0
	}

	order := "ASC"
	if strings.EqualFold(q.Sort, "desc") {
		order = "DESC"
	}

	var (
		sqlStr string
		args   []any
	)
	switch {
	case strings.HasPrefix(q.Search, listSearchPrefix):
		name := strings.TrimSpace(strings.TrimPrefix(q.Search, listSearchPrefix))
		sqlStr = `
			SELECT m.id FROM mangas m
			JOIN manga_list ml ON ml.manga_id = m.id
			JOIN lists l ON l.id = ml.list_id
			WHERE l.name = ?
			ORDER BY m.title ` + order + ` LIMIT ? OFFSET ?`
		args = []any{name, limit, skip}
	case strings.TrimSpace(q.Search) != "":
		sqlStr = `
			SELECT id FROM mangas
			WHERE LOWER(title) LIKE ?
			ORDER BY title ` + order + ` LIMIT ? OFFSET ?`
		args = []any{"%" + strings.ToLower(strings.TrimSpace(q.Search)) + "%", limit, skip}
	default:
		sqlStr = `SELECT id FROM mangas ORDER BY title ` + order + ` LIMIT ? OFFSET ?`
		args = []any{limit, skip}
	}

	return r.loadByIDQuery(ctx, sqlStr, args...)
}

func (r *Repo) ListByGenre(ctx context.Context, genreID int64) ([]models.Manga, error) {
	return r.loadByIDQuery(ctx, `
		SELECT manga_id FROM manga_genre WHERE genre_id = ?
	`, genreID)
}

func (r *Repo) ListByAuthor(ctx context.Context, authorID int64) ([]models.Manga, error) {
	return r.loadByIDQuery(ctx, `
		SELECT manga_id FROM manga_author WHERE author_id = ?
	`, authorID)
}

func (r *Repo) ListByList(ctx context.Context, listID int64) ([]models.Manga, error) {
	return r.loadByIDQuery(ctx, `
		SELECT manga_id FROM manga_list WHERE list_id = ?
	`, listID)
}

func (r *Repo) ListByRating(ctx context.Context, rating float64) ([]models.Manga, error) {
	return r.loadByIDQuery(ctx, `
		SELECT id FROM mangas WHERE star_rating = ?
	`, rating)
}

func (r *Repo) loadByIDQuery(ctx context.Context, sqlStr string, args ...any) ([]models.Manga, error) {
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("id query: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	out := make([]models.Manga, 0, len(ids))
	for _, id := range ids {
		m, err := loadManga(ctx, r.DB, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// recomputeCounts refreshes manga_count from the live link tables for the
// given author and genre ids, inside the caller's transaction.
func recomputeCounts(ctx context.Context, tx *sql.Tx, authorIDs, genreIDs []int64) error {
	for _, id := range dedupeIDs(authorIDs) {
		if _, err := tx.ExecContext(ctx, `
			UPDATE authors SET manga_count =
				(SELECT COUNT(*) FROM manga_author WHERE author_id = ?)
			WHERE id = ?
		`, id, id); err != nil {
			return fmt.Errorf("recount author %d: %w", id, err)
		}
	}
	for _, id := range dedupeIDs(genreIDs) {
		if _, err := tx.ExecContext(ctx, `
			UPDATE genres SET manga_count =
				(SELECT COUNT(*) FROM manga_genre WHERE genre_id = ?)
			WHERE id = ?
		`, id, id); err != nil {
			return fmt.Errorf("recount genre %d: %w", id, err)
		}
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
