package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"mangakeep/pkg/models"
)

// EntityRepo serves the flat author/genre/list surface: listings with their
// maintained counters, by-id lookups, and direct creation of genres and
// lists (authors only ever come into being through manga reconciliation).
type EntityRepo struct {
	DB *sql.DB
}

func NewEntityRepo(db *sql.DB) *EntityRepo {
	return &EntityRepo{DB: db}
}

func (r *EntityRepo) AllAuthors(ctx context.Context) ([]models.Author, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, manga_count FROM authors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	out := make([]models.Author, 0)
	for rows.Next() {
		var a models.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.MangaCount); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *EntityRepo) AuthorByID(ctx context.Context, id int64) (*models.Author, error) {
	var a models.Author
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, manga_count FROM authors WHERE id = ?
	`, id).Scan(&a.ID, &a.Name, &a.MangaCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}
	return &a, nil
}

func (r *EntityRepo) AllGenres(ctx context.Context) ([]models.Genre, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, manga_count FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	out := make([]models.Genre, 0)
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.MangaCount); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *EntityRepo) GenreByID(ctx context.Context, id int64) (*models.Genre, error) {
	var g models.Genre
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, manga_count FROM genres WHERE id = ?
	`, id).Scan(&g.ID, &g.Name, &g.MangaCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get genre: %w", err)
	}
	return &g, nil
}

func (r *EntityRepo) CreateGenre(ctx context.Context, gc models.GenreCreate) (*models.Genre, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create genre: %w", err)
	}
	defer tx.Rollback()

	id, err := findOrCreate(ctx, tx, "genres", gc.Name)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create genre: %w", err)
	}
	return r.GenreByID(ctx, id)
}

func (r *EntityRepo) AllLists(ctx context.Context) ([]models.List, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM lists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	out := make([]models.List, 0)
	for rows.Next() {
		var l models.List
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *EntityRepo) ListByID(ctx context.Context, id int64) (*models.List, error) {
	var l models.List
	err := r.DB.QueryRowContext(ctx, `SELECT id, name FROM lists WHERE id = ?`, id).Scan(&l.ID, &l.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return &l, nil
}

func (r *EntityRepo) CreateList(ctx context.Context, lc models.ListCreate) (*models.List, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create list: %w", err)
	}
	defer tx.Rollback()

	id, err := findOrCreate(ctx, tx, "lists", lc.Name)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create list: %w", err)
	}
	return r.ListByID(ctx, id)
}
