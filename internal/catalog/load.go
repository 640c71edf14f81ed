package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"mangakeep/pkg/models"
)

// loadManga reads the full aggregate: scalar row plus authors, genres,
// lists and volumes. Works on a plain handle or inside a transaction.
func loadManga(ctx context.Context, q querier, id int64) (*models.Manga, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, title, japanese_title, reading_status, overall_status,
			star_rating, language, category, summary, cover_image
		FROM mangas
		WHERE id = ?
	`, id)

	var (
		m        models.Manga
		jpTitle  sql.NullString
		reading  sql.NullString
		overall  sql.NullString
		rating   sql.NullFloat64
		language sql.NullString
		summary  sql.NullString
		cover    sql.NullString
		category string
	)
	if err := row.Scan(
		&m.ID, &m.Title, &jpTitle, &reading, &overall,
		&rating, &language, &category, &summary, &cover,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("manga %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scan manga: %w", err)
	}

	m.JapaneseTitle = jpTitle.String
	m.ReadingStatus = models.ReadingStatus(reading.String)
	m.OverallStatus = models.OverallStatus(overall.String)
	if rating.Valid {
		v := rating.Float64
		m.StarRating = &v
	}
	m.Language = language.String
	m.Category = models.Category(category)
	m.Summary = summary.String
	m.CoverImage = cover.String

	var err error
	if m.Authors, err = loadAuthors(ctx, q, id); err != nil {
		return nil, err
	}
	if m.Genres, err = loadGenres(ctx, q, id); err != nil {
		return nil, err
	}
	if m.Lists, err = loadLists(ctx, q, id); err != nil {
		return nil, err
	}
	if m.Volumes, err = loadVolumes(ctx, q, id); err != nil {
		return nil, err
	}
	return &m, nil
}

func loadAuthors(ctx context.Context, q querier, mangaID int64) ([]models.Author, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT a.id, a.name, a.manga_count
		FROM authors a
		JOIN manga_author ma ON ma.author_id = a.id
		WHERE ma.manga_id = ?
		ORDER BY a.name
	`, mangaID)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
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

func loadGenres(ctx context.Context, q querier, mangaID int64) ([]models.Genre, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT g.id, g.name, g.manga_count
		FROM genres g
		JOIN manga_genre mg ON mg.genre_id = g.id
		WHERE mg.manga_id = ?
		ORDER BY g.name
	`, mangaID)
	if err != nil {
		return nil, fmt.Errorf("load genres: %w", err)
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

func loadLists(ctx context.Context, q querier, mangaID int64) ([]models.List, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT l.id, l.name
		FROM lists l
		JOIN manga_list ml ON ml.list_id = l.id
		WHERE ml.manga_id = ?
		ORDER BY l.name
	`, mangaID)
	if err != nil {
		return nil, fmt.Errorf("load lists: %w", err)
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

func loadVolumes(ctx context.Context, q querier, mangaID int64) ([]models.Volume, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, volume_number, cover_image, manga_id
		FROM volumes
		WHERE manga_id = ?
		ORDER BY id
	`, mangaID)
	if err != nil {
		return nil, fmt.Errorf("load volumes: %w", err)
	}
	defer rows.Close()

	out := make([]models.Volume, 0)
	for rows.Next() {
		var (
			v     models.Volume
			cover sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.VolumeNumber, &cover, &v.MangaID); err != nil {
			return nil, fmt.Errorf("scan volume: %w", err)
		}
		v.CoverImage = cover.String
		out = append(out, v)
	}
	return out, rows.Err()
}
