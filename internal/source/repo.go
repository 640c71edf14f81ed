package source

import (
	"context"
	"database/sql"
	"fmt"

	"mangakeep/pkg/models"
)

// Repo persists the registered-source reference data.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) GetAll(ctx context.Context) ([]models.Source, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, language FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	out := make([]models.Source, 0)
	for rows.Next() {
		var s models.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.Language); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) GetByName(ctx context.Context, name string) (*models.Source, error) {
	var s models.Source
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, language FROM sources WHERE name = ?
	`, name).Scan(&s.ID, &s.Name, &s.Language)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return &s, nil
}

func (r *Repo) Create(ctx context.Context, sc models.SourceCreate) (*models.Source, error) {
	existing, err := r.GetByName(ctx, sc.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%q: %w", sc.Name, ErrDuplicateSource)
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO sources (name, language) VALUES (?, ?)
	`, sc.Name, sc.Language)
	if err != nil {
		return nil, fmt.Errorf("insert source: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert source id: %w", err)
	}
	return &models.Source{ID: id, Name: sc.Name, Language: sc.Language}, nil
}

// Seed registers the built-in providers if the table is empty, so a fresh
// database knows about the same sources the adapter registry serves.
func (r *Repo) Seed(ctx context.Context) error {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&count); err != nil {
		return fmt.Errorf("count sources: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []models.SourceCreate{
		{Name: "Jikan", Language: "EN"},
		{Name: "MangaPassion", Language: "DE"},
	}
	for _, sc := range defaults {
		if _, err := r.Create(ctx, sc); err != nil {
			return err
		}
	}
	return nil
}
