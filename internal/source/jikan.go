package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mangakeep/pkg/models"
)

const jikanBase = "https://api.jikan.moe/v4"

// Jikan talks to the public Jikan (MyAnimeList) REST API.
type Jikan struct {
	BaseURL string
	Client  *http.Client
	Limit   int // search results per query
}

func NewJikan() *Jikan {
	return &Jikan{
		BaseURL: jikanBase,
		Client:  &http.Client{Timeout: 12 * time.Second},
		Limit:   10,
	}
}

func (j *Jikan) Name() string { return "Jikan" }

type jikanNamed struct {
	Name string `json:"name"`
}

type jikanManga struct {
	MalID         int64  `json:"mal_id"`
	Title         string `json:"title"`
	TitleJapanese string `json:"title_japanese"`
	Type          string `json:"type"`
	Synopsis      string `json:"synopsis"`
	Images        struct {
		JPG struct {
			ImageURL      string `json:"image_url"`
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Authors      []jikanNamed `json:"authors"`
	Genres       []jikanNamed `json:"genres"`
	Themes       []jikanNamed `json:"themes"`
	Demographics []jikanNamed `json:"demographics"`
}

func (j *Jikan) Search(ctx context.Context, term string) ([]models.MangaCreate, error) {
	u := fmt.Sprintf("%s/manga?q=%s&limit=%d", j.BaseURL, url.QueryEscape(term), j.Limit)

	body, err := j.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("jikan search: %w", err)
	}

	var resp struct {
		Data []jikanManga `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("jikan search decode: %w", err)
	}

	out := make([]models.MangaCreate, 0, len(resp.Data))
	for _, item := range resp.Data {
		// best-effort: an unusable candidate is dropped, not fatal
		if item.Title == "" {
			continue
		}
		out = append(out, mapJikan(item))
	}
	return out, nil
}

// Fetch retrieves one manga by its MAL id (the reference returned from
// search results).
func (j *Jikan) Fetch(ctx context.Context, ref string) (*models.MangaCreate, error) {
	body, err := j.get(ctx, j.BaseURL+"/manga/"+url.PathEscape(ref))
	if err != nil {
		return nil, fmt.Errorf("%w: jikan %s: %v", ErrFetchFailed, ref, err)
	}

	var resp struct {
		Data jikanManga `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: jikan %s: decode: %v", ErrFetchFailed, ref, err)
	}
	if resp.Data.Title == "" {
		return nil, fmt.Errorf("%w: jikan %s: empty record", ErrFetchFailed, ref)
	}

	mc := mapJikan(resp.Data)
	return &mc, nil
}

func (j *Jikan) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := j.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// jikanTypeMap translates MAL publication types into catalog categories.
// Unmapped types default to manga.
var jikanTypeMap = map[string]models.Category{
	"Manga":       models.CategoryManga,
	"One-shot":    models.CategoryManga,
	"Manhwa":      models.CategoryManga,
	"Manhua":      models.CategoryManga,
	"OEL":         models.CategoryManga,
	"Novel":       models.CategoryNovel,
	"Light Novel": models.CategoryNovel,
	"Doujinshi":   models.CategoryDoujinshi,
}

func mapJikan(item jikanManga) models.MangaCreate {
	category, ok := jikanTypeMap[item.Type]
	if !ok {
		category = models.CategoryManga
	}

	cover := item.Images.JPG.LargeImageURL
	if cover == "" {
		cover = item.Images.JPG.ImageURL
	}

	var authorNames []string
	for _, a := range item.Authors {
		authorNames = append(authorNames, a.Name)
	}

	// genres, themes and demographics all land in the genre bucket
	var genreNames []string
	for _, g := range item.Genres {
		genreNames = append(genreNames, g.Name)
	}
	for _, t := range item.Themes {
		genreNames = append(genreNames, t.Name)
	}
	for _, d := range item.Demographics {
		genreNames = append(genreNames, d.Name)
	}

	authors := make([]models.AuthorCreate, 0)
	for _, n := range dedupeNames(authorNames) {
		authors = append(authors, models.AuthorCreate{Name: n})
	}
	genres := make([]models.GenreCreate, 0)
	for _, n := range dedupeNames(genreNames) {
		genres = append(genres, models.GenreCreate{Name: n})
	}

	return models.MangaCreate{
		Title:         item.Title,
		JapaneseTitle: item.TitleJapanese,
		Summary:       item.Synopsis,
		Category:      category,
		CoverImage:    cover, // URL left unresolved; the covers manager downloads it
		Language:      "EN",  // Jikan serves the international MAL catalog
		Authors:       authors,
		Genres:        genres,
		Lists:         []models.ListCreate{},
		Volumes:       []models.VolumeCreate{},
	}
}
