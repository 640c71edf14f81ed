package models

// ReadingStatus tracks how far the owner has read a manga.
type ReadingStatus string

const (
	ReadingNotStarted ReadingStatus = "not_started"
	ReadingInProgress ReadingStatus = "in_progress"
	ReadingCompleted  ReadingStatus = "completed"
	ReadingOnHold     ReadingStatus = "on_hold"
	ReadingDropped    ReadingStatus = "dropped"
)

// OverallStatus is the publication state of the series itself.
type OverallStatus string

const (
	StatusOngoing   OverallStatus = "ongoing"
	StatusCompleted OverallStatus = "completed"
	StatusHiatus    OverallStatus = "hiatus"
	StatusCancelled OverallStatus = "cancelled"
)

// Category classifies the kind of publication.
type Category string

const (
	CategoryManga     Category = "manga"
	CategoryNovel     Category = "novel"
	CategoryDoujinshi Category = "doujinshi"
)

// MangaCreate is the canonical "new manga" shape. Both external source
// adapters and manual input produce this exact structure, so everything
// downstream (reconciler, cover handling, persistence) sees one format.
//
// CoverImage may be a remote URL (left unresolved by adapters) or a local
// filename assigned by a prior upload; the covers package decides which.
type MangaCreate struct {
	Title         string         `json:"title" binding:"required"`
	JapaneseTitle string         `json:"japanese_title,omitempty"`
	ReadingStatus ReadingStatus  `json:"reading_status,omitempty"`
	OverallStatus OverallStatus  `json:"overall_status,omitempty"`
	StarRating    *float64       `json:"star_rating,omitempty" binding:"omitempty,gte=1,lte=5"` // nil when unrated
	Language      string         `json:"language,omitempty"`
	Category      Category       `json:"category" binding:"required"`
	Summary       string         `json:"summary,omitempty"`
	CoverImage    string         `json:"cover_image,omitempty"`
	Authors       []AuthorCreate `json:"authors"`
	Genres        []GenreCreate  `json:"genres"`
	Lists         []ListCreate   `json:"lists"`
	Volumes       []VolumeCreate `json:"volumes"`
}

// Manga is the fully resolved aggregate as stored: scalar fields plus the
// reconciled sub-entities with their database ids.
type Manga struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	JapaneseTitle string        `json:"japanese_title,omitempty"`
	ReadingStatus ReadingStatus `json:"reading_status,omitempty"`
	OverallStatus OverallStatus `json:"overall_status,omitempty"`
	StarRating    *float64      `json:"star_rating,omitempty"`
	Language      string        `json:"language,omitempty"`
	Category      Category      `json:"category"`
	Summary       string        `json:"summary,omitempty"`
	CoverImage    string        `json:"cover_image,omitempty"`
	Authors       []Author      `json:"authors"`
	Genres        []Genre       `json:"genres"`
	Lists         []List        `json:"lists"`
	Volumes       []Volume      `json:"volumes"`
}
