package models

// Author is a person credited on one or more mangas (writer or artist,
// unified). MangaCount is maintained by the catalog repository and always
// reflects the live number of linked mangas.
type Author struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MangaCount int64  `json:"manga_count"`
}

type AuthorCreate struct {
	Name string `json:"name" binding:"required"`
}

// Genre is a classification label (genre, theme or demographic).
type Genre struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MangaCount int64  `json:"manga_count"`
}

type GenreCreate struct {
	Name string `json:"name" binding:"required"`
}

// List is a user-defined named grouping of mangas.
type List struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ListCreate struct {
	Name string `json:"name" binding:"required"`
}

// Volume is owned exclusively by its manga and is cascade-deleted with it.
// VolumeNumber is a string so labels like "0" or "13.5" survive as entered.
type Volume struct {
	ID           int64  `json:"id"`
	VolumeNumber string `json:"volume_number"`
	CoverImage   string `json:"cover_image,omitempty"`
	MangaID      int64  `json:"manga_id"`
}

type VolumeCreate struct {
	VolumeNumber string `json:"volume_number" binding:"required"`
	CoverImage   string `json:"cover_image,omitempty"`
}

// Source is a registered external metadata provider.
type Source struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

type SourceCreate struct {
	Name     string `json:"name" binding:"required"`
	Language string `json:"language" binding:"required"`
}
