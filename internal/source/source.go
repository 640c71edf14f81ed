// Package source integrates external metadata providers. Every adapter maps
// its provider's response format into the canonical MangaCreate shape, so
// the catalog never sees provider-specific data.
package source

import (
	"context"
	"errors"
	"strings"

	"mangakeep/pkg/models"
)

var (
	// ErrUnknownSource means no adapter is registered under that name.
	ErrUnknownSource = errors.New("unknown source")

	// ErrFetchFailed means an explicit single-reference fetch could not be
	// completed. Search never returns it; broken candidates are dropped.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrDuplicateSource means a source with that name is already registered.
	ErrDuplicateSource = errors.New("source already exists")
)

// Adapter is implemented once per external provider.
//
// Search is best-effort: a candidate that fails to fetch or parse is dropped
// from the result set. Fetch of one explicit reference is all-or-nothing and
// surfaces ErrFetchFailed.
type Adapter interface {
	Name() string
	Search(ctx context.Context, term string) ([]models.MangaCreate, error)
	Fetch(ctx context.Context, ref string) (*models.MangaCreate, error)
}

// Registry is the static name-to-adapter table.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) Lookup(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, ErrUnknownSource
	}
	return a, nil
}

// dedupeNames removes case-insensitive duplicates, keeping first-seen
// casing and dropping blanks.
func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
