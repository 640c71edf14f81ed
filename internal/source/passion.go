package source

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"mangakeep/pkg/models"
)

const passionBase = "https://www.manga-passion.de"

// Manga-Passion has no public API, so this adapter drives a headless
// browser and reads the rendered pages. The browser is launched lazily on
// first use; if no browser can be launched, search and fetch fail outright
// for this provider.
type MangaPassion struct {
	BaseURL string
	Timeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

func NewMangaPassion() *MangaPassion {
	return &MangaPassion{
		BaseURL: passionBase,
		Timeout: 20 * time.Second,
	}
}

func (p *MangaPassion) Name() string { return "MangaPassion" }

func (p *MangaPassion) connect() (*rod.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser != nil {
		return p.browser, nil
	}

	u, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	p.browser = browser
	return browser, nil
}

// Close shuts the headless browser down if one was launched.
func (p *MangaPassion) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.browser = nil
	return err
}

func (p *MangaPassion) Search(ctx context.Context, term string) ([]models.MangaCreate, error) {
	browser, err := p.connect()
	if err != nil {
		return nil, fmt.Errorf("manga-passion search: %w", err)
	}

	searchURL := fmt.Sprintf("%s/search?q=%s", p.BaseURL, url.QueryEscape(term))
	page, err := browser.Page(proto.TargetCreateTarget{URL: searchURL})
	if err != nil {
		return nil, fmt.Errorf("manga-passion search: open page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx).Timeout(p.Timeout)

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("manga-passion search: wait load: %w", err)
	}

	// Element waits for the first result to render.
	if _, err := page.Element(".manga-list_listItemWrapper__bwhIS"); err != nil {
		return nil, fmt.Errorf("manga-passion search: results: %w", err)
	}
	items, err := page.Elements(".manga-list_listItemWrapper__bwhIS")
	if err != nil {
		return nil, fmt.Errorf("manga-passion search: collect results: %w", err)
	}

	links := make([]string, 0, 5)
	for i, item := range items {
		if i >= 5 {
			break
		}
		a, err := item.Element("a")
		if err != nil {
			continue
		}
		href, err := a.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}
		links = append(links, p.absoluteURL(*href))
	}

	// Every candidate's detail page is scraped into the canonical shape;
	// one broken page drops that candidate, never the whole search.
	out := make([]models.MangaCreate, 0, len(links))
	for _, link := range links {
		mc, err := p.scrape(ctx, browser, link)
		if err != nil {
			log.Printf("[source] manga-passion candidate %s dropped: %v", link, err)
			continue
		}
		out = append(out, *mc)
	}
	return out, nil
}

// Fetch scrapes one edition page. The reference is the page URL returned
// within search results.
func (p *MangaPassion) Fetch(ctx context.Context, ref string) (*models.MangaCreate, error) {
	browser, err := p.connect()
	if err != nil {
		return nil, fmt.Errorf("%w: manga-passion: %v", ErrFetchFailed, err)
	}

	mc, err := p.scrape(ctx, browser, p.absoluteURL(ref))
	if err != nil {
		return nil, fmt.Errorf("%w: manga-passion %s: %v", ErrFetchFailed, ref, err)
	}
	return mc, nil
}

func (p *MangaPassion) scrape(ctx context.Context, browser *rod.Browser, pageURL string) (*models.MangaCreate, error) {
	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx).Timeout(p.Timeout)

	titleEl, err := page.Element("h1")
	if err != nil {
		return nil, fmt.Errorf("title not found: %w", err)
	}
	title, err := titleEl.Text()
	if err != nil {
		return nil, fmt.Errorf("title text: %w", err)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title empty")
	}

	var authorNames, genreNames []string
	sections, _ := page.Elements("ul.manga_details__UYMcm")
	for _, section := range sections {
		text, err := section.Text()
		if err != nil {
			continue
		}
		anchors, err := section.Elements("a")
		if err != nil {
			continue
		}
		var names []string
		for _, a := range anchors {
			if t, err := a.Text(); err == nil {
				names = append(names, strings.TrimSpace(t))
			}
		}
		switch {
		case strings.Contains(text, "Autor"), strings.Contains(text, "Zeichner"):
			authorNames = append(authorNames, names...)
		case strings.Contains(text, "Genres"):
			genreNames = append(genreNames, names...)
		}
	}

	summary := ""
	if el, err := page.Element("div.manga_description__vzPCx p"); err == nil {
		if t, err := el.Text(); err == nil {
			summary = strings.TrimSpace(t)
		}
	}
	if summary == "" {
		// some pages only carry the description in the meta tag
		el, err := page.Element(`meta[name="description"]`)
		if err != nil {
			return nil, fmt.Errorf("summary not found")
		}
		content, err := el.Attribute("content")
		if err != nil || content == nil {
			return nil, fmt.Errorf("summary not found")
		}
		summary = strings.TrimSpace(*content)
	}

	coverEl, err := page.Element("img.img_img__jkdIh")
	if err != nil {
		return nil, fmt.Errorf("cover not found: %w", err)
	}
	src, err := coverEl.Attribute("src")
	if err != nil || src == nil || *src == "" {
		return nil, fmt.Errorf("cover src missing")
	}

	authors := make([]models.AuthorCreate, 0)
	for _, n := range dedupeNames(authorNames) {
		authors = append(authors, models.AuthorCreate{Name: n})
	}
	genres := make([]models.GenreCreate, 0)
	for _, n := range dedupeNames(genreNames) {
		genres = append(genres, models.GenreCreate{Name: n})
	}

	return &models.MangaCreate{
		Title:      title,
		Summary:    summary,
		Category:   models.CategoryManga, // Manga-Passion lists manga editions only
		CoverImage: p.absoluteURL(*src),
		Language:   "DE",
		Authors:    authors,
		Genres:     genres,
		Lists:      []models.ListCreate{},
		Volumes:    []models.VolumeCreate{},
	}, nil
}

func (p *MangaPassion) absoluteURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return ref
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(rel).String()
}
