package main

import (
	"context"
	"flag"
	"log"
	"time"

	"mangakeep/internal/catalog"
	"mangakeep/internal/covers"
	"mangakeep/internal/source"
	"mangakeep/pkg/database"
	"mangakeep/pkg/utils"
)

func main() {
	sourceName := flag.String("source", "Jikan", "provider to search (Jikan or MangaPassion)")
	term := flag.String("term", "", "search term (required)")
	max := flag.Int("max", 5, "maximum results to import")
	flag.Parse()

	if *term == "" {
		log.Fatal("usage: scrape -source Jikan -term <title>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	passion := source.NewMangaPassion()
	defer passion.Close()
	registry := source.NewRegistry(source.NewJikan(), passion)

	adapter, err := registry.Lookup(*sourceName)
	if err != nil {
		log.Fatalf("source %q: %v", *sourceName, err)
	}

	log.Printf("[scrape] searching %s for %q", adapter.Name(), *term)
	candidates, err := adapter.Search(ctx, *term)
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	if len(candidates) > *max {
		candidates = candidates[:*max]
	}
	log.Printf("[scrape] %d candidates", len(candidates))

	repo := catalog.NewRepo(db, covers.NewManager(utils.ImageDir()))
	created, err := repo.CreateBatch(ctx, candidates)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	for _, m := range created {
		log.Printf("[scrape] imported %q (%s)", m.Title, m.Language)
	}
}
