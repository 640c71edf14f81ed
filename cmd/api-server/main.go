package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mangakeep/internal/auth"
	"mangakeep/internal/catalog"
	"mangakeep/internal/covers"
	"mangakeep/internal/source"
	"mangakeep/pkg/database"
	"mangakeep/pkg/models"
	"mangakeep/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	sourceRepo := source.NewRepo(db)
	if err := sourceRepo.Seed(context.Background()); err != nil {
		log.Fatalf("seed sources failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok"})
	})

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokens := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokens)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Cover files are served straight off the asset store.
	imageDir := utils.ImageDir()
	coverStore := covers.NewManager(imageDir)
	router.GET("/images/manga/:filename", func(c *gin.Context) {
		name := filepath.Base(c.Param("filename"))
		if !coverStore.Exists(name) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.File(filepath.Join(imageDir, name))
	})

	// Everything below is the personal catalog, token required.
	api := router.Group("/")
	api.Use(auth.AuthMiddleware(tokens))

	catalogRepo := catalog.NewRepo(db, coverStore)
	catalog.NewHandler(catalogRepo).RegisterRoutes(api.Group("/manga"))

	entityHandler := catalog.NewEntityHandler(catalog.NewEntityRepo(db))
	entityHandler.RegisterAuthorRoutes(api.Group("/authors"))
	entityHandler.RegisterGenreRoutes(api.Group("/genres"))
	entityHandler.RegisterListRoutes(api.Group("/lists"))

	passion := source.NewMangaPassion()
	defer func() {
		if err := passion.Close(); err != nil {
			log.Printf("close browser: %v", err)
		}
	}()
	registry := source.NewRegistry(source.NewJikan(), passion)
	sourceHandler := source.NewHandler(sourceRepo, registry)
	sourceHandler.RegisterRoutes(api.Group("/sources"), auth.RequireRole(auth.RoleAdmin))

	// importing a fetched candidate goes through the normal create path
	api.POST("/sources/import", func(c *gin.Context) {
		var mc models.MangaCreate
		if err := c.ShouldBindJSON(&mc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		m, err := catalogRepo.Create(c.Request.Context(), mc)
		if err != nil {
			if errors.Is(err, catalog.ErrDuplicate) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
			return
		}
		c.JSON(http.StatusCreated, m)
	})

	httpSrv := &http.Server{
		Addr:    utils.ListenAddr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
