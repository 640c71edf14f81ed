package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangakeep/pkg/models"
)

// EntityHandler exposes the flat author/genre/list endpoints.
type EntityHandler struct {
	Repo *EntityRepo
}

func NewEntityHandler(repo *EntityRepo) *EntityHandler {
	return &EntityHandler{Repo: repo}
}

func (h *EntityHandler) RegisterAuthorRoutes(rg *gin.RouterGroup) {
	rg.GET("/getAll", h.allAuthors)
	rg.GET("/:id", h.authorByID)
}

func (h *EntityHandler) RegisterGenreRoutes(rg *gin.RouterGroup) {
	rg.GET("/getAll", h.allGenres)
	rg.GET("/:id", h.genreByID)
	rg.POST("/create", h.createGenre)
}

func (h *EntityHandler) RegisterListRoutes(rg *gin.RouterGroup) {
	rg.GET("/getAll", h.allLists)
	rg.GET("/:id", h.listByID)
	rg.POST("/create", h.createList)
}

func (h *EntityHandler) allAuthors(c *gin.Context) {
	authors, err := h.Repo.AllAuthors(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list authors failed"})
		return
	}
	c.JSON(http.StatusOK, authors)
}

func (h *EntityHandler) authorByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := h.Repo.AuthorByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get author failed"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "author not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *EntityHandler) allGenres(c *gin.Context) {
	genres, err := h.Repo.AllGenres(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list genres failed"})
		return
	}
	c.JSON(http.StatusOK, genres)
}

func (h *EntityHandler) genreByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	g, err := h.Repo.GenreByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get genre failed"})
		return
	}
	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "genre not found"})
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *EntityHandler) createGenre(c *gin.Context) {
	var gc models.GenreCreate
	if err := c.ShouldBindJSON(&gc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := h.Repo.CreateGenre(c.Request.Context(), gc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create genre failed"})
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *EntityHandler) allLists(c *gin.Context) {
	lists, err := h.Repo.AllLists(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list lists failed"})
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (h *EntityHandler) listByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	l, err := h.Repo.ListByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get list failed"})
		return
	}
	if l == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *EntityHandler) createList(c *gin.Context) {
	var lc models.ListCreate
	if err := c.ShouldBindJSON(&lc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.Repo.CreateList(c.Request.Context(), lc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create list failed"})
		return
	}
	c.JSON(http.StatusCreated, l)
}
