package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mangakeep/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/create", h.create)
	rg.POST("/create-list", h.createBatch)
	rg.GET("/getAll", h.list)
	rg.GET("/by-genre/:id", h.byGenre)
	rg.GET("/by-author/:id", h.byAuthor)
	rg.GET("/by-list/:id", h.byList)
	rg.GET("/by-rating/:rating", h.byRating)
	rg.GET("/:id", h.getByID)
	rg.PUT("/update", h.update)
	rg.DELETE("/:id", h.remove)
}

func (h *Handler) create(c *gin.Context) {
	var mc models.MangaCreate
	if err := c.ShouldBindJSON(&mc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.Repo.Create(c.Request.Context(), mc)
	if err != nil {
		if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInvalidRating) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) createBatch(c *gin.Context) {
	var mcs []models.MangaCreate
	if err := c.ShouldBindJSON(&mcs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.Repo.CreateBatch(c.Request.Context(), mcs)
	if err != nil {
		if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInvalidRating) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch create failed"})
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Skip:   parseInt(c.Query("skip"), 0),
		Limit:  parseInt(c.Query("limit"), 10),
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) byGenre(c *gin.Context) {
	byRelation(c, h.Repo.ListByGenre)
}

func (h *Handler) byAuthor(c *gin.Context) {
	byRelation(c, h.Repo.ListByAuthor)
}

func (h *Handler) byList(c *gin.Context) {
	byRelation(c, h.Repo.ListByList)
}

func byRelation(c *gin.Context, load func(ctx context.Context, id int64) ([]models.Manga, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	items, err := load(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list by relation failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) byRating(c *gin.Context) {
	rating, err := strconv.ParseFloat(c.Param("rating"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rating"})
		return
	}
	items, err := h.Repo.ListByRating(c.Request.Context(), rating)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list by rating failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) update(c *gin.Context) {
	var m models.Manga
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.Repo.Update(c.Request.Context(), m)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
			return
		}
		if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInvalidRating) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) remove(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.Repo.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
