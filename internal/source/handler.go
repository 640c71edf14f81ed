package source

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mangakeep/pkg/models"
)

type Handler struct {
	Repo     *Repo
	Registry *Registry
}

func NewHandler(repo *Repo, registry *Registry) *Handler {
	return &Handler{Repo: repo, Registry: registry}
}

// RegisterRoutes wires the source endpoints; registering new sources is
// restricted by the given middleware (admin-only in the server wiring).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	rg.GET("/getAll", h.getAll)
	rg.POST("/create", adminOnly, h.create)
	rg.POST("/search", h.search)
	rg.POST("/fetch", h.fetch)
}

func (h *Handler) getAll(c *gin.Context) {
	sources, err := h.Repo.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list sources failed"})
		return
	}
	c.JSON(http.StatusOK, sources)
}

func (h *Handler) create(c *gin.Context) {
	var sc models.SourceCreate
	if err := c.ShouldBindJSON(&sc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.Repo.Create(c.Request.Context(), sc)
	if err != nil {
		if errors.Is(err, ErrDuplicateSource) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create source failed"})
		return
	}
	c.JSON(http.StatusCreated, s)
}

// search resolves the provider against the registered sources, then runs a
// best-effort search through its adapter.
func (h *Handler) search(c *gin.Context) {
	adapter, ok := h.resolveAdapter(c)
	if !ok {
		return
	}

	term := c.Query("title")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	results, err := adapter.Search(c.Request.Context(), term)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) fetch(c *gin.Context) {
	adapter, ok := h.resolveAdapter(c)
	if !ok {
		return
	}

	ref := c.Query("ref")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ref is required"})
		return
	}

	mc, err := adapter.Fetch(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, ErrFetchFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed"})
		return
	}
	c.JSON(http.StatusOK, mc)
}

func (h *Handler) resolveAdapter(c *gin.Context) (Adapter, bool) {
	name := c.Query("source_name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_name is required"})
		return nil, false
	}

	s, err := h.Repo.GetByName(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "source lookup failed"})
		return nil, false
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return nil, false
	}

	adapter, err := h.Registry.Lookup(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return adapter, true
}
