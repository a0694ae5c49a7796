package stats

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"nregahub/internal/district"
)

type Handler struct {
	Repo      *Repo
	Districts *district.Repo
}

func NewHandler(repo *Repo, districts *district.Repo) *Handler {
	return &Handler{Repo: repo, Districts: districts}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:code/stats", h.list)          // GET /districts/:code/stats?year=2024
	rg.GET("/:code/stats/latest", h.latest) // GET /districts/:code/stats/latest
}

func (h *Handler) list(c *gin.Context) {
	d, err := h.Districts.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get district failed"})
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "district not found"})
		return
	}

	year := parseInt(c.Query("year"), 0)
	limit := parseInt(c.Query("limit"), 36)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.ListByDistrict(c.Request.Context(), d.ID, year, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"district": d,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"items":    items,
	})
}

func (h *Handler) latest(c *gin.Context) {
	d, err := h.Districts.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get district failed"})
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "district not found"})
		return
	}

	s, err := h.Repo.Latest(c.Request.Context(), d.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"district": d,
		"latest":   s,
	})
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
