package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const DEFAULT_PAGE_SIZE = 25

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// ListNews pages through articles newest-first. last_item_id is the id of the
// last article the client saw; zero means "from the top".
func (s *Server) ListNews(c *gin.Context) {
	lastItemID := intQuery(c, "last_item_id", 0)
	pageSize := intQuery(c, "page_size", DEFAULT_PAGE_SIZE)
	category := c.Query("category")

	articles, err := s.store.GetCategoryArticles(c.Request.Context(), uint(lastItemID), category, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to fetch articles"})
		return
	}

	c.JSON(http.StatusOK, articles)
}

func (s *Server) ListTrending(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", DEFAULT_PAGE_SIZE)

	articles, err := s.store.GetTrendingArticles(c.Request.Context(), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to fetch trending articles"})
		return
	}

	c.JSON(http.StatusOK, articles)
}

func (s *Server) ListCategories(c *gin.Context) {
	categories, err := s.store.GetAllCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

// RemoveTrending is the administrative path that clears an article's
// trending marker.
func (s *Server) RemoveTrending(c *gin.Context) {
	articleUUID := c.Param("uuid")
	if err := s.store.RemoveTrending(c.Request.Context(), articleUUID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to remove trending marker"})
		return
	}
	c.Status(http.StatusNoContent)
}
