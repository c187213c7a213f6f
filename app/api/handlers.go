package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pedromiglou/JARR/app/crawler"
	"github.com/pedromiglou/JARR/app/filter"
	"github.com/pedromiglou/JARR/app/view"
)

// GetIndex is the shell route. Hitting it counts as a session, so the user's
// last connection timestamp is bumped here and nowhere else.
func (h *Handler) GetIndex(c *gin.Context) {
	user := currentUser(c)

	if err := h.userRepo.UpdateLastConnection(user.ID); err != nil {
		slog.Error("Failed to update last connection", "user_id", user.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"service": "JARR",
		"version": h.cfg.Version,
		"login":   user.Login,
		"endpoints": gin.H{
			"menu":             "/menu",
			"middle_panel":     "/middle_panel",
			"cluster":          "/getclu/<cluster_id>",
			"article":          "/getart/<article_id>",
			"mark_all_as_read": "/mark_all_as_read (PUT)",
			"fetch":            "/fetch(/<feed_id>)",
			"health":           "/health",
		},
	})
}

func (h *Handler) GetMenu(c *gin.Context) {
	user := currentUser(c)

	menu, err := h.menu.Run(user.ID)
	if err != nil {
		if errors.Is(err, view.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		slog.Error("Failed to build menu", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, menu)
}

// filtersFromQuery collects the recognized filter parameters. Absent keys
// stay absent so the builder's defaults apply.
func filtersFromQuery(c *gin.Context) map[string]any {
	filters := make(map[string]any)
	for _, key := range []string{"query", "search_title", "search_content", "filter", "filter_type", "filter_id"} {
		if value, ok := c.GetQuery(key); ok {
			filters[key] = value
		}
	}
	return filters
}

func (h *Handler) GetMiddlePanel(c *gin.Context) {
	user := currentUser(c)

	pred, err := filter.Build(filtersFromQuery(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.clusters.List(user.ID, pred)
	if err != nil {
		slog.Error("Failed to list clusters", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clusters": items, "total": len(items)})
}

func parseFlag(raw string) bool {
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return parsed
}

func (h *Handler) getOne(c *gin.Context, service view.ReadService, idParam string) {
	user := currentUser(c)

	itemID, err := strconv.ParseInt(c.Param(idParam), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	var articleID int64
	if raw := c.Param("article_id"); raw != "" && idParam != "article_id" {
		articleID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
			return
		}
	}

	item, err := service.GetOne(c.Request.Context(), user.ID, itemID, parseFlag(c.Param("parse")), articleID)
	if err != nil {
		if errors.Is(err, view.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		slog.Error("Failed to get item", "user_id", user.ID, "item_id", itemID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) GetCluster(c *gin.Context) {
	h.getOne(c, h.clusters, "cluster_id")
}

func (h *Handler) GetArticle(c *gin.Context) {
	h.getOne(c, h.articles, "article_id")
}

// filtersFromBody collects the recognized filter parameters from the top
// level of a JSON body, mirroring filtersFromQuery.
func filtersFromBody(body map[string]any) map[string]any {
	filters := make(map[string]any)
	for _, key := range []string{"query", "search_title", "search_content", "filter", "filter_type", "filter_id"} {
		if value, ok := body[key]; ok {
			filters[key] = value
		}
	}
	return filters
}

// MarkAllAsRead resolves the filtered set, marks it read and echoes the
// pre-update views back.
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	user := currentUser(c)

	var body map[string]any
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	pred, err := filter.Build(filtersFromBody(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.clusters.MarkAllAsRead(user.ID, pred)
	if err != nil {
		slog.Error("Failed to mark all as read", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clusters": items, "total": len(items)})
}

// Fetch schedules an immediate crawl of one feed or all of the user's feeds.
func (h *Handler) Fetch(c *gin.Context) {
	user := currentUser(c)

	if h.cfg.AdminOnlyFetch && !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Fetching is restricted to administrators"})
		return
	}

	if raw := c.Param("feed_id"); raw != "" {
		feedID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feed id"})
			return
		}

		feed, err := h.feedRepo.GetByID(user.ID, feedID)
		if err != nil {
			slog.Error("Database error", "operation", "get_feed", "feed_id", feedID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if feed == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		if err := h.scheduler.EnqueueFeed(*feed); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Crawler queue is full"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scheduled": 1})
		return
	}

	feeds, err := h.feedRepo.ListByUser(user.ID)
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	scheduled := 0
	for _, feed := range feeds {
		if err := h.scheduler.EnqueueFeed(feed); err != nil {
			slog.Warn("Failed to enqueue fetch task", "feed_id", feed.ID, "error", err)
			continue
		}
		scheduled++
	}
	c.JSON(http.StatusOK, gin.H{"scheduled": scheduled})
}

// ResetFeeds schedules a maintenance pass clearing the conditional request
// state of every feed, forcing full refetches on upcoming crawls.
func (h *Handler) ResetFeeds(c *gin.Context) {
	user := currentUser(c)

	if !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Resetting feeds is restricted to administrators"})
		return
	}

	task := crawler.NewResetFeedsTask(h.feedRepo, crawler.ResetStaggerSeconds)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Crawler queue is full"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "scheduled"})
}

// GetIcon proxies a feed icon so browsers never talk to third-party hosts.
func (h *Handler) GetIcon(c *gin.Context) {
	iconURL := c.Query("url")
	if iconURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	data, contentType, err := h.icons.Fetch(c.Request.Context(), iconURL)
	if err != nil {
		slog.Warn("Failed to fetch icon", "url", iconURL, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.cfg.Version,
	}

	if feedCount, err := h.feedRepo.Count(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}
