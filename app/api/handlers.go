package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/litong-notes/ytb-chat-downloader/app/database"
	"github.com/litong-notes/ytb-chat-downloader/app/watch"
)

const defaultHistoryLimit = 50

func NewHandler(watcher WatcherInterface, historyRepo database.HistoryRepository, channelURL string) *Handler {
	return &Handler{
		watcher:     watcher,
		historyRepo: historyRepo,
		channelURL:  channelURL,
	}
}

// GetVideos serves the current snapshot: the deduplicated list from the
// most recently completed cycle.
func (h *Handler) GetVideos(c *gin.Context) {
	snapshot := h.watcher.Snapshot()

	c.Header("X-Video-Count", strconv.Itoa(len(snapshot.Items)))
	c.Header("X-Last-Updated", snapshot.UpdatedAt.Format(time.RFC3339))

	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"channel":   h.channelURL,
	}

	if last := h.watcher.LastSuccessfulFetchAt(); !last.IsZero() {
		health["last_successful_fetch_at"] = last.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	snapshot := h.watcher.Snapshot()

	live := 0
	upcoming := 0
	for _, item := range snapshot.Items {
		if item.IsLive() {
			live++
		}
		if item.IsUpcoming() {
			upcoming++
		}
	}

	stats := map[string]interface{}{
		"channel":     h.channelURL,
		"status":      snapshot.Status,
		"login_state": snapshot.LoginState,
		"items":       len(snapshot.Items),
		"live":        live,
		"upcoming":    upcoming,
	}

	if h.historyRepo != nil {
		if count, err := h.historyRepo.GetVideoCount(); err == nil {
			stats["videos_seen_total"] = count
		}
	}

	c.JSON(http.StatusOK, stats)
}

// APIRefresh forces an immediate refresh cycle, bypassing the minimum
// refresh interval.
func (h *Handler) APIRefresh(c *gin.Context) {
	if err := h.watcher.Trigger(watch.TriggerManual); err != nil {
		slog.Error("Manual refresh trigger failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to trigger refresh",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Refresh triggered",
	})
}

func (h *Handler) APIGetCycles(c *gin.Context) {
	limit := historyLimit(c)

	cycles, err := h.historyRepo.GetRecentCycles(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_cycles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"cycles": cycles,
		"total":  len(cycles),
	})
}

func (h *Handler) APIGetVideos(c *gin.Context) {
	limit := historyLimit(c)

	videos, err := h.historyRepo.GetVideos(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_videos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"videos": videos,
		"total":  len(videos),
	})
}

func historyLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return defaultHistoryLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	return limit
}
