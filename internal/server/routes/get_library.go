package routes

import (
	"fmt"
	"net/http"
	"time"

	"videorag/internal/server/middleware"
	"videorag/internal/util"
	"videorag/pkg/logger"

	"github.com/labstack/echo/v4"
)

type libraryItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ClipCount int    `json:"clip_count"`
	Duration  string `json:"duration"`
	IndexedAt string `json:"indexed_at"`
}

type libraryResponse struct {
	Videos []libraryItem `json:"videos"`
}

// GetLibrary lists the indexed videos, newest first, optionally filtered by
// the search query parameter.
func GetLibrary(c echo.Context) error {
	ac := c.(*middleware.AppContext)

	summaries, err := ac.App.MetadataStore.VideoSummaries(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		logger.Error("Library listing failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list library")
	}

	items := make([]libraryItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, libraryItem{
			ID:        s.SourceVideoID,
			Title:     util.TitleFromVideoID(s.SourceVideoID),
			ClipCount: s.ClipCount,
			Duration:  formatDuration(s.DurationSeconds),
			IndexedAt: s.IndexedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, libraryResponse{Videos: items})
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
