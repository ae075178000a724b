package routes

import (
	"errors"
	"net/http"

	"videorag/internal/server/middleware"
	"videorag/pkg/store"

	"github.com/labstack/echo/v4"
)

// GetIndexingStatus returns the current status of an indexing job. Unknown
// and expired jobs are indistinguishable; both yield 404.
func GetIndexingStatus(c echo.Context) error {
	ac := c.(*middleware.AppContext)

	jobID := c.Param("id")
	if jobID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing job id")
	}

	status, err := ac.App.ChunkStore.GetJobStatus(c.Request().Context(), jobID)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load job status")
	}

	return c.JSON(http.StatusOK, status)
}
