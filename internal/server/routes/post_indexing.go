// Package routes implements the HTTP API handlers.
package routes

import (
	"net/http"
	"time"

	"videorag/internal/queue"
	"videorag/internal/server/middleware"
	"videorag/internal/util"
	"videorag/pkg/common"
	"videorag/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type startIndexingRequest struct {
	// VideoID is optional; omitted, it is derived from the file name.
	VideoID   string `json:"video_id"`
	VideoPath string `json:"video_path" validate:"required"`
}

type startIndexingResponse struct {
	JobID          string `json:"job_id"`
	Message        string `json:"message"`
	StatusEndpoint string `json:"status_endpoint"`
}

// PostIndexingStart accepts an indexing request, records the job as pending
// and hands it to the worker queue.
func PostIndexingStart(c echo.Context) error {
	ac := c.(*middleware.AppContext)

	var req startIndexingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	videoID := req.VideoID
	if videoID == "" {
		videoID = util.VideoIDFromPath(req.VideoPath)
	}

	jobID, err := gonanoid.New()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create job id")
	}

	ctx := c.Request().Context()
	err = ac.App.ChunkStore.SetJobStatus(ctx, common.JobStatus{
		ID:     jobID,
		Status: common.JobStatusPending,
	}, time.Hour)
	if err != nil {
		logger.Error("Failed to record pending job", "job", jobID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record job")
	}

	err = queue.PublishIndexJob(ctx, ac.App.Queue, queue.IndexMessage{
		JobID:     jobID,
		VideoID:   videoID,
		VideoPath: req.VideoPath,
	})
	if err != nil {
		logger.Error("Failed to enqueue indexing job", "job", jobID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to enqueue job")
	}

	return c.JSON(http.StatusAccepted, startIndexingResponse{
		JobID:          jobID,
		Message:        "indexing started for video " + videoID,
		StatusEndpoint: "/api/v1/indexing/status/" + jobID,
	})
}
