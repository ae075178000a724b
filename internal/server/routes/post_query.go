package routes

import (
	"net/http"

	"videorag/internal/server/middleware"
	"videorag/pkg/logger"
	"videorag/pkg/query"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

type queryRequest struct {
	Query string `json:"query" validate:"required"`
}

// PostQuery answers a question against the indexed video library.
func PostQuery(c echo.Context) error {
	ac := c.(*middleware.AppContext)

	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	candidates, err := ac.App.Engine.Retrieve(ctx, req.Query)
	if err != nil {
		logger.Error("Retrieval failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "retrieval failed")
	}

	if len(candidates) == 0 {
		return c.JSON(http.StatusOK, query.Response{
			Query:   req.Query,
			Answer:  query.FallbackAnswer,
			Sources: []query.Source{},
		})
	}

	resp, err := ac.App.Engine.Answer(ctx, req.Query, candidates)
	if err != nil {
		logger.Error("Answer generation failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "answer generation failed")
	}

	return c.JSON(http.StatusOK, resp)
}
