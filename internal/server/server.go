// Package server hosts the HTTP API: indexing job submission and status,
// query answering and the library listing.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"videorag/internal/app"
	"videorag/internal/queue"
	appmiddleware "videorag/internal/server/middleware"
	"videorag/internal/server/routes"
	"videorag/internal/util"
	"videorag/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CustomValidator adapts go-playground/validator to echo's Validator
// interface.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the bound request structure.
func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Init assembles resources, declares the queue topology and serves the API
// until SIGINT or SIGTERM.
func Init() error {
	ctx := context.Background()

	resources, err := app.Load(ctx)
	if err != nil {
		return err
	}
	defer resources.Close()

	conn, channel, err := queue.Init()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer channel.Close()

	if err := queue.SetupQueues(channel, queue.IndexQueue); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("2M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("Request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))
	e.Use(appmiddleware.AppContextMiddleware(appmiddleware.NewApp(resources, channel)))

	registerRoutes(e)

	address := util.GetEnvString("SERVER_ADDRESS", ":8080")
	go func() {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func registerRoutes(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/api/v1")
	v1.POST("/indexing/start", routes.PostIndexingStart)
	v1.GET("/indexing/status/:id", routes.GetIndexingStatus)
	v1.POST("/query", routes.PostQuery)
	v1.GET("/library", routes.GetLibrary)
}
