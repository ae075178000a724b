// Package middleware carries the request-scoped application context for
// route handlers.
package middleware

import (
	"videorag/internal/app"
	"videorag/pkg/query"
	"videorag/pkg/store"

	"github.com/labstack/echo/v4"
	amqp "github.com/rabbitmq/amqp091-go"
)

// App bundles the collaborators route handlers are allowed to touch.
type App struct {
	ChunkStore    store.ChunkStore
	MetadataStore store.MetadataStore
	Engine        *query.Engine
	Queue         *amqp.Channel
}

// NewApp derives the handler-facing App from loaded resources and an open
// queue channel.
func NewApp(res *app.Resources, queueChannel *amqp.Channel) *App {
	return &App{
		ChunkStore:    res.ChunkStore,
		MetadataStore: res.MetadataStore,
		Engine:        res.Engine,
		Queue:         queueChannel,
	}
}

// AppContext is the echo context extended with the application's
// collaborators.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware wraps every request context in an AppContext.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
