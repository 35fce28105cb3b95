package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires the middleware stack and every route served by h.
func NewRouter(h *Handler, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = strictJSONSerializer{}
	e.Renderer = NewTemplateRegistry()
	e.HTTPErrorHandler = ErrorHandler(log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(RequestLogger(log))
	e.Use(middleware.CORS())

	e.GET("/posts", h.GetPosts)
	e.POST("/posts", h.NewPost)
	e.GET("/posts/:id", h.GetByID)
	e.GET("/posts/:id/html", h.GetPostHTML)
	e.PUT("/posts/:id", h.EditPost)
	e.DELETE("/posts/:id", h.DeletePost)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return e
}
