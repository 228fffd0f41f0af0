package transport

import (
	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/blobfs/internal/service"
)

type Handler struct {
	svc *service.Service
}

func SetupRoute(e *echo.Echo, svc *service.Service) {
	h := &Handler{svc: svc}
	api := e.Group("/api/v1")

	api.GET("/files", h.ListFiles)
	api.GET("/files/*", h.Pull)
	api.HEAD("/files/*", h.Exists)
	api.PUT("/files/*", h.Push)
	api.POST("/move", h.Move)
	api.GET("/sessions", h.ListSessions)
	api.DELETE("/sessions/:upload_id", h.AbortSession)
}
