package transport

import (
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/blobfs/internal/service"
)

func (h *Handler) Pull(c echo.Context) error {
	p, err := pathParam(c)
	if err != nil {
		return h.fail(c, err)
	}

	reader, err := h.svc.Pull(c.Request().Context(), service.PullParams{Path: p})
	if err != nil {
		return h.fail(c, err)
	}
	defer reader.Close()

	c.Response().Header().Set(echo.HeaderContentType, "application/octet-stream")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", path.Base(p)))
	c.Response().WriteHeader(http.StatusOK)

	// Headers are already sent, a copy failure can only be logged.
	if _, err := io.Copy(c.Response().Writer, reader); err != nil {
		c.Logger().Warnf("stream %s: %v", p, err)
	}
	return nil
}

// Exists answers HEAD with 200 or 404 and no body.
func (h *Handler) Exists(c echo.Context) error {
	p, err := pathParam(c)
	if err != nil {
		status, _ := toHTTP(err)
		return c.NoContent(status)
	}

	ok, err := h.svc.Exists(c.Request().Context(), service.ExistsParams{Path: p})
	if err != nil {
		status, _ := toHTTP(err)
		return c.NoContent(status)
	}
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	return c.NoContent(http.StatusOK)
}
