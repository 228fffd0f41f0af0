package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/blobfs/internal/service"
	"github.com/beanbocchi/blobfs/pkg/response"
)

type AbortSessionRequest struct {
	UploadID string `param:"upload_id" validate:"required,max=1024"`
}

func (h *Handler) AbortSession(c echo.Context) error {
	var req AbortSessionRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err)
	}

	if err := h.svc.AbortSession(c.Request().Context(), service.AbortSessionParams{
		UploadID: req.UploadID,
	}); err != nil {
		return h.fail(c, err)
	}
	return response.FromMessage(c.Response().Writer, http.StatusOK, "Session aborted")
}
