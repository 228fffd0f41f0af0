package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/blobfs/internal/service"
	"github.com/beanbocchi/blobfs/pkg/response"
)

type MoveRequest struct {
	Source  string `json:"source" validate:"required,max=1024,objectpath"`
	DestDir string `json:"dest_dir" validate:"max=1024,objectpath"`
}

func (h *Handler) Move(c echo.Context) error {
	var req MoveRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err)
	}

	if err := h.svc.Move(c.Request().Context(), service.MoveParams{
		Source:  req.Source,
		DestDir: req.DestDir,
	}); err != nil {
		return h.fail(c, err)
	}

	return response.FromMessage(c.Response().Writer, http.StatusOK, "File moved")
}
