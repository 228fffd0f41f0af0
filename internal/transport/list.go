package transport

import (
	"net/http"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/blobfs/internal/model"
	"github.com/beanbocchi/blobfs/internal/service"
	"github.com/beanbocchi/blobfs/pkg/response"
)

type ListFilesRequest struct {
	Prefix string `query:"prefix" validate:"max=1024,objectpath"`
}

func (h *Handler) ListFiles(c echo.Context) error {
	var req ListFilesRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err)
	}

	files, err := h.svc.ListFiles(c.Request().Context(), service.ListFilesParams{
		Prefix: req.Prefix,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.FromDTO(c.Response().Writer, http.StatusOK, files)
}

type ListSessionsRequest struct {
	State null.String `query:"state" validate:"omitnil,oneof=open completed failed aborted"`
	model.PaginationParams
}

func (h *Handler) ListSessions(c echo.Context) error {
	var req ListSessionsRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err)
	}

	result, err := h.svc.ListSessions(c.Request().Context(), service.ListSessionsParams{
		State:            req.State,
		PaginationParams: req.PaginationParams,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.FromPage(c.Response().Writer, http.StatusOK, result)
}
