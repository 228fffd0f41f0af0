package transport

import (
	"net/http"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/blobfs/internal/service"
	"github.com/beanbocchi/blobfs/pkg/response"
)

// Push streams the request body into the object named by the wildcard path.
func (h *Handler) Push(c echo.Context) error {
	path, err := pathParam(c)
	if err != nil {
		return h.fail(c, err)
	}

	req := c.Request()
	var contentType null.String
	if ct := req.Header.Get(echo.HeaderContentType); ct != "" {
		contentType = null.StringFrom(ct)
	}
	size := req.ContentLength
	if size < 0 {
		size = 0
	}

	result, err := h.svc.Push(req.Context(), service.PushParams{
		Path:        path,
		ContentType: contentType,
		Size:        size,
		Content:     req.Body,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return response.FromDTO(c.Response().Writer, http.StatusCreated, result)
}
