package transport

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/blobfs/internal/filesystem"
	"github.com/beanbocchi/blobfs/internal/model"
	"github.com/beanbocchi/blobfs/pkg/response"
)

func (h *Handler) fail(c echo.Context, err error) error {
	status, apiErr := toHTTP(err)
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return response.FromError(c.Response().Writer, status, apiErr)
}

// toHTTP maps service failures onto a status code and an API error.
func toHTTP(err error) (int, error) {
	var fsErr *filesystem.Error
	if errors.As(err, &fsErr) {
		key := fsErr.Path.Key()
		switch fsErr.Kind {
		case filesystem.KindNotFound:
			return http.StatusNotFound, model.ErrFileNotFound.Fmt(key)
		case filesystem.KindAccessDenied:
			return http.StatusForbidden, model.ErrAccessDenied.Fmt(key)
		case filesystem.KindIO:
			return http.StatusBadGateway, model.ErrObjectStore.Fmt(key, cause(fsErr))
		case filesystem.KindSessionIncomplete:
			return http.StatusBadGateway, model.ErrUploadIncomplete.Fmt(key, cause(fsErr))
		case filesystem.KindNonAtomicMove:
			return http.StatusInternalServerError, model.ErrMoveNotAtomic.Fmt(key, cause(fsErr))
		}
	}

	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidPath):
		return http.StatusBadRequest, err
	case errors.Is(err, model.ErrSessionNotFound):
		return http.StatusNotFound, err
	case errors.Is(err, model.ErrSessionNotAbortable):
		return http.StatusConflict, err
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, model.ErrBadRequest.Fmt(httpErr.Message)
	}

	return http.StatusInternalServerError, err
}

func cause(e *filesystem.Error) string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// pathParam returns the unescaped wildcard path of the request. The router
// matches on the raw path only when the request carried one.
func pathParam(c echo.Context) (string, error) {
	raw := c.Param("*")
	if c.Request().URL.RawPath == "" {
		return raw, nil
	}
	p, err := url.PathUnescape(raw)
	if err != nil {
		return "", model.ErrInvalidPath.Fmt(raw)
	}
	return p, nil
}
