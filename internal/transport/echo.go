package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/beanbocchi/blobfs/internal/service"
	"github.com/beanbocchi/blobfs/pkg/validator"
)

// NewEcho creates a new Echo instance. metrics is served on /metrics when set.
func NewEcho(svc *service.Service, metrics http.Handler) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Custom validator
	customVal, err := validator.New()
	if err != nil {
		return nil, err
	}
	e.Validator = customVal

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	// Setup routes
	SetupRoute(e, svc)

	return e, nil
}
