package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kelechi-dev/workbid/internal/errs"
)

// Handler exposes registry reads over HTTP. Registration itself happens
// through the auth boundary, which supplies the opaque identity.
type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// GetRole - GET /users/:identity/role
func (h *Handler) GetRole(c echo.Context) error {
	role, err := h.registry.RoleOf(c.Request().Context(), c.Param("identity"))
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"identity": c.Param("identity"), "role": role.String()})
}

// GetProfile - GET /users/:identity
func (h *Handler) GetProfile(c echo.Context) error {
	u, err := h.registry.Profile(c.Request().Context(), c.Param("identity"))
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, u)
}
