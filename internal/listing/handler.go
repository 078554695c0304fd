package listing

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kelechi-dev/workbid/internal/errs"
)

// Handler exposes the service catalog over HTTP.
type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

type addServiceRequest struct {
	Description string `json:"description"`
}

// AddService - POST /services
func (h *Handler) AddService(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(addServiceRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	id, err := h.catalog.AddService(c.Request().Context(), uid, req.Description)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"service_id": id})
}

// ListAll - GET /services (public discovery)
func (h *Handler) ListAll(c echo.Context) error {
	services, err := h.catalog.AllListings(c.Request().Context())
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, services)
}

// ListByProvider - GET /providers/:identity/services
func (h *Handler) ListByProvider(c echo.Context) error {
	services, err := h.catalog.ListingsFor(c.Request().Context(), c.Param("identity"))
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, services)
}
