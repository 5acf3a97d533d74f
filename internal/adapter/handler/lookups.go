package handler

import (
	"net/http"

	"figures-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// LookupsHandler exposes the option-list endpoints used to populate
// selector widgets: providers, countries, years and external lookups.
type LookupsHandler struct {
	figures  *usecase.Figures
	registry *usecase.ProviderRegistry
}

// NewLookupsHandler creates a new lookups handler.
func NewLookupsHandler(figures *usecase.Figures, registry *usecase.ProviderRegistry) *LookupsHandler {
	return &LookupsHandler{figures: figures, registry: registry}
}

// HandleProviders processes GET /providers.
func (h *LookupsHandler) HandleProviders(c echo.Context) error {
	providers, err := h.registry.ListSupportedProviders(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, providers)
}

// HandleCountries processes GET /providers/:provider/countries.
func (h *LookupsHandler) HandleCountries(c echo.Context) error {
	countries, err := h.figures.GetCountries(c.Request().Context(), c.Param("provider"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, countries)
}

// HandleYears processes GET /providers/:provider/years.
func (h *LookupsHandler) HandleYears(c echo.Context) error {
	years, err := h.figures.GetYears(c.Request().Context(), c.Param("provider"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, years)
}

// HandleExternalLookups processes GET /providers/:provider/external-lookups.
func (h *LookupsHandler) HandleExternalLookups(c echo.Context) error {
	lookups, err := h.figures.GetExternalLookup(c.Request().Context(), c.Param("provider"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, lookups)
}
