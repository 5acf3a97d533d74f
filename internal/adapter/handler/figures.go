package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"figures-hub/internal/format"
	"figures-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// FiguresHandler exposes the figure listing and aggregation endpoints.
type FiguresHandler struct {
	figures *usecase.Figures
}

// NewFiguresHandler creates a new figures handler.
func NewFiguresHandler(figures *usecase.Figures) *FiguresHandler {
	return &FiguresHandler{figures: figures}
}

// HandleList processes GET /figures?provider=&country=&year=.
func (h *FiguresHandler) HandleList(c echo.Context) error {
	provider, countries, year, err := figureScope(c)
	if err != nil {
		return err
	}

	figures, err := h.figures.GetFigures(c.Request().Context(), provider, countries, year)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, figures)
}

// HandleGrouped processes GET /figures/grouped. When sparklines=1 each
// figure also carries its trend and sparkline, and the list is classified
// by recency. The format, locale, precision and currency params control
// the attached display value.
func (h *FiguresHandler) HandleGrouped(c echo.Context) error {
	provider, countries, year, err := figureScope(c)
	if err != nil {
		return err
	}

	grouped, err := h.figures.GetFiguresGrouped(c.Request().Context(), provider, countries[0], year)
	if err != nil {
		return mapDomainError(err)
	}

	sparklines := c.QueryParam("sparklines") == "1"
	built := usecase.BuildKeyFigures(grouped, sparklines, time.Now())

	// List figures keep their raw text and carry no formatted value.
	opts := formatOptions(c)
	for i := range built {
		if built[i].ValueText == "" {
			built[i].FormattedValue = format.Format(built[i].Value, opts)
		}
	}
	return c.JSON(http.StatusOK, built)
}

// formatOptions reads the display formatting params, defaulting to a
// zero-precision decimal rendering.
func formatOptions(c echo.Context) format.Options {
	precision := 0
	if raw := c.QueryParam("precision"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			precision = parsed
		}
	}
	return format.Options{
		Locale:    c.QueryParam("locale"),
		Style:     format.Style(c.QueryParam("format")),
		Precision: precision,
		Currency:  c.QueryParam("currency"),
	}
}

// HandleAggregated processes GET /figures/aggregated: the flat records for
// the scope merged into one logical figure per figure id.
func (h *FiguresHandler) HandleAggregated(c echo.Context) error {
	provider, countries, year, err := figureScope(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	records, err := h.figures.GetFigureRecords(ctx, provider, countries, year)
	if err != nil {
		return mapDomainError(err)
	}

	aggregated, err := h.figures.AggregateByFigureID(ctx, records)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, aggregated)
}

// HandleGet processes GET /figures/:provider/:id.
func (h *FiguresHandler) HandleGet(c echo.Context) error {
	figure, err := h.figures.GetFigure(c.Request().Context(), c.Param("provider"), c.Param("id"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, figure)
}

// figureScope extracts and validates the provider/country/year selector.
func figureScope(c echo.Context) (string, []string, int, error) {
	provider := c.QueryParam("provider")
	if provider == "" {
		return "", nil, 0, echo.NewHTTPError(http.StatusBadRequest, "provider is required")
	}

	country := c.QueryParam("country")
	if country == "" {
		return "", nil, 0, echo.NewHTTPError(http.StatusBadRequest, "country is required")
	}
	countries := strings.Split(country, ",")

	year := 0
	if raw := c.QueryParam("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return "", nil, 0, echo.NewHTTPError(http.StatusBadRequest, "year must be numeric")
		}
		year = parsed
	}

	return provider, countries, year, nil
}
