package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"figures-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// PresencesHandler exposes the OCHA presence endpoints: the presence
// records themselves, their external id links and the figures scoped
// to a presence.
type PresencesHandler struct {
	presences *usecase.Presences
}

// NewPresencesHandler creates a new presences handler.
func NewPresencesHandler(presences *usecase.Presences) *PresencesHandler {
	return &PresencesHandler{presences: presences}
}

// HandleList processes GET /presences.
func (h *PresencesHandler) HandleList(c echo.Context) error {
	presences, err := h.presences.List(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, presences)
}

// HandleGet processes GET /presences/:id.
func (h *PresencesHandler) HandleGet(c echo.Context) error {
	presence, err := h.presences.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, presence)
}

// HandleSave processes POST /presences and PUT /presences/:id.
func (h *PresencesHandler) HandleSave(c echo.Context) error {
	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "you have to pass a JSON object")
	}
	isNew := c.Request().Method == http.MethodPost
	raw, err := h.presences.Save(c.Request().Context(), c.Param("id"), body, isNew)
	if err != nil {
		return mapDomainError(err)
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	return c.JSONBlob(status, raw)
}

// HandleDelete processes DELETE /presences/:id.
func (h *PresencesHandler) HandleDelete(c echo.Context) error {
	if err := h.presences.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetExternalID processes GET /presences/:id/external-ids.
func (h *PresencesHandler) HandleGetExternalID(c echo.Context) error {
	raw, err := h.presences.GetExternalID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// HandleSaveExternalID processes POST and PUT on /presences/:id/external-ids.
func (h *PresencesHandler) HandleSaveExternalID(c echo.Context) error {
	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "you have to pass a JSON object")
	}
	isNew := c.Request().Method == http.MethodPost
	raw, err := h.presences.SaveExternalID(c.Request().Context(), c.Param("id"), body, isNew)
	if err != nil {
		return mapDomainError(err)
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	return c.JSONBlob(status, raw)
}

// HandleDeleteExternalID processes DELETE /presences/:id/external-ids.
func (h *PresencesHandler) HandleDeleteExternalID(c echo.Context) error {
	if err := h.presences.DeleteExternalID(c.Request().Context(), c.Param("id")); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleOptions processes GET /providers/:provider/presences.
func (h *PresencesHandler) HandleOptions(c echo.Context) error {
	options, err := h.presences.OptionsByProvider(c.Request().Context(), c.Param("provider"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, options)
}

// HandleYears processes GET /providers/:provider/presences/:id/years.
func (h *PresencesHandler) HandleYears(c echo.Context) error {
	years, err := h.presences.YearsByProvider(c.Request().Context(), c.Param("provider"), c.Param("id"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, years)
}

// HandleFigures processes GET /providers/:provider/presences/:id/figures.
func (h *PresencesHandler) HandleFigures(c echo.Context) error {
	provider, id, year, figureIDs, err := h.presenceScope(c)
	if err != nil {
		return err
	}
	figures, err := h.presences.Figures(c.Request().Context(), provider, id, year, figureIDs)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, figures)
}

// HandleFigure processes GET /providers/:provider/presences/:id/figures/:figureId.
func (h *PresencesHandler) HandleFigure(c echo.Context) error {
	provider, id, year, _, err := h.presenceScope(c)
	if err != nil {
		return err
	}
	figureID := c.Param("figureId")
	if figureID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "figure id is required")
	}
	figures, err := h.presences.Figure(c.Request().Context(), provider, id, year, figureID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, figures)
}

// HandleFiguresAggregated processes GET /providers/:provider/presences/:id/figures/aggregated.
func (h *PresencesHandler) HandleFiguresAggregated(c echo.Context) error {
	provider, id, year, figureIDs, err := h.presenceScope(c)
	if err != nil {
		return err
	}
	figures, err := h.presences.FiguresAggregated(c.Request().Context(), provider, id, year, figureIDs)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, figures)
}

func (h *PresencesHandler) presenceScope(c echo.Context) (provider, id string, year int, figureIDs []string, err error) {
	provider = c.Param("provider")
	id = c.Param("id")
	if provider == "" || id == "" {
		return "", "", 0, nil, echo.NewHTTPError(http.StatusBadRequest, "provider and presence are required")
	}
	yearParam := c.QueryParam("year")
	if yearParam != "" {
		year, err = strconv.Atoi(yearParam)
		if err != nil {
			return "", "", 0, nil, echo.NewHTTPError(http.StatusBadRequest, "year must be numeric")
		}
	}
	if ids := c.QueryParam("figure_ids"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				figureIDs = append(figureIDs, id)
			}
		}
	}
	return provider, id, year, figureIDs, nil
}
