package handler

import (
	"encoding/json"
	"net/http"

	"figures-hub/internal/domain"
	"figures-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ReferencesHandler manages the figure references consumers register so
// webhook notifications can reach them.
type ReferencesHandler struct {
	reconciler *usecase.WebhookReconciler
}

// NewReferencesHandler creates a new references handler.
func NewReferencesHandler(reconciler *usecase.WebhookReconciler) *ReferencesHandler {
	return &ReferencesHandler{reconciler: reconciler}
}

// HandleList processes GET /references.
func (h *ReferencesHandler) HandleList(c echo.Context) error {
	refs, err := h.reconciler.ListReferences(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	if refs == nil {
		refs = []domain.FigureReference{}
	}
	return c.JSON(http.StatusOK, refs)
}

// HandleRegister processes POST /references. Registration is idempotent:
// re-posting the same entity, field and figure id replaces the entry.
func (h *ReferencesHandler) HandleRegister(c echo.Context) error {
	var ref domain.FigureReference
	if err := json.NewDecoder(c.Request().Body).Decode(&ref); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "you have to pass a JSON object")
	}
	if err := h.reconciler.RegisterReference(c.Request().Context(), ref); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, ref)
}

// HandleUnregister processes DELETE /references.
func (h *ReferencesHandler) HandleUnregister(c echo.Context) error {
	entityID := c.QueryParam("entity_id")
	field := c.QueryParam("field")
	figureID := c.QueryParam("id")
	if err := h.reconciler.UnregisterReference(c.Request().Context(), entityID, field, figureID); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
