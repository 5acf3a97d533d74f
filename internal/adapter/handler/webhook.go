package handler

import (
	"encoding/json"
	"net/http"

	"figures-hub/internal/domain"
	"figures-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// WebhookHandler receives upstream change notifications.
type WebhookHandler struct {
	reconciler *usecase.WebhookReconciler
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(reconciler *usecase.WebhookReconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// Handle processes POST /webhook/figures. A body that is not a JSON
// object with a data key is rejected with a client error.
func (h *WebhookHandler) Handle(c echo.Context) error {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "you have to pass a JSON object")
	}
	data, ok := raw["data"]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "illegal payload")
	}

	var payload domain.WebhookPayload
	if err := json.Unmarshal(data, &payload.Data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "illegal payload")
	}

	result, err := h.reconciler.Reconcile(c.Request().Context(), payload)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, result)
}
