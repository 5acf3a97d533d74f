package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestWebhookAuth_ValidSecret(t *testing.T) {
	secret := "shared-secret-for-webhook-endpoints"
	e := echo.New()
	e.Use(WebhookAuth(secret))
	e.POST("/webhook/figures", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook/figures", nil)
	req.Header.Set("X-Webhook-Secret", secret)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookAuth_MissingHeader(t *testing.T) {
	secret := "shared-secret-for-webhook-endpoints"
	e := echo.New()
	e.Use(WebhookAuth(secret))
	e.POST("/webhook/figures", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook/figures", nil)
	// No secret header
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookAuth_InvalidSecret(t *testing.T) {
	secret := "shared-secret-for-webhook-endpoints"
	e := echo.New()
	e.Use(WebhookAuth(secret))
	e.POST("/webhook/figures", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook/figures", nil)
	req.Header.Set("X-Webhook-Secret", "wrong-secret")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookAuth_EmptySecretDisablesCheck(t *testing.T) {
	e := echo.New()
	e.Use(WebhookAuth(""))
	e.POST("/webhook/figures", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook/figures", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
