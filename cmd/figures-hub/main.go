package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"figures-hub/internal/adapter/gateway"
	adapterhandler "figures-hub/internal/adapter/handler"
	"figures-hub/internal/domain"
	infracache "figures-hub/internal/infrastructure/cache"
	"figures-hub/internal/infrastructure/events"
	"figures-hub/internal/infrastructure/registry"
	"figures-hub/internal/usecase"

	"figures-hub/config"
	appmiddleware "figures-hub/middleware"
	"figures-hub/utils/logger"
	"figures-hub/utils/otel"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
	}

	// Initialize structured logger
	logger.Init(logger.Options{Service: otelCfg.ServiceName, EnableOTel: otelCfg.Enabled})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"api_url", cfg.APIURL,
		"port", cfg.Port,
		"cache_ttl", cfg.CacheTTL,
		"cache_namespace", cfg.CacheNamespace)

	// Infrastructure
	var tagCache domain.TagCache
	cacheBackend := "memory"
	if cfg.RedisURL != "" {
		redisCache, err := infracache.NewRedisCache(cfg.RedisURL, slog.Default())
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		tagCache = redisCache
		cacheBackend = "redis"
	} else {
		tagCache = infracache.NewMemoryCache()
	}

	var publisher domain.EventPublisher = events.NopPublisher{}
	if cfg.RedisURL != "" {
		redisPublisher, err := events.NewRedisPublisher(cfg.RedisURL, slog.Default())
		if err != nil {
			slog.WarnContext(ctx, "failed to connect redis publisher, events disabled", "error", err)
		} else {
			publisher = redisPublisher
		}
	}

	apiGateway := gateway.NewAPIGateway(gateway.Config{
		BaseURL:   cfg.APIURL,
		APIKey:    cfg.APIKey,
		AppName:   cfg.AppName,
		Namespace: cfg.CacheNamespace,
		CacheTTL:  cfg.CacheTTL,
		Timeout:   cfg.UpstreamTimeout,
	}, tagCache, slog.Default())

	referenceStore := registry.NewMemoryReferenceStore()

	// Usecases
	providerRegistry := usecase.NewProviderRegistry(apiGateway, slog.Default())
	figuresUC := usecase.NewFigures(apiGateway, providerRegistry, slog.Default())
	presencesUC := usecase.NewPresences(apiGateway, providerRegistry, slog.Default())
	reconcilerUC := usecase.NewWebhookReconciler(providerRegistry, referenceStore, publisher, slog.Default())

	// Handlers
	figuresHandler := adapterhandler.NewFiguresHandler(figuresUC)
	lookupsHandler := adapterhandler.NewLookupsHandler(figuresUC, providerRegistry)
	presencesHandler := adapterhandler.NewPresencesHandler(presencesUC)
	webhookHandler := adapterhandler.NewWebhookHandler(reconcilerUC)
	referencesHandler := adapterhandler.NewReferencesHandler(reconcilerUC)
	healthHandler := adapterhandler.NewHealthHandler(cfg.APIURL != "", cacheBackend)

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders(time.Minute))

	// OpenTelemetry tracing
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	// Rate limiters per endpoint group
	readRL := appmiddleware.NewRateLimiter(appmiddleware.PerMinute(300), 30)
	writeRL := appmiddleware.NewRateLimiter(appmiddleware.PerMinute(60), 10)
	webhookRL := appmiddleware.NewRateLimiter(appmiddleware.PerMinute(120), 20)

	e.GET("/health", healthHandler.Handle)

	// Figure routes
	figureGroup := e.Group("/figures", readRL.Middleware())
	figureGroup.GET("", figuresHandler.HandleList)
	figureGroup.GET("/grouped", figuresHandler.HandleGrouped)
	figureGroup.GET("/aggregated", figuresHandler.HandleAggregated)
	figureGroup.GET("/:provider/:id", figuresHandler.HandleGet)

	// Provider lookups
	providerGroup := e.Group("/providers", readRL.Middleware())
	providerGroup.GET("", lookupsHandler.HandleProviders)
	providerGroup.GET("/:provider/countries", lookupsHandler.HandleCountries)
	providerGroup.GET("/:provider/years", lookupsHandler.HandleYears)
	providerGroup.GET("/:provider/external-lookups", lookupsHandler.HandleExternalLookups)
	providerGroup.GET("/:provider/presences", presencesHandler.HandleOptions)
	providerGroup.GET("/:provider/presences/:id/years", presencesHandler.HandleYears)
	providerGroup.GET("/:provider/presences/:id/figures", presencesHandler.HandleFigures)
	providerGroup.GET("/:provider/presences/:id/figures/aggregated", presencesHandler.HandleFiguresAggregated)
	providerGroup.GET("/:provider/presences/:id/figures/:figureId", presencesHandler.HandleFigure)

	// Presence records
	presenceGroup := e.Group("/presences")
	presenceGroup.GET("", presencesHandler.HandleList, readRL.Middleware())
	presenceGroup.GET("/:id", presencesHandler.HandleGet, readRL.Middleware())
	presenceGroup.POST("", presencesHandler.HandleSave, writeRL.Middleware())
	presenceGroup.PUT("/:id", presencesHandler.HandleSave, writeRL.Middleware())
	presenceGroup.DELETE("/:id", presencesHandler.HandleDelete, writeRL.Middleware())
	presenceGroup.GET("/:id/external-ids", presencesHandler.HandleGetExternalID, readRL.Middleware())
	presenceGroup.POST("/:id/external-ids", presencesHandler.HandleSaveExternalID, writeRL.Middleware())
	presenceGroup.PUT("/:id/external-ids", presencesHandler.HandleSaveExternalID, writeRL.Middleware())
	presenceGroup.DELETE("/:id/external-ids", presencesHandler.HandleDeleteExternalID, writeRL.Middleware())

	// Figure references registered by consumers, matched by the webhook
	referenceGroup := e.Group("/references")
	referenceGroup.GET("", referencesHandler.HandleList, readRL.Middleware())
	referenceGroup.POST("", referencesHandler.HandleRegister, writeRL.Middleware())
	referenceGroup.DELETE("", referencesHandler.HandleUnregister, writeRL.Middleware())

	// Webhook routes (protected by shared secret when configured)
	webhookGroup := e.Group("/webhook",
		webhookRL.Middleware(),
		appmiddleware.WebhookAuth(cfg.WebhookSecret),
	)
	webhookGroup.POST("/figures", webhookHandler.Handle)

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	slog.InfoContext(ctx, "starting figures-hub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8890"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
