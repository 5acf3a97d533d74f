package gateway

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"figures-hub/internal/domain"
)

// APIGateway is the single point of contact with the upstream statistics
// API. Reads go through the tag cache; writes invalidate every tag under
// their path prefix. Implements domain.FigureAPI.
type APIGateway struct {
	baseURL    string
	apiKey     string
	appName    string
	namespace  string
	cacheTTL   time.Duration
	cache      domain.TagCache
	httpClient *http.Client
	logger     *slog.Logger
}

// Config holds the upstream API settings.
type Config struct {
	BaseURL   string
	APIKey    string
	AppName   string
	Namespace string
	CacheTTL  time.Duration
	Timeout   time.Duration
}

// NewAPIGateway creates a gateway with tuned HTTP transport.
func NewAPIGateway(cfg Config, cache domain.TagCache, logger *slog.Logger) *APIGateway {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &APIGateway{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/") + "/",
		apiKey:    cfg.APIKey,
		appName:   cfg.AppName,
		namespace: cfg.Namespace,
		cacheTTL:  cfg.CacheTTL,
		cache:     cache,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// Namespace returns the cache-tag namespace.
func (g *APIGateway) Namespace() string {
	return g.namespace
}

// Query issues a GET against the upstream API and returns the raw JSON
// body. Responses are cached under a deterministic key and tagged with the
// path-prefix hierarchy; a missing base URL resolves to an empty result.
// Unlike the legacy behavior, a malformed response body is an error for
// reads as well as writes.
func (g *APIGateway) Query(ctx context.Context, path string, query url.Values, useCache bool) ([]byte, error) {
	if g.baseURL == "/" {
		return nil, nil
	}

	key := g.buildCacheKey(path, query)
	if useCache {
		if data, found := g.cache.Get(ctx, key); found {
			return data, nil
		}
	}

	fullURL := g.buildURL(path, query)
	g.logger.InfoContext(ctx, "fetching figures", "url", fullURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	g.setHeaders(req, false)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.ErrorContext(ctx, "fetching figures failed", "url", fullURL, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.ErrorContext(ctx, "fetching figures failed", "url", fullURL, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstream, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON body", domain.ErrUpstream)
	}

	if useCache {
		g.cache.Set(ctx, key, body, g.cacheTTL, g.cacheTags(path))
	}

	return body, nil
}

// Mutate issues a non-GET request with a JSON body. On success every cache
// tag under the path prefix is invalidated; the response is never cached.
func (g *APIGateway) Mutate(ctx context.Context, path string, body any, method string) ([]byte, error) {
	if g.baseURL == "/" {
		return nil, domain.ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	fullURL := g.buildURL(path, nil)
	g.logger.InfoContext(ctx, "updating figures", "url", fullURL, "method", method)

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	g.setHeaders(req, true)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.ErrorContext(ctx, "updating figures failed", "url", fullURL, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.ErrorContext(ctx, "updating figures failed", "url", fullURL, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstream, resp.StatusCode)
	}
	if len(respBody) > 0 && !json.Valid(respBody) {
		return nil, fmt.Errorf("%w: invalid JSON body", domain.ErrUpstream)
	}

	g.cache.InvalidateTags(ctx, g.cacheTags(path))

	return respBody, nil
}

// InvalidateTags invalidates cached entries carrying any of the tags.
func (g *APIGateway) InvalidateTags(ctx context.Context, tags []string) error {
	g.cache.InvalidateTags(ctx, tags)
	return nil
}

func (g *APIGateway) setHeaders(req *http.Request, write bool) {
	req.Header.Set("API-KEY", g.apiKey)
	req.Header.Set("ACCEPT", "application/json")
	req.Header.Set("APP-NAME", g.appName)
	if write {
		req.Header.Set("CONTENT-TYPE", "application/ld+json")
	}
}

func (g *APIGateway) buildURL(path string, query url.Values) string {
	fullURL := strings.TrimRight(g.baseURL+path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	return fullURL
}

// buildCacheKey derives the deterministic cache key
// {namespace}[:{segment}]*[:{md5(json(query))}].
func (g *APIGateway) buildCacheKey(path string, query url.Values) string {
	key := g.namespace
	if path == "" {
		return key
	}

	key += ":" + strings.ReplaceAll(path, "/", ":")
	if len(query) == 0 {
		return key
	}

	// map keys are sorted by encoding/json, so the hash is stable.
	encoded, _ := json.Marshal(query)
	sum := md5.Sum(encoded)
	return key + ":" + hex.EncodeToString(sum[:])
}

// cacheTags builds the tag hierarchy for a path, one tag per prefix level.
func (g *APIGateway) cacheTags(path string) []string {
	tags := []string{g.namespace}
	if path == "" {
		return tags
	}

	parts := strings.Split(path, "/")
	for i := range parts {
		tags = append(tags, g.namespace+":"+strings.Join(parts[:i+1], ":"))
	}
	return tags
}
