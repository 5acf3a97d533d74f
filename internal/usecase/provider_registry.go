package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"figures-hub/internal/domain"
)

// reservedSelfPrefix is the introspection prefix that never needs lookup.
const reservedSelfPrefix = "me"

// ProviderRegistry resolves logical provider ids to API path prefixes and
// owns the provider-scoped cache-tag vocabulary.
type ProviderRegistry struct {
	api    domain.FigureAPI
	logger *slog.Logger
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(api domain.FigureAPI, logger *slog.Logger) *ProviderRegistry {
	return &ProviderRegistry{api: api, logger: logger}
}

// ResolvePrefix maps a provider id to its API path prefix. "me" is
// reserved; an unknown id falls back to itself.
func (r *ProviderRegistry) ResolvePrefix(ctx context.Context, providerID string) (string, error) {
	if providerID == reservedSelfPrefix {
		return reservedSelfPrefix, nil
	}

	providers, err := r.readableProviders(ctx)
	if err != nil {
		return "", err
	}

	for _, p := range providers {
		if p.ID == providerID {
			return p.Prefix, nil
		}
	}
	return providerID, nil
}

// ListSupportedProviders returns the providers the caller can read, sorted
// by display name. The sort is byte-wise and stable so option lists render
// deterministically.
func (r *ProviderRegistry) ListSupportedProviders(ctx context.Context) ([]domain.Provider, error) {
	providers, err := r.readableProviders(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(providers, func(i, j int) bool {
		return providers[i].Name < providers[j].Name
	})
	return providers, nil
}

// CacheTagsFor builds the tag set identifying a figure's cache scope:
// namespace, provider and figure level.
func (r *ProviderRegistry) CacheTagsFor(ctx context.Context, providerID, figureID string) ([]string, error) {
	if providerID == "" {
		return nil, nil
	}

	prefix, err := r.ResolvePrefix(ctx, providerID)
	if err != nil {
		return nil, err
	}

	ns := r.api.Namespace()
	return []string{
		ns,
		ns + ":" + prefix,
		ns + ":" + prefix + ":" + figureID,
	}, nil
}

// InvalidateByProvider invalidates every cached entry under the provider.
func (r *ProviderRegistry) InvalidateByProvider(ctx context.Context, providerID string) error {
	prefix, err := r.ResolvePrefix(ctx, providerID)
	if err != nil {
		return err
	}
	return r.api.InvalidateTags(ctx, []string{r.api.Namespace() + ":" + prefix})
}

// InvalidateByFigure invalidates the cached entries for one figure.
func (r *ProviderRegistry) InvalidateByFigure(ctx context.Context, record domain.Figure) error {
	prefix, err := r.ResolvePrefix(ctx, record.Provider)
	if err != nil {
		return err
	}
	return r.api.InvalidateTags(ctx, []string{r.api.Namespace() + ":" + prefix + ":" + record.ID})
}

func (r *ProviderRegistry) readableProviders(ctx context.Context) ([]domain.Provider, error) {
	data, err := r.api.Query(ctx, "me/providers", nil, true)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var providers []domain.Provider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("%w: decoding providers: %w", domain.ErrUpstream, err)
	}
	return providers, nil
}
