package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"figures-hub/internal/domain"
)

// GetCountries returns the countries known to the provider as value/label
// options sorted by label.
func (f *Figures) GetCountries(ctx context.Context, provider string) ([]domain.Option, error) {
	return f.lookupOptions(ctx, provider, "countries", true)
}

// GetYears returns the years known to the provider, in upstream order.
func (f *Figures) GetYears(ctx context.Context, provider string) ([]domain.Option, error) {
	return f.lookupOptions(ctx, provider, "years", false)
}

func (f *Figures) lookupOptions(ctx context.Context, provider, path string, sorted bool) ([]domain.Option, error) {
	prefix, err := f.registry.ResolvePrefix(ctx, provider)
	if err != nil {
		return nil, err
	}

	data, err := f.api.Query(ctx, prefix+"/"+path, nil, true)
	if err != nil {
		return nil, err
	}

	options, err := decodeOptions(data)
	if err != nil {
		return nil, err
	}
	if sorted {
		sortOptionsByLabel(options)
	}
	return options, nil
}

// externalLookup is one entry of the cross-provider lookup endpoint.
type externalLookup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Year int    `json:"year,omitempty"`
}

// GetExternalLookup returns the allowed external values for a provider as
// id/label options sorted by label; entries scoped to a year carry it in
// the label.
func (f *Figures) GetExternalLookup(ctx context.Context, provider string) ([]domain.Option, error) {
	query := url.Values{}
	query.Set("provider", provider)

	data, err := f.api.Query(ctx, "external_lookups", query, true)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var lookups []externalLookup
	if err := json.Unmarshal(data, &lookups); err != nil {
		return nil, fmt.Errorf("%w: decoding external lookups: %w", domain.ErrUpstream, err)
	}

	options := make([]domain.Option, 0, len(lookups))
	for _, lookup := range lookups {
		label := lookup.Name
		if lookup.Year != 0 {
			label = fmt.Sprintf("%s (%d)", lookup.Name, lookup.Year)
		}
		options = append(options, domain.Option{Value: lookup.ID, Label: label})
	}

	sortOptionsByLabel(options)
	return options, nil
}

func decodeOptions(data []byte) ([]domain.Option, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var options []domain.Option
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, fmt.Errorf("%w: decoding options: %w", domain.ErrUpstream, err)
	}
	return options, nil
}

func sortOptionsByLabel(options []domain.Option) {
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Label < options[j].Label
	})
}
