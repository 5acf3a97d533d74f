package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"figures-hub/internal/domain"
)

// Figures fetches figure records from the upstream API and merges them
// into logical figures: flat listings keyed by record id, grouped listings
// with accumulated value histories, and aggregates combined per value type.
type Figures struct {
	api      domain.FigureAPI
	registry *ProviderRegistry
	logger   *slog.Logger
	now      func() time.Time
}

// NewFigures creates the figures usecase.
func NewFigures(api domain.FigureAPI, registry *ProviderRegistry, logger *slog.Logger) *Figures {
	return &Figures{api: api, registry: registry, logger: logger, now: time.Now}
}

// fetch queries the upstream figure list for the provider scope, sorted
// newest first. The year filter is dropped for the "any year" sentinel and
// replaced by the current calendar year for "current year". Archived
// figures are excluded unless showAll is set.
func (f *Figures) fetch(ctx context.Context, provider string, countries []string, year int, showAll bool) ([]domain.Figure, error) {
	query := url.Values{}
	for _, iso3 := range countries {
		query.Add("iso3", iso3)
	}
	switch year {
	case 0, domain.YearAny:
	case domain.YearCurrent:
		query.Set("year", strconv.Itoa(f.now().Year()))
	default:
		query.Set("year", strconv.Itoa(year))
	}
	if !showAll {
		query.Set("archived", "0")
	}

	prefix, err := f.registry.ResolvePrefix(ctx, provider)
	if err != nil {
		return nil, err
	}

	data, err := f.api.Query(ctx, prefix, query, true)
	if err != nil {
		return nil, err
	}

	figures, err := decodeFigures(data)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(figures, func(i, j int) bool {
		return figures[i].EffectiveDate().After(figures[j].EffectiveDate())
	})
	return figures, nil
}

// GetFigureRecords returns the raw records for the scope, newest first,
// without any merging. Input for AggregateByFigureID.
func (f *Figures) GetFigureRecords(ctx context.Context, provider string, countries []string, year int) ([]domain.Figure, error) {
	return f.fetch(ctx, provider, countries, year, false)
}

// GetFigures returns the figures available for the provider, countries and
// year, keyed by record id. Upstream is not expected to duplicate ids in
// one query; if it does, the first record wins.
func (f *Figures) GetFigures(ctx context.Context, provider string, countries []string, year int) (map[string]domain.Figure, error) {
	figures, err := f.fetch(ctx, provider, countries, year, false)
	if err != nil {
		return nil, err
	}

	results := make(map[string]domain.Figure, len(figures))
	for _, fig := range figures {
		if _, seen := results[fig.ID]; !seen {
			results[fig.ID] = fig
		}
	}
	return results, nil
}

// GetFiguresGrouped returns the figures for the scope with a value history
// accumulated per grouping key: the figure name when no year filter
// applies, the record id otherwise. Each record contributes its own
// date/value pair plus any embedded historic values, with malformed dates
// repaired rather than dropped.
func (f *Figures) GetFiguresGrouped(ctx context.Context, provider, country string, year int) ([]domain.GroupedFigure, error) {
	figures, err := f.fetch(ctx, provider, []string{country}, year, false)
	if err != nil {
		return nil, err
	}

	yearScoped := year != 0 && year != domain.YearAny

	var order []string
	grouped := make(map[string]*domain.GroupedFigure)

	for _, fig := range figures {
		key := fig.Name
		if yearScoped {
			key = fig.ID
		}

		entry, seen := grouped[key]
		if !seen {
			entry = &domain.GroupedFigure{Figure: fig}
			grouped[key] = entry
			order = append(order, key)
		}

		entry.Values = append(entry.Values, domain.ValuePoint{
			Date:    fig.EffectiveDate(),
			Value:   fig.Value,
			Updated: fig.Updated,
		})

		for _, hv := range fig.HistoricValues {
			date, err := domain.RepairDate(hv.Date)
			if err != nil {
				f.logger.WarnContext(ctx, "dropping unrepairable history point",
					"figure", fig.ID, "date", hv.Date)
				continue
			}
			entry.Values = append(entry.Values, domain.ValuePoint{
				Date:  date,
				Value: hv.Value,
			})
		}
	}

	results := make([]domain.GroupedFigure, 0, len(order))
	for _, key := range order {
		results = append(results, *grouped[key])
	}
	return results, nil
}

// GetFigure fetches a single figure by record id, with its cache tags.
func (f *Figures) GetFigure(ctx context.Context, provider, id string) (*domain.AggregatedFigure, error) {
	prefix, err := f.registry.ResolvePrefix(ctx, provider)
	if err != nil {
		return nil, err
	}

	data, err := f.api.Query(ctx, prefix+"/"+strings.ToLower(id), nil, true)
	if err != nil {
		return nil, err
	}

	var fig domain.Figure
	if err := json.Unmarshal(data, &fig); err != nil {
		return nil, fmt.Errorf("%w: decoding figure %s: %w", domain.ErrUpstream, id, err)
	}

	tags, err := f.registry.CacheTagsFor(ctx, fig.Provider, fig.ID)
	if err != nil {
		return nil, err
	}

	return &domain.AggregatedFigure{
		Figure:     fig,
		SourceList: []domain.Figure{fig},
		CacheTags:  tags,
	}, nil
}

// GetFigureByFigureID fetches the most recent figure matching the stable
// figure id within the provider, country and year scope. The "current
// year" sentinel widens the filter to the current and previous year,
// ordered newest first.
func (f *Figures) GetFigureByFigureID(ctx context.Context, provider, country string, year int, figureID string) (*domain.AggregatedFigure, error) {
	query := url.Values{}
	query.Set("iso3", country)
	query.Set("archived", "0")
	query.Set("figure_id", figureID)
	query.Set("order[year]", "desc")

	if year == domain.YearCurrent {
		current := f.now().Year()
		query.Add("year", strconv.Itoa(current))
		query.Add("year", strconv.Itoa(current-1))
	} else if year != 0 && year != domain.YearAny {
		query.Set("year", strconv.Itoa(year))
	}

	prefix, err := f.registry.ResolvePrefix(ctx, provider)
	if err != nil {
		return nil, err
	}

	data, err := f.api.Query(ctx, prefix, query, true)
	if err != nil {
		return nil, err
	}

	figures, err := decodeFigures(data)
	if err != nil {
		return nil, err
	}
	if len(figures) == 0 {
		return nil, nil
	}

	first := figures[0]
	tags, err := f.registry.CacheTagsFor(ctx, first.Provider, first.ID)
	if err != nil {
		return nil, err
	}

	return &domain.AggregatedFigure{
		Figure:     first,
		SourceList: []domain.Figure{first},
		CacheTags:  tags,
	}, nil
}

// decodeFigures unmarshals an upstream figure list; an empty body is an
// empty result, not an error.
func decodeFigures(data []byte) ([]domain.Figure, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var figures []domain.Figure
	if err := json.Unmarshal(data, &figures); err != nil {
		return nil, fmt.Errorf("%w: decoding figures: %w", domain.ErrUpstream, err)
	}
	return figures, nil
}
