package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"figures-hub/internal/domain"
)

// Presences manages OCHA presence records and their figure roll-ups. A
// presence spans several countries, so its figure lists routinely contain
// multiple records per figure id and need aggregation before display.
type Presences struct {
	api      domain.FigureAPI
	registry *ProviderRegistry
	logger   *slog.Logger
	now      func() time.Time
}

// NewPresences creates the presences usecase.
func NewPresences(api domain.FigureAPI, registry *ProviderRegistry, logger *slog.Logger) *Presences {
	return &Presences{api: api, registry: registry, logger: logger, now: time.Now}
}

// List returns all OCHA presences.
func (p *Presences) List(ctx context.Context) ([]domain.Presence, error) {
	data, err := p.api.Query(ctx, "ocha_presences", nil, true)
	if err != nil {
		return nil, err
	}
	return decodePresences(data)
}

// Get returns one OCHA presence by id.
func (p *Presences) Get(ctx context.Context, id string) (*domain.Presence, error) {
	data, err := p.api.Query(ctx, "ocha_presences/"+strings.ToLower(id), nil, true)
	if err != nil {
		return nil, err
	}

	var presence domain.Presence
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, fmt.Errorf("%w: decoding presence %s: %w", domain.ErrUpstream, id, err)
	}
	return &presence, nil
}

// Save creates or updates an OCHA presence upstream.
func (p *Presences) Save(ctx context.Context, id string, data any, isNew bool) ([]byte, error) {
	if isNew {
		return p.api.Mutate(ctx, "ocha_presences", data, http.MethodPost)
	}
	return p.api.Mutate(ctx, "ocha_presences/"+strings.ToLower(id), data, http.MethodPut)
}

// Delete removes an OCHA presence upstream.
func (p *Presences) Delete(ctx context.Context, id string) error {
	_, err := p.api.Mutate(ctx, "ocha_presences/"+strings.ToLower(id), nil, http.MethodDelete)
	return err
}

// GetExternalID returns one presence external-id mapping.
func (p *Presences) GetExternalID(ctx context.Context, id string) ([]byte, error) {
	return p.api.Query(ctx, "ocha_presence_external_ids/"+strings.ToLower(id), nil, true)
}

// SaveExternalID creates or updates a presence external-id mapping.
func (p *Presences) SaveExternalID(ctx context.Context, id string, data any, isNew bool) ([]byte, error) {
	if isNew {
		return p.api.Mutate(ctx, "ocha_presence_external_ids", data, http.MethodPost)
	}
	return p.api.Mutate(ctx, "ocha_presence_external_ids/"+strings.ToLower(id), data, http.MethodPut)
}

// DeleteExternalID removes a presence external-id mapping.
func (p *Presences) DeleteExternalID(ctx context.Context, id string) error {
	_, err := p.api.Mutate(ctx, "ocha_presence_external_ids/"+strings.ToLower(id), nil, http.MethodDelete)
	return err
}

// OptionsByProvider returns the presences known to a provider as
// value/label options sorted by label.
func (p *Presences) OptionsByProvider(ctx context.Context, provider string) ([]domain.Option, error) {
	prefix, err := p.registry.ResolvePrefix(ctx, provider)
	if err != nil {
		return nil, err
	}

	data, err := p.api.Query(ctx, prefix+"/ocha-presences", nil, true)
	if err != nil {
		return nil, err
	}

	options, err := decodeOptions(data)
	if err != nil {
		return nil, err
	}
	sortOptionsByLabel(options)
	return options, nil
}

// YearsByProvider returns the years a presence has figures for, sorted by
// label.
func (p *Presences) YearsByProvider(ctx context.Context, provider, presenceID string) ([]domain.Option, error) {
	prefix, err := p.registry.ResolvePrefix(ctx, provider)
	if err != nil {
		return nil, err
	}

	data, err := p.api.Query(ctx, prefix+"/ocha-presences/"+presenceID+"/years", nil, true)
	if err != nil {
		return nil, err
	}

	options, err := decodeOptions(data)
	if err != nil {
		return nil, err
	}
	sortOptionsByLabel(options)
	return options, nil
}

// Figures returns the raw figure records for a presence and year,
// deduplicated to the most recent year seen per figure id. For the
// "current year" sentinel the query widens to the current and previous
// year, newest first, so the first year seen per figure id wins.
func (p *Presences) Figures(ctx context.Context, provider, presenceID string, year int, figureIDs []string) ([]domain.Figure, error) {
	prefix, err := p.registry.ResolvePrefix(ctx, provider)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	for _, id := range figureIDs {
		query.Add("figure_id", id)
	}

	var path string
	if year == domain.YearCurrent {
		current := p.now().Year()
		query.Add("year", strconv.Itoa(current))
		query.Add("year", strconv.Itoa(current-1))
		query.Set("order[year]", "desc")
		path = prefix + "/ocha-presences/" + presenceID
	} else {
		path = prefix + "/ocha-presences/" + presenceID + "/" + strconv.Itoa(year) + "/figures"
	}

	data, err := p.api.Query(ctx, path, query, true)
	if err != nil {
		return nil, err
	}

	figures, err := decodeFigures(data)
	if err != nil {
		return nil, err
	}

	// Keep the most recent year per figure id; records from that same
	// year all contribute to the later aggregation.
	seen := make(map[string]int)
	results := make([]domain.Figure, 0, len(figures))
	for _, fig := range figures {
		if seenYear, ok := seen[fig.FigureID]; ok && seenYear != fig.Year {
			continue
		}
		seen[fig.FigureID] = fig.Year
		results = append(results, fig)
	}
	return results, nil
}

// Figure returns the records for a single figure id within a presence
// scope, with the same year resolution and most-recent-year dedupe as
// Figures.
func (p *Presences) Figure(ctx context.Context, provider, presenceID string, year int, figureID string) ([]domain.Figure, error) {
	return p.Figures(ctx, provider, presenceID, year, []string{figureID})
}

// FiguresAggregated rolls the presence figure list up to one aggregate per
// figure id. Unlike the pairwise webhook-path combination, this whole-list
// roll-up uses a true mean for percentages and also unions descriptions.
func (p *Presences) FiguresAggregated(ctx context.Context, provider, presenceID string, year int, figureIDs []string) ([]domain.AggregatedFigure, error) {
	figures, err := p.Figures(ctx, provider, presenceID, year, figureIDs)
	if err != nil {
		return nil, err
	}

	var order []string
	aggregates := make(map[string]*domain.AggregatedFigure)

	for _, fig := range figures {
		agg, seenBefore := aggregates[fig.FigureID]
		if !seenBefore {
			agg = &domain.AggregatedFigure{Figure: fig}
			aggregates[fig.FigureID] = agg
			order = append(order, fig.FigureID)
		}
		agg.SourceList = append(agg.SourceList, fig)

		tags, err := p.registry.CacheTagsFor(ctx, fig.Provider, fig.ID)
		if err != nil {
			return nil, err
		}
		agg.AddCacheTags(tags)
	}

	results := make([]domain.AggregatedFigure, 0, len(order))
	for _, id := range order {
		agg := aggregates[id]
		if len(agg.SourceList) > 1 {
			rollUp(agg)
		}
		results = append(results, *agg)
	}
	return results, nil
}

// rollUp combines a multi-record aggregate's values and descriptions.
func rollUp(agg *domain.AggregatedFigure) {
	var descriptions []string
	seenDesc := make(map[string]struct{})
	for _, fig := range agg.SourceList {
		if fig.Description == "" {
			continue
		}
		if _, dup := seenDesc[fig.Description]; dup {
			continue
		}
		seenDesc[fig.Description] = struct{}{}
		descriptions = append(descriptions, fig.Description)
	}
	agg.Description = strings.Join(descriptions, ", ")

	switch agg.ValueType {
	case domain.ValueTypeAmount, domain.ValueTypeNumeric:
		sum := 0.0
		for _, fig := range agg.SourceList {
			sum += fig.Value
		}
		agg.Value = sum

	case domain.ValueTypePercentage:
		sum := 0.0
		for _, fig := range agg.SourceList {
			sum += fig.Value
		}
		mean := sum / float64(len(agg.SourceList))
		agg.Value = math.Round(mean*100) / 100

	case domain.ValueTypeList:
		value := agg.SourceList[0].ValueText
		for _, fig := range agg.SourceList[1:] {
			value = unionList(value, fig.ValueText)
		}
		agg.ValueText = value

	default:
		sum := 0.0
		for _, fig := range agg.SourceList {
			sum += fig.Value
		}
		agg.Value = sum
	}
}

func decodePresences(data []byte) ([]domain.Presence, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var presences []domain.Presence
	if err := json.Unmarshal(data, &presences); err != nil {
		return nil, fmt.Errorf("%w: decoding presences: %w", domain.ErrUpstream, err)
	}
	return presences, nil
}
