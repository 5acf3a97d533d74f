package usecase

import (
	"context"
	"strings"

	"figures-hub/internal/domain"
)

// AggregateByFigureID merges raw records into one logical figure per
// stable figure id, applying the value-type combination rule and tracking
// provenance. Result order follows first appearance of each figure id.
func (f *Figures) AggregateByFigureID(ctx context.Context, records []domain.Figure) ([]domain.AggregatedFigure, error) {
	var order []string
	aggregates := make(map[string]*domain.AggregatedFigure)

	for _, record := range records {
		agg, seen := aggregates[record.FigureID]
		if !seen {
			tags, err := f.registry.CacheTagsFor(ctx, record.Provider, record.ID)
			if err != nil {
				return nil, err
			}
			agg = &domain.AggregatedFigure{
				Figure:     record,
				SourceList: []domain.Figure{record},
			}
			agg.AddCacheTags(tags)
			aggregates[record.FigureID] = agg
			order = append(order, record.FigureID)
			continue
		}

		combine(agg, record)

		tags, err := f.registry.CacheTagsFor(ctx, record.Provider, record.ID)
		if err != nil {
			return nil, err
		}
		agg.SourceList = append(agg.SourceList, record)
		agg.AddCacheTags(tags)
	}

	results := make([]domain.AggregatedFigure, 0, len(order))
	for _, id := range order {
		results = append(results, *aggregates[id])
	}
	return results, nil
}

// combine folds one record into an existing aggregate per its value type.
func combine(agg *domain.AggregatedFigure, record domain.Figure) {
	switch agg.ValueType {
	case domain.ValueTypeAmount, domain.ValueTypeNumeric:
		agg.Value += record.Value

	case domain.ValueTypePercentage:
		// Pairwise re-average, matching the upstream behavior: later
		// records weigh more than a cumulative mean would give them.
		agg.Value = (agg.Value + record.Value) / 2

	case domain.ValueTypeList:
		agg.ValueText = unionList(agg.ValueText, record.ValueText)

	default:
		agg.Value += record.Value
	}
}

// unionList merges two comma-separated lists, trimming items and keeping
// the first appearance order, deduplicated.
func unionList(existing, incoming string) string {
	seen := make(map[string]struct{})
	var items []string

	for _, raw := range strings.Split(existing+","+incoming, ",") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		items = append(items, item)
	}
	return strings.Join(items, ", ")
}
