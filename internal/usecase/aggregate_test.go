package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figures-hub/internal/domain"
)

func TestAggregateByFigureID(t *testing.T) {
	ctx := context.Background()

	t.Run("amounts sum", func(t *testing.T) {
		figures := newTestFigures(newFakeAPI())
		results, err := figures.AggregateByFigureID(ctx, []domain.Figure{
			{ID: "fts-bel-funding", FigureID: "funding", Provider: "fts", ValueType: domain.ValueTypeAmount, Value: 5},
			{ID: "fts-nld-funding", FigureID: "funding", Provider: "fts", ValueType: domain.ValueTypeAmount, Value: 7},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 12.0, results[0].Value)
		assert.Len(t, results[0].SourceList, 2)
	})

	t.Run("percentages re-average pairwise", func(t *testing.T) {
		figures := newTestFigures(newFakeAPI())
		results, err := figures.AggregateByFigureID(ctx, []domain.Figure{
			{ID: "a", FigureID: "coverage", Provider: "fts", ValueType: domain.ValueTypePercentage, Value: 10},
			{ID: "b", FigureID: "coverage", Provider: "fts", ValueType: domain.ValueTypePercentage, Value: 20},
			{ID: "c", FigureID: "coverage", Provider: "fts", ValueType: domain.ValueTypePercentage, Value: 40},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		// (10+20)/2 = 15, then (15+40)/2.
		assert.Equal(t, 27.5, results[0].Value)
	})

	t.Run("lists union with first-seen order", func(t *testing.T) {
		figures := newTestFigures(newFakeAPI())
		results, err := figures.AggregateByFigureID(ctx, []domain.Figure{
			{ID: "a", FigureID: "sectors", Provider: "fts", ValueType: domain.ValueTypeList, ValueText: "Health, Shelter"},
			{ID: "b", FigureID: "sectors", Provider: "fts", ValueType: domain.ValueTypeList, ValueText: "Shelter, Education"},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Health, Shelter, Education", results[0].ValueText)
	})

	t.Run("unknown value types sum", func(t *testing.T) {
		figures := newTestFigures(newFakeAPI())
		results, err := figures.AggregateByFigureID(ctx, []domain.Figure{
			{ID: "a", FigureID: "idps", Provider: "fts", Value: 100},
			{ID: "b", FigureID: "idps", Provider: "fts", Value: 250},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 350.0, results[0].Value)
	})

	t.Run("distinct figure ids stay separate in input order", func(t *testing.T) {
		figures := newTestFigures(newFakeAPI())
		results, err := figures.AggregateByFigureID(ctx, []domain.Figure{
			{ID: "a", FigureID: "idps", Provider: "fts", Value: 100},
			{ID: "b", FigureID: "refugees", Provider: "fts", Value: 50},
			{ID: "c", FigureID: "idps", Provider: "fts", Value: 20},
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "idps", results[0].FigureID)
		assert.Equal(t, 120.0, results[0].Value)
		assert.Equal(t, "refugees", results[1].FigureID)
	})

	t.Run("cache tags union across source records", func(t *testing.T) {
		figures := newTestFigures(newFakeAPI())
		results, err := figures.AggregateByFigureID(ctx, []domain.Figure{
			{ID: "a", FigureID: "idps", Provider: "fts", Value: 1},
			{ID: "b", FigureID: "idps", Provider: "fts", Value: 2},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, []string{
			"keyfigures",
			"keyfigures:fts",
			"keyfigures:fts:a",
			"keyfigures:fts:b",
		}, results[0].CacheTags)
	})
}

func TestUnionList(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		incoming string
		want     string
	}{
		{"disjoint", "a, b", "c", "a, b, c"},
		{"overlap deduplicates", "a, b", "b, c", "a, b, c"},
		{"ragged whitespace", " a ,b", "b,  c ", "a, b, c"},
		{"empty existing", "", "a, b", "a, b"},
		{"empty incoming", "a", "", "a"},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unionList(tt.existing, tt.incoming))
		})
	}
}
