package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figures-hub/internal/domain"
)

func groupedWithUpdate(name, updated string) domain.GroupedFigure {
	return domain.GroupedFigure{Figure: domain.Figure{Name: name, Updated: updated}}
}

func TestClassifyRecency(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("labels depend on the update age", func(t *testing.T) {
		results := ClassifyRecency([]domain.GroupedFigure{
			groupedWithUpdate("today", "2024-06-15T08:00:00+00:00"),
			groupedWithUpdate("yesterday", "2024-06-14T08:00:00+00:00"),
			groupedWithUpdate("four days", "2024-06-11T08:00:00+00:00"),
			groupedWithUpdate("old", "2024-05-01T08:00:00+00:00"),
		}, now)

		require.Len(t, results, 4)
		assert.Equal(t, "Updated today", results[0].UpdatedLabel)
		assert.Equal(t, domain.StatusRecent, results[0].Status)
		assert.Equal(t, "Updated yesterday", results[1].UpdatedLabel)
		assert.Equal(t, "Updated 4 days ago", results[2].UpdatedLabel)
		assert.Equal(t, "Updated 1 May 2024", results[3].UpdatedLabel)
		assert.Equal(t, domain.StatusStandard, results[3].Status)
	})

	t.Run("recent figures move ahead, both partitions keep order", func(t *testing.T) {
		results := ClassifyRecency([]domain.GroupedFigure{
			groupedWithUpdate("old-a", "2024-01-10T08:00:00+00:00"),
			groupedWithUpdate("fresh-a", "2024-06-14T08:00:00+00:00"),
			groupedWithUpdate("old-b", "2024-02-20T08:00:00+00:00"),
			groupedWithUpdate("fresh-b", "2024-06-12T08:00:00+00:00"),
		}, now)

		names := make([]string, len(results))
		for i, r := range results {
			names[i] = r.Name
		}
		assert.Equal(t, []string{"fresh-a", "fresh-b", "old-a", "old-b"}, names)
	})

	t.Run("missing update timestamp falls back to the year", func(t *testing.T) {
		results := ClassifyRecency([]domain.GroupedFigure{
			{Figure: domain.Figure{Name: "yearly", Year: 2023}},
		}, now)

		require.Len(t, results, 1)
		assert.Equal(t, domain.StatusStandard, results[0].Status)
		assert.Equal(t, "Updated 1 Jan 2023", results[0].UpdatedLabel)
	})
}

func TestBuildKeyFigures(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	history := []domain.ValuePoint{
		{Date: day(2024, 1, 1), Value: 100},
		{Date: day(2024, 6, 1), Value: 120},
	}

	t.Run("sparklines attach trend and chart to numeric figures", func(t *testing.T) {
		results := BuildKeyFigures([]domain.GroupedFigure{
			{Figure: domain.Figure{Name: "idps"}, Values: history},
			{Figure: domain.Figure{Name: "typed", ValueType: domain.ValueTypeNumeric}, Values: history},
			{Figure: domain.Figure{Name: "sectors", ValueType: domain.ValueTypeList}, Values: history},
			{Figure: domain.Figure{Name: "empty"}},
		}, true, now)

		require.Len(t, results, 4)
		byName := make(map[string]domain.ClassifiedFigure, len(results))
		for _, r := range results {
			byName[r.Name] = r
		}
		assert.NotNil(t, byName["idps"].Trend)
		assert.NotNil(t, byName["typed"].Trend)
		assert.Nil(t, byName["sectors"].Trend)
		assert.Nil(t, byName["empty"].Trend)
	})

	t.Run("without sparklines only recency is attached", func(t *testing.T) {
		results := BuildKeyFigures([]domain.GroupedFigure{
			{Figure: domain.Figure{Name: "idps"}, Values: history},
		}, false, now)

		require.Len(t, results, 1)
		assert.Nil(t, results[0].Trend)
		assert.NotEmpty(t, results[0].UpdatedLabel)
	})
}
