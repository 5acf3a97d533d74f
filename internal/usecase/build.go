package usecase

import (
	"time"

	"figures-hub/internal/domain"
)

// BuildKeyFigures prepares grouped figures for display: recency
// classification plus, when requested, trend and sparkline derivation for
// figures with a numeric history. Figures with an explicit non-numeric
// value type keep their history untouched.
func BuildKeyFigures(figures []domain.GroupedFigure, sparklines bool, now time.Time) []domain.ClassifiedFigure {
	if sparklines {
		for i := range figures {
			fig := &figures[i]
			if len(fig.Values) == 0 {
				continue
			}
			if fig.ValueType != "" && fig.ValueType != domain.ValueTypeNumeric {
				continue
			}
			fig.Trend = ComputeTrend(fig.Values)
			fig.Sparkline = ComputeSparkline(fig.Values)
		}
	}

	return ClassifyRecency(figures, now)
}
