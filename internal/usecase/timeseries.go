package usecase

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"figures-hub/internal/domain"
)

// Sparkline viewbox dimensions.
const (
	sparklineWidth  = 120.0
	sparklineHeight = 40.0
)

// sortNewestFirst orders value points newest first. When both points carry
// an upstream updated timestamp the comparison is on that string,
// otherwise on the parsed date. The sort is stable.
func sortNewestFirst(points []domain.ValuePoint) {
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.Updated != "" && b.Updated != "" {
			return a.Updated > b.Updated
		}
		return a.Date.After(b.Date)
	})
}

// ComputeTrend computes the percentage change between the two most recent
// points of a figure's history. Returns nil with fewer than two points.
//
// The percentage follows the upstream formula round((1 - first/second) *
// 100), so the sign is inverted relative to naive expectation: a value
// rising from 100 to 120 yields -17, reported as a 17% increase. A zero
// comparison value short-circuits to 100 to avoid dividing by zero.
func ComputeTrend(points []domain.ValuePoint) *domain.Trend {
	if len(points) < 2 {
		return nil
	}

	sorted := make([]domain.ValuePoint, len(points))
	copy(sorted, points)
	sortNewestFirst(sorted)

	first, second := sorted[0], sorted[1]

	percentage := 100
	if second.Value != 0 {
		percentage = int(math.Round((1 - first.Value/second.Value) * 100))
	}

	var message string
	switch {
	case percentage == 0:
		message = "No change"
	case percentage < 0:
		message = fmt.Sprintf("%d%% increase", -percentage)
	default:
		message = fmt.Sprintf("%d%% decrease", percentage)
	}

	return &domain.Trend{
		Percentage: percentage,
		Message:    message,
		Since:      second.Date,
	}
}

// ComputeSparkline projects a figure's history onto a fixed 120x40
// viewbox. Returns nil when there is nothing to draw: no points, no value
// variation, or a zero-day span between newest and oldest points. Output
// order matches the newest-first sort, not chronology.
func ComputeSparkline(points []domain.ValuePoint) *domain.Sparkline {
	if len(points) == 0 {
		return nil
	}

	minVal, maxVal := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		minVal = math.Min(minVal, p.Value)
		maxVal = math.Max(maxVal, p.Value)
	}
	if minVal == maxVal {
		return nil
	}

	sorted := make([]domain.ValuePoint, len(points))
	copy(sorted, points)
	sortNewestFirst(sorted)

	newest := sorted[0].Date
	oldest := sorted[len(sorted)-1].Date
	span := daysBetween(oldest, newest)
	if span == 0 {
		return nil
	}

	coords := make([]string, 0, len(sorted))
	for _, p := range sorted {
		x := (sparklineWidth / float64(span)) * float64(daysBetween(oldest, p.Date))
		y := sparklineHeight - ((p.Value - minVal) / (maxVal - minVal) * sparklineHeight)
		coords = append(coords, formatCoord(x)+","+formatCoord(y))
	}

	return &domain.Sparkline{Points: coords}
}

// daysBetween returns the whole-day distance between two dates.
func daysBetween(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// formatCoord rounds to two decimals and trims trailing zeros.
func formatCoord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
