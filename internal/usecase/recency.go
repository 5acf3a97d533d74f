package usecase

import (
	"fmt"
	"time"

	"figures-hub/internal/domain"
)

// RecentThresholdDays is the maximum age in days for a figure to still
// count as recently updated.
const RecentThresholdDays = 7

// ClassifyRecency splits figures into recent and standard ones and
// attaches a human-readable update label to each. The result is a stable
// partition: recent figures first in their original relative order, then
// the standard ones in theirs.
func ClassifyRecency(figures []domain.GroupedFigure, now time.Time) []domain.ClassifiedFigure {
	var recent, standard []domain.ClassifiedFigure

	for _, fig := range figures {
		effective := fig.EffectiveDate()
		daysAgo := daysBetween(effective, now)

		classified := domain.ClassifiedFigure{GroupedFigure: fig}
		if daysAgo < RecentThresholdDays {
			classified.Status = domain.StatusRecent
			classified.UpdatedLabel = recentLabel(daysAgo)
			recent = append(recent, classified)
		} else {
			classified.Status = domain.StatusStandard
			classified.UpdatedLabel = "Updated " + effective.Format("2 Jan 2006")
			standard = append(standard, classified)
		}
	}

	return append(recent, standard...)
}

func recentLabel(daysAgo int) string {
	switch daysAgo {
	case 0:
		return "Updated today"
	case 1:
		return "Updated yesterday"
	default:
		return fmt.Sprintf("Updated %d days ago", daysAgo)
	}
}
