package legacy

import (
	"time"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/models"
)

// DefaultCollection is written on first launch so the record list is never empty.
func DefaultCollection(now time.Time) models.Collection {
	createdAt := models.FormatCreatedAt(now)
	return models.Collection{
		{
			ID:          "1",
			Title:       "Morning Yoga",
			Description: "15 mins of mindfulness",
			Icon:        "🧘",
			Color:       "#66AB71",
			IsPrimary:   true,
			CreatedAt:   createdAt,
			Logs: []models.LogEntry{
				{Date: now.UTC().Format(constants.DateFormat), Note: "Feeling centered and calm."},
			},
		},
		{
			ID:          "2",
			Title:       "Reading",
			Description: "30 pages daily",
			Icon:        "📖",
			Color:       "#A3BB96",
			CreatedAt:   createdAt,
			Logs:        []models.LogEntry{},
		},
	}
}
