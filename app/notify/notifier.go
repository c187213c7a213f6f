// Package notify builds the notification list merged into view payloads.
package notify

import (
	"fmt"

	"github.com/pedromiglou/JARR/app/database"
)

type Notification struct {
	Type       string `json:"type"`
	FeedID     int64  `json:"feed_id"`
	FeedTitle  string `json:"feed_title"`
	ErrorCount int    `json:"error_count"`
	Message    string `json:"message"`
}

// Notifier reports feeds whose error count crossed the configured threshold.
type Notifier struct {
	feedRepo  database.FeedRepository
	threshold int
}

func NewNotifier(feedRepo database.FeedRepository, threshold int) *Notifier {
	return &Notifier{
		feedRepo:  feedRepo,
		threshold: threshold,
	}
}

func (n *Notifier) Run(userID int64) ([]Notification, error) {
	feeds, err := n.feedRepo.ListErrored(userID, n.threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list errored feeds: %w", err)
	}

	notifications := make([]Notification, 0, len(feeds))
	for _, feed := range feeds {
		notifications = append(notifications, Notification{
			Type:       "feed_error",
			FeedID:     feed.ID,
			FeedTitle:  feed.Title,
			ErrorCount: feed.ErrorCount,
			Message:    fmt.Sprintf("Feed '%s' failed %d times in a row", feed.Title, feed.ErrorCount),
		})
	}

	return notifications, nil
}
