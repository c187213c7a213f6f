package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// FeedRepositoryImpl handles database operations for feeds
type FeedRepositoryImpl struct {
	db *DB
}

var _ FeedRepository = (*FeedRepositoryImpl)(nil)

func NewFeedRepository(db *DB) *FeedRepositoryImpl {
	return &FeedRepositoryImpl{db: db}
}

const feedColumns = `id, user_id, category_id, COALESCE(title, ''), link, COALESCE(site_link, ''),
       COALESCE(icon_url, ''), COALESCE(etag, ''), COALESCE(last_modified, ''),
       last_retrieved, error_count, readability_auto_parse, COALESCE(filters, '{}'), created_at`

func scanFeed(scan func(...any) error) (*Feed, error) {
	var feed Feed
	err := scan(
		&feed.ID, &feed.UserID, &feed.CategoryID, &feed.Title, &feed.Link, &feed.SiteLink,
		&feed.IconURL, &feed.Etag, &feed.LastModified,
		&feed.LastRetrieved, &feed.ErrorCount, &feed.AutoParse, pq.Array(&feed.Filters),
		&feed.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (r *FeedRepositoryImpl) ListByUser(userID int64) ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

func collectFeeds(rows *sql.Rows) ([]Feed, error) {
	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *FeedRepositoryImpl) GetByID(userID, feedID int64) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE user_id = $1 AND id = $2
	`, userID, feedID).Scan)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

func (r *FeedRepositoryImpl) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// ListDueForFetch returns feeds of active users that have not errored out,
// oldest fetch first.
func (r *FeedRepositoryImpl) ListDueForFetch(errorMax, limit int) ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT f.id, f.user_id, f.category_id, COALESCE(f.title, ''), f.link, COALESCE(f.site_link, ''),
		       COALESCE(f.icon_url, ''), COALESCE(f.etag, ''), COALESCE(f.last_modified, ''),
		       f.last_retrieved, f.error_count, f.readability_auto_parse, COALESCE(f.filters, '{}'), f.created_at
		FROM feeds f
		JOIN users u ON u.id = f.user_id
		WHERE u.is_active = TRUE
		  AND f.error_count < $1
		ORDER BY f.last_retrieved
		LIMIT $2
	`, errorMax, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds due for fetch: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

func (r *FeedRepositoryImpl) ListErrored(userID int64, threshold int) ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE user_id = $1 AND error_count >= $2
		ORDER BY error_count DESC
	`, userID, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list errored feeds: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

// UpdateCrawlState records a successful fetch: caching validators are stored
// for the next conditional GET and the error count resets.
func (r *FeedRepositoryImpl) UpdateCrawlState(feedID int64, etag, lastModified string, lastRetrieved time.Time) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET etag = $2, last_modified = $3, last_retrieved = $4, error_count = 0
		WHERE id = $1
	`, feedID, etag, lastModified, lastRetrieved)
	if err != nil {
		return fmt.Errorf("failed to update feed crawl state: %w", err)
	}
	return nil
}

func (r *FeedRepositoryImpl) UpdateMetadata(feedID int64, title, siteLink, iconURL string) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET title = COALESCE(NULLIF($2, ''), title),
		    site_link = COALESCE(NULLIF($3, ''), site_link),
		    icon_url = COALESCE(NULLIF($4, ''), icon_url)
		WHERE id = $1
	`, feedID, title, siteLink, iconURL)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}
	return nil
}

func (r *FeedRepositoryImpl) IncrementErrorCount(feedID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		UPDATE feeds
		SET error_count = error_count + 1, last_retrieved = NOW()
		WHERE id = $1
		RETURNING error_count
	`, feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to increment feed error count: %w", err)
	}
	return count, nil
}

// ResetCrawlStates clears conditional request state and error counts on every
// feed and staggers last_retrieved across the given window so the next crawl
// cycle does not refetch everything at once.
func (r *FeedRepositoryImpl) ResetCrawlStates(staggerSeconds int) (int64, error) {
	result, err := r.db.Exec(`
		UPDATE feeds
		SET etag = '',
		    last_modified = '',
		    error_count = 0,
		    last_retrieved = NOW() - make_interval(secs => random() * $1)
	`, staggerSeconds)
	if err != nil {
		return 0, fmt.Errorf("failed to reset feed crawl states: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset feeds: %w", err)
	}
	return affected, nil
}
