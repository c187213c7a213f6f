package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pedromiglou/JARR/app/database"
)

const fetchTimeout = 30 * time.Second

// FetchFeedTask fetches one feed over HTTP, stores the new articles and
// routes each of them into its link cluster. Conditional request headers are
// replayed from the previous crawl so unchanged feeds cost a 304.
type FetchFeedTask struct {
	Task
	feed        database.Feed
	httpClient  *http.Client
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	linkRepo    database.LinkRepository
	clusterizer *Clusterizer
	userAgent   string
}

func NewFetchFeedTask(feed database.Feed, httpClient *http.Client, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository, linkRepo database.LinkRepository,
	clusterizer *Clusterizer, userAgent string) *FetchFeedTask {
	return &FetchFeedTask{
		Task:        NewTask(TaskTypeFetchFeed, feed.Title),
		feed:        feed,
		httpClient:  httpClient,
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		linkRepo:    linkRepo,
		clusterizer: clusterizer,
		userAgent:   userAgent,
	}
}

type fetchResult struct {
	data         []byte
	notModified  bool
	etag         string
	lastModified string
}

func (t *FetchFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.fetchFeed(ctx)
	if err != nil {
		t.recordFailure(err)
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	now := time.Now().UTC()

	if result.notModified {
		if err := t.feedRepo.UpdateCrawlState(t.feed.ID, t.feed.Etag, t.feed.LastModified, now); err != nil {
			return fmt.Errorf("failed to update crawl state: %w", err)
		}
		slog.Debug("Feed not modified", "feed", t.feed.Title, "feed_id", t.feed.ID)
		return nil
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(result.data))
	if err != nil {
		t.recordFailure(err)
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	if err := t.storeMetadata(parsed); err != nil {
		return err
	}

	newCount := 0
	duplicateCount := 0
	for _, item := range parsed.Items {
		created, err := t.storeItem(item, now)
		if err != nil {
			return err
		}
		if created {
			newCount++
		} else {
			duplicateCount++
		}
	}

	if err := t.feedRepo.UpdateCrawlState(t.feed.ID, result.etag, result.lastModified, now); err != nil {
		return fmt.Errorf("failed to update crawl state: %w", err)
	}

	slog.Info("Task completed",
		"type", string(TaskTypeFetchFeed),
		"feed", t.feed.Title,
		"feed_id", t.feed.ID,
		"duration", t.GetDuration(),
		"total", len(parsed.Items),
		"new", newCount,
		"duplicates", duplicateCount)

	return nil
}

func (t *FetchFeedTask) fetchFeed(ctx context.Context) (*fetchResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", t.feed.Link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)
	if t.feed.Etag != "" {
		req.Header.Set("If-None-Match", t.feed.Etag)
	}
	if t.feed.LastModified != "" {
		req.Header.Set("If-Modified-Since", t.feed.LastModified)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &fetchResult{notModified: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &fetchResult{
		data:         data,
		etag:         resp.Header.Get("Etag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

func (t *FetchFeedTask) storeMetadata(parsed *gofeed.Feed) error {
	iconURL := ""
	if parsed.Image != nil {
		iconURL = parsed.Image.URL
	}
	if err := t.feedRepo.UpdateMetadata(t.feed.ID, parsed.Title, parsed.Link, iconURL); err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}
	return nil
}

// storeItem creates the article for one feed entry unless its GUID was seen
// on a previous crawl. Reports whether a new article was created.
func (t *FetchFeedTask) storeItem(item *gofeed.Item, now time.Time) (bool, error) {
	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}
	if guid == "" {
		slog.Debug("Skipping entry without guid or link", "feed", t.feed.Title)
		return false, nil
	}

	existing, err := t.articleRepo.GetByGUID(t.feed.UserID, t.feed.ID, guid)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing article: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	date := now
	if item.PublishedParsed != nil {
		date = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		date = item.UpdatedParsed.UTC()
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	article := &database.Article{
		UserID:     t.feed.UserID,
		FeedID:     t.feed.ID,
		CategoryID: t.feed.CategoryID,
		GUID:       guid,
		Link:       item.Link,
		Title:      item.Title,
		Content:    content,
		Date:       date,
	}

	if item.Link != "" {
		linkHash := HashLink(item.Link)
		clusterID, err := t.clusterizer.Run(t.feed.UserID, linkHash, item.Link, item.Title, t.feed.Title, date)
		if err != nil {
			return false, err
		}
		article.ClusterID = &clusterID
		article.LinkHash = linkHash
	}

	articleID, err := t.articleRepo.Create(article)
	if err != nil {
		return false, fmt.Errorf("failed to create article: %w", err)
	}

	if article.LinkHash != nil {
		if err := t.linkRepo.Attach(t.feed.UserID, articleID, article.LinkHash); err != nil {
			return false, fmt.Errorf("failed to attach article link: %w", err)
		}
	}

	t.storeEnclosures(articleID, item)

	return true, nil
}

// storeEnclosures records attachment links. Failures are logged and skipped,
// an enclosure is never worth failing the whole crawl.
func (t *FetchFeedTask) storeEnclosures(articleID int64, item *gofeed.Item) {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		hash := HashLink(enclosure.URL)
		err := t.linkRepo.Upsert(&database.Link{
			UserID:      t.feed.UserID,
			LinkHash:    hash,
			Link:        enclosure.URL,
			ContentType: enclosure.Type,
			LinkType:    database.LinkTypeAttachment,
		})
		if err == nil {
			err = t.linkRepo.Attach(t.feed.UserID, articleID, hash)
		}
		if err != nil {
			slog.Warn("Failed to store enclosure", "feed", t.feed.Title, "url", enclosure.URL, "error", err)
		}
	}
}

func (t *FetchFeedTask) recordFailure(cause error) {
	count, err := t.feedRepo.IncrementErrorCount(t.feed.ID)
	if err != nil {
		slog.Error("Failed to record feed error", "feed", t.feed.Title, "feed_id", t.feed.ID, "error", err)
		return
	}
	slog.Warn("Feed crawl failed", "feed", t.feed.Title, "feed_id", t.feed.ID, "error_count", count, "error", cause)
}
