package view

import (
	"context"
	"sort"
	"time"

	"github.com/pedromiglou/JARR/app/database"
	"github.com/pedromiglou/JARR/app/filter"
	"github.com/pedromiglou/JARR/app/notify"
)

type fakeUserRepo struct {
	users map[int64]*database.User
}

func (r *fakeUserRepo) GetByID(userID int64) (*database.User, error) {
	if u, ok := r.users[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByAPIKey(apiKey string) (*database.User, error) {
	for _, u := range r.users {
		if u.APIKey == apiKey {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateLastConnection(userID int64) error { return nil }

type fakeCategoryRepo struct {
	categories []database.Category
}

func (r *fakeCategoryRepo) ListByUser(userID int64) ([]database.Category, error) {
	var out []database.Category
	for _, c := range r.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeFeedRepo struct {
	feeds []database.Feed
}

func (r *fakeFeedRepo) ListByUser(userID int64) ([]database.Feed, error) {
	var out []database.Feed
	for _, f := range r.feeds {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFeedRepo) GetByID(userID, feedID int64) (*database.Feed, error) {
	for _, f := range r.feeds {
		if f.UserID == userID && f.ID == feedID {
			copied := f
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeFeedRepo) Count() (int, error) { return len(r.feeds), nil }

func (r *fakeFeedRepo) ListDueForFetch(errorMax, limit int) ([]database.Feed, error) {
	return nil, nil
}

func (r *fakeFeedRepo) ListErrored(userID int64, threshold int) ([]database.Feed, error) {
	var out []database.Feed
	for _, f := range r.feeds {
		if f.UserID == userID && f.ErrorCount >= threshold {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFeedRepo) UpdateCrawlState(feedID int64, etag, lastModified string, lastRetrieved time.Time) error {
	return nil
}

func (r *fakeFeedRepo) UpdateMetadata(feedID int64, title, siteLink, iconURL string) error {
	return nil
}

func (r *fakeFeedRepo) IncrementErrorCount(feedID int64) (int, error) { return 0, nil }

func (r *fakeFeedRepo) ResetCrawlStates(staggerSeconds int) (int64, error) {
	return int64(len(r.feeds)), nil
}

func articleRow(a *database.Article, read, liked bool) filter.Row {
	row := filter.Row{
		filter.FieldTitle:   a.Title,
		filter.FieldContent: a.Content,
		filter.FieldRead:    read,
		filter.FieldLiked:   liked,
		filter.FieldFeedID:  a.FeedID,
	}
	if a.CategoryID != nil {
		row[filter.FieldCategoryID] = *a.CategoryID
	}
	return row
}

type fakeArticleRepo struct {
	articles []*database.Article
}

func (r *fakeArticleRepo) ListByPredicate(userID int64, pred filter.Predicate, limit int) ([]database.Article, error) {
	var out []database.Article
	for _, a := range r.articles {
		if a.UserID != userID {
			continue
		}
		if filter.Match(pred, articleRow(a, a.Read, a.Liked)) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeArticleRepo) ListByCluster(userID, clusterID int64) ([]database.Article, error) {
	var out []database.Article
	for _, a := range r.articles {
		if a.UserID == userID && a.ClusterID != nil && *a.ClusterID == clusterID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeArticleRepo) GetByID(userID, articleID int64) (*database.Article, error) {
	for _, a := range r.articles {
		if a.UserID == userID && a.ID == articleID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeArticleRepo) GetByGUID(userID, feedID int64, guid string) (*database.Article, error) {
	for _, a := range r.articles {
		if a.UserID == userID && a.FeedID == feedID && a.GUID == guid {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeArticleRepo) CountUnreadByFeed(userID int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, a := range r.articles {
		if a.UserID == userID && !a.Read {
			counts[a.FeedID]++
		}
	}
	return counts, nil
}

func (r *fakeArticleRepo) Create(a *database.Article) (int64, error) {
	id := int64(len(r.articles) + 1)
	copied := *a
	copied.ID = id
	r.articles = append(r.articles, &copied)
	return id, nil
}

func (r *fakeArticleRepo) SetRead(userID int64, articleIDs []int64) error {
	for _, id := range articleIDs {
		for _, a := range r.articles {
			if a.UserID == userID && a.ID == id {
				a.Read = true
			}
		}
	}
	return nil
}

func (r *fakeArticleRepo) SetParsed(userID, articleID int64, content string) error {
	for _, a := range r.articles {
		if a.UserID == userID && a.ID == articleID {
			a.Content = content
			a.Parsed = true
		}
	}
	return nil
}

type fakeClusterRepo struct {
	clusters []*database.Cluster
	articles *fakeArticleRepo
}

func (r *fakeClusterRepo) memberMatches(c *database.Cluster, pred filter.Predicate) bool {
	for _, a := range r.articles.articles {
		if a.UserID == c.UserID && a.ClusterID != nil && *a.ClusterID == c.ID {
			if filter.Match(pred, articleRow(a, c.Read, c.Liked)) {
				return true
			}
		}
	}
	return false
}

func (r *fakeClusterRepo) ListByPredicate(userID int64, pred filter.Predicate, limit int) ([]database.Cluster, error) {
	var out []database.Cluster
	for _, c := range r.clusters {
		if c.UserID == userID && r.memberMatches(c, pred) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MainDate.After(out[j].MainDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeClusterRepo) GetByID(userID, clusterID int64) (*database.Cluster, error) {
	for _, c := range r.clusters {
		if c.UserID == userID && c.ID == clusterID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeClusterRepo) GetByLinkHash(userID int64, linkHash []byte) (*database.Cluster, error) {
	for _, a := range r.articles.articles {
		if a.UserID == userID && a.ClusterID != nil && string(a.LinkHash) == string(linkHash) {
			return r.GetByID(userID, *a.ClusterID)
		}
	}
	return nil, nil
}

func (r *fakeClusterRepo) CountUnreadByFeed(userID int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, c := range r.clusters {
		if c.UserID != userID || c.Read {
			continue
		}
		for _, feedID := range c.FeedsID {
			counts[feedID]++
		}
	}
	return counts, nil
}

func (r *fakeClusterRepo) CountUnreadByCategory(userID int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, c := range r.clusters {
		if c.UserID != userID || c.Read {
			continue
		}
		if len(c.CategoriesID) == 0 {
			counts[0]++
			continue
		}
		for _, catID := range c.CategoriesID {
			counts[catID]++
		}
	}
	return counts, nil
}

func (r *fakeClusterRepo) Create(c *database.Cluster) (int64, error) {
	id := int64(len(r.clusters) + 1)
	copied := *c
	copied.ID = id
	r.clusters = append(r.clusters, &copied)
	return id, nil
}

func (r *fakeClusterRepo) SetRead(userID int64, clusterIDs []int64) error {
	for _, id := range clusterIDs {
		for _, c := range r.clusters {
			if c.UserID == userID && c.ID == id {
				c.Read = true
			}
		}
	}
	return nil
}

func (r *fakeClusterRepo) Refresh(userID, clusterID int64, date time.Time) error {
	for _, c := range r.clusters {
		if c.UserID == userID && c.ID == clusterID {
			if date.Before(c.MainDate) {
				c.MainDate = date
			}
			c.Read = false
		}
	}
	return nil
}

type fakeParser struct {
	content string
	err     error
	calls   []string
}

func (p *fakeParser) Run(ctx context.Context, link, credential string) (string, error) {
	p.calls = append(p.calls, link)
	if p.err != nil {
		return "", p.err
	}
	return p.content, nil
}

type fakeNotifier struct {
	notifications []notify.Notification
}

func (n *fakeNotifier) Run(userID int64) ([]notify.Notification, error) {
	return n.notifications, nil
}
