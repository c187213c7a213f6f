package database

import (
	"time"

	"github.com/pedromiglou/JARR/app/filter"
)

type UserRepository interface {
	GetByID(userID int64) (*User, error)
	GetByAPIKey(apiKey string) (*User, error)
	UpdateLastConnection(userID int64) error
}

type CategoryRepository interface {
	// ListByUser returns the user's categories ordered by name.
	ListByUser(userID int64) ([]Category, error)
}

type FeedRepository interface {
	ListByUser(userID int64) ([]Feed, error)
	GetByID(userID, feedID int64) (*Feed, error)
	Count() (int, error)

	ListDueForFetch(errorMax, limit int) ([]Feed, error)
	ListErrored(userID int64, threshold int) ([]Feed, error)
	UpdateCrawlState(feedID int64, etag, lastModified string, lastRetrieved time.Time) error
	UpdateMetadata(feedID int64, title, siteLink, iconURL string) error
	IncrementErrorCount(feedID int64) (int, error)
	ResetCrawlStates(staggerSeconds int) (int64, error)
}

type ArticleRepository interface {
	ListByPredicate(userID int64, pred filter.Predicate, limit int) ([]Article, error)
	ListByCluster(userID, clusterID int64) ([]Article, error)
	GetByID(userID, articleID int64) (*Article, error)
	GetByGUID(userID, feedID int64, guid string) (*Article, error)
	CountUnreadByFeed(userID int64) (map[int64]int, error)
	Create(a *Article) (int64, error)
	SetRead(userID int64, articleIDs []int64) error
	SetParsed(userID, articleID int64, content string) error
}

type ClusterRepository interface {
	ListByPredicate(userID int64, pred filter.Predicate, limit int) ([]Cluster, error)
	GetByID(userID, clusterID int64) (*Cluster, error)
	GetByLinkHash(userID int64, linkHash []byte) (*Cluster, error)
	CountUnreadByFeed(userID int64) (map[int64]int, error)
	CountUnreadByCategory(userID int64) (map[int64]int, error)
	Create(c *Cluster) (int64, error)
	SetRead(userID int64, clusterIDs []int64) error
	// Refresh folds a newly attached article into the cluster aggregate:
	// earliest date wins as main_date and the cluster becomes unread again.
	Refresh(userID, clusterID int64, date time.Time) error
}

type LinkRepository interface {
	Upsert(l *Link) error
	Attach(userID, articleID int64, linkHash []byte) error
}
