package view

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pedromiglou/JARR/app/filter"
	"github.com/pedromiglou/JARR/app/notify"
)

// ErrNotFound reports an item that does not exist or belongs to another
// user; the two cases are indistinguishable to the caller.
var ErrNotFound = errors.New("not found")

// maxPageSize bounds every list response; callers needing more paginate via
// narrower filters.
const maxPageSize = 1000

// ContentParser is the external content-extraction collaborator.
type ContentParser interface {
	Run(ctx context.Context, link, credential string) (string, error)
}

// NotifierInterface provides the notification list merged into payloads.
type NotifierInterface interface {
	Run(userID int64) ([]notify.Notification, error)
}

// UnreadCounter is satisfied by both read-model backends.
type UnreadCounter interface {
	CountUnreadByFeed(userID int64) (map[int64]int, error)
}

// CategoryUnreadCounter exposes the cluster backend's independently computed
// category totals, used to reconcile against the per-feed rollup.
type CategoryUnreadCounter interface {
	CountUnreadByCategory(userID int64) (map[int64]int, error)
}

// ReadService lists, fetches and mutates items under a user scope. The
// cluster and article implementations interpret the same predicates.
type ReadService interface {
	List(userID int64, pred filter.Predicate) ([]ItemView, error)
	GetOne(ctx context.Context, userID, itemID int64, parse bool, articleID int64) (*ItemView, error)
	MarkRead(userID, itemID int64) error
	MarkAllAsRead(userID int64, pred filter.Predicate) ([]ItemView, error)
}

type FeedView struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	CategoryID    int64    `json:"category_id"`
	Link          string   `json:"link"`
	SiteLink      string   `json:"site_link"`
	IconURL       string   `json:"icon_url,omitempty"`
	CreatedDate   string   `json:"created_date"`
	CreatedRel    string   `json:"created_rel"`
	LastRetrieved string   `json:"last_retrieved"`
	LastRel       string   `json:"last_rel"`
	ErrorCount    int      `json:"error_count"`
	AutoParse     bool     `json:"readability_auto_parse"`
	Filters       []string `json:"filters"`
	Unread        int      `json:"unread"`
}

type CategoryView struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Feeds  []int64 `json:"feeds"`
	Unread int     `json:"unread"`
}

type Menu struct {
	Feeds           map[int64]FeedView     `json:"feeds"`
	Categories      map[int64]CategoryView `json:"categories"`
	CategoriesOrder []int64                `json:"categories_order"`
	CrawlingMethod  string                 `json:"crawling_method"`
	MaxError        int                    `json:"max_error"`
	ErrorThreshold  int                    `json:"error_threshold"`
	IsAdmin         bool                   `json:"is_admin"`
	Notifications   []notify.Notification  `json:"notifications"`
	AllUnreadCount  int                    `json:"all_unread_count"`
}

type ArticleView struct {
	ID                   int64  `json:"id"`
	FeedID               int64  `json:"feed_id"`
	CategoryID           int64  `json:"category_id"`
	Title                string `json:"title"`
	Content              string `json:"content"`
	Link                 string `json:"link"`
	Date                 string `json:"date"`
	DateRel              string `json:"date_rel"`
	Read                 bool   `json:"read"`
	Liked                bool   `json:"liked"`
	Parsed               bool   `json:"parsed"`
	ReadabilityAvailable bool   `json:"readability_available"`
}

type ItemView struct {
	ID            int64                 `json:"id"`
	FeedsID       []int64               `json:"feeds_id"`
	CategoriesID  []int64               `json:"categories_id"`
	MainFeedTitle string                `json:"main_feed_title"`
	MainTitle     string                `json:"main_title"`
	MainLink      string                `json:"main_link"`
	MainDate      string                `json:"main_date"`
	MainDateRel   string                `json:"main_date_rel"`
	IconURL       string                `json:"icon_url,omitempty"`
	Read          bool                  `json:"read"`
	Liked         bool                  `json:"liked"`
	Articles      []ArticleView         `json:"articles,omitempty"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
	ParseError    string                `json:"parse_error,omitempty"`
}

func fmtDatetime(t time.Time) string {
	return t.In(time.Local).Format(time.RFC1123)
}

func fmtRelative(t time.Time) string {
	return humanize.Time(t)
}
