package database

import (
	"time"
)

type User struct {
	ID             int64
	Login          string
	APIKey         string
	IsAdmin        bool
	IsActive       bool
	ReadabilityKey string
	LastConnection time.Time
	CreatedAt      time.Time
}

type Category struct {
	ID     int64
	UserID int64
	Name   string
}

type Feed struct {
	ID            int64
	UserID        int64
	CategoryID    *int64 // nil maps to the synthetic "No category" bucket in views
	Title         string
	Link          string // feed URL
	SiteLink      string
	IconURL       string
	Etag          string
	LastModified  string
	LastRetrieved time.Time // epoch sentinel means never fetched
	ErrorCount    int
	AutoParse     bool // readability_auto_parse
	Filters       []string
	CreatedAt     time.Time
}

type Article struct {
	ID         int64
	UserID     int64
	FeedID     int64
	CategoryID *int64
	ClusterID  *int64
	GUID       string
	Link       string
	LinkHash   []byte
	Title      string
	Content    string
	Date       time.Time
	Read       bool
	Liked      bool
	Parsed     bool
	CreatedAt  time.Time
}

// Cluster groups articles sharing a canonical link. FeedsID and CategoriesID
// are aggregated from member articles at query time, never stored.
type Cluster struct {
	ID            int64
	UserID        int64
	MainTitle     string
	MainFeedTitle string
	MainLink      string
	MainDate      time.Time
	Read          bool
	Liked         bool
	FeedsID       []int64
	CategoriesID  []int64
}

type LinkType string

const (
	LinkTypeMain       LinkType = "main"
	LinkTypeAttachment LinkType = "attachment"
)

// Link is a content-addressed record deduplicating articles pointing at the
// same resource across feeds.
type Link struct {
	UserID      int64
	LinkHash    []byte
	Link        string
	ContentType string
	LinkType    LinkType
}
