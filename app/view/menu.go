package view

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pedromiglou/JARR/app/cfg"
	"github.com/pedromiglou/JARR/app/database"
	"github.com/pedromiglou/JARR/app/icon"
	"github.com/pedromiglou/JARR/app/notify"
)

// unixStart is the "never fetched" sentinel on feeds.
var unixStart = time.Unix(0, 0)

// MenuBuilder assembles the category/feed tree with unread counts served on
// /menu. Category totals are always rolled up from the per-feed counts so
// the two numbers cannot disagree.
type MenuBuilder struct {
	userRepo        database.UserRepository
	categoryRepo    database.CategoryRepository
	feedRepo        database.FeedRepository
	counter         UnreadCounter
	categoryCounter CategoryUnreadCounter
	icons           *icon.URLBuilder
	notifier        NotifierInterface
	cfg             *cfg.Cfg
}

func NewMenuBuilder(userRepo database.UserRepository, categoryRepo database.CategoryRepository,
	feedRepo database.FeedRepository, counter UnreadCounter, categoryCounter CategoryUnreadCounter,
	icons *icon.URLBuilder, notifier NotifierInterface, appCfg *cfg.Cfg) *MenuBuilder {
	return &MenuBuilder{
		userRepo:        userRepo,
		categoryRepo:    categoryRepo,
		feedRepo:        feedRepo,
		counter:         counter,
		categoryCounter: categoryCounter,
		icons:           icons,
		notifier:        notifier,
		cfg:             appCfg,
	}
}

func (b *MenuBuilder) Run(userID int64) (*Menu, error) {
	user, err := b.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	menu := &Menu{
		Feeds: make(map[int64]FeedView),
		Categories: map[int64]CategoryView{
			0: {ID: 0, Name: "No category", Feeds: []int64{}},
		},
		CategoriesOrder: []int64{0},
		CrawlingMethod:  b.cfg.CrawlerType,
		MaxError:        b.cfg.FeedErrorMax,
		ErrorThreshold:  b.cfg.ErrorThreshold,
		IsAdmin:         user.IsAdmin,
		Notifications:   []notify.Notification{},
	}

	categories, err := b.categoryRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	for _, cat := range categories {
		menu.CategoriesOrder = append(menu.CategoriesOrder, cat.ID)
		menu.Categories[cat.ID] = CategoryView{ID: cat.ID, Name: cat.Name, Feeds: []int64{}}
	}

	unreadByFeed, err := b.counter.CountUnreadByFeed(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread items: %w", err)
	}

	feeds, err := b.feedRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load feeds: %w", err)
	}

	for _, feed := range feeds {
		fv := FeedView{
			ID:          feed.ID,
			Title:       feed.Title,
			Link:        feed.Link,
			SiteLink:    feed.SiteLink,
			CreatedDate: fmtDatetime(feed.CreatedAt),
			CreatedRel:  fmtRelative(feed.CreatedAt),
			ErrorCount:  feed.ErrorCount,
			AutoParse:   feed.AutoParse,
			Filters:     feed.Filters,
			Unread:      unreadByFeed[feed.ID],
		}

		if !feed.LastRetrieved.After(unixStart) {
			fv.LastRel = "Never fetched"
			fv.LastRetrieved = ""
		} else {
			fv.LastRel = fmtRelative(feed.LastRetrieved)
			fv.LastRetrieved = fmtDatetime(feed.LastRetrieved)
		}

		if fv.Filters == nil {
			fv.Filters = []string{}
		}
		if feed.IconURL != "" {
			fv.IconURL = b.icons.URL(feed.IconURL)
		}

		if feed.CategoryID != nil {
			fv.CategoryID = *feed.CategoryID
		}
		cat, ok := menu.Categories[fv.CategoryID]
		if !ok {
			// feeds pointing at a vanished category land in the bucket
			fv.CategoryID = 0
			cat = menu.Categories[0]
		}
		cat.Feeds = append(cat.Feeds, feed.ID)
		cat.Unread += fv.Unread
		menu.Categories[fv.CategoryID] = cat

		menu.AllUnreadCount += fv.Unread
		menu.Feeds[feed.ID] = fv
	}

	b.reconcileCategoryCounts(userID, menu)

	if b.notifier != nil {
		notifications, err := b.notifier.Run(userID)
		if err != nil {
			slog.Error("Failed to load notifications", "user_id", userID, "error", err)
		} else if notifications != nil {
			menu.Notifications = notifications
		}
	}

	return menu, nil
}

// reconcileCategoryCounts checks the cluster backend's independent category
// totals against the feed rollup. The rollup is what gets served; a mismatch
// means the two read models diverged and is worth a warning.
func (b *MenuBuilder) reconcileCategoryCounts(userID int64, menu *Menu) {
	if b.categoryCounter == nil {
		return
	}

	independent, err := b.categoryCounter.CountUnreadByCategory(userID)
	if err != nil {
		slog.Error("Failed to count unread by category", "user_id", userID, "error", err)
		return
	}

	for catID, cat := range menu.Categories {
		if got := independent[catID]; got != cat.Unread {
			slog.Warn("Category unread count mismatch",
				"user_id", userID,
				"category_id", catID,
				"rollup", cat.Unread,
				"independent", got)
		}
	}
}
