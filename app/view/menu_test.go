package view

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/pedromiglou/JARR/app/cfg"
	"github.com/pedromiglou/JARR/app/database"
	"github.com/pedromiglou/JARR/app/icon"
	"github.com/pedromiglou/JARR/app/notify"
)

func i64p(v int64) *int64 { return &v }

func menuTestCfg() *cfg.Cfg {
	return &cfg.Cfg{
		CrawlerType:    "http",
		FeedErrorMax:   6,
		ErrorThreshold: 3,
	}
}

func buildMenuFixture() (*MenuBuilder, *fakeArticleRepo) {
	users := &fakeUserRepo{users: map[int64]*database.User{
		1: {ID: 1, Login: "alice", IsActive: true},
	}}
	categories := &fakeCategoryRepo{categories: []database.Category{
		{ID: 7, UserID: 1, Name: "Tech"},
	}}
	feeds := &fakeFeedRepo{feeds: []database.Feed{
		{ID: 1, UserID: 1, CategoryID: i64p(7), Title: "F1", LastRetrieved: time.Now()},
		{ID: 2, UserID: 1, CategoryID: i64p(7), Title: "F2", LastRetrieved: time.Now()},
		{ID: 3, UserID: 1, Title: "F3", LastRetrieved: time.Now()},
	}}
	articles := &fakeArticleRepo{}
	for i := 0; i < 3; i++ {
		articles.articles = append(articles.articles, &database.Article{
			ID: int64(i + 1), UserID: 1, FeedID: 1, CategoryID: i64p(7),
		})
	}
	articles.articles = append(articles.articles,
		&database.Article{ID: 4, UserID: 1, FeedID: 2, CategoryID: i64p(7), Read: true},
		&database.Article{ID: 5, UserID: 1, FeedID: 3},
		&database.Article{ID: 6, UserID: 1, FeedID: 3},
	)

	builder := NewMenuBuilder(users, categories, feeds, articles, nil,
		icon.NewURLBuilder(), nil, menuTestCfg())
	return builder, articles
}

func TestMenuUnreadRollup(t *testing.T) {
	builder, _ := buildMenuFixture()

	menu, err := builder.Run(1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if want := []int64{0, 7}; !reflect.DeepEqual(menu.CategoriesOrder, want) {
		t.Errorf("CategoriesOrder = %v, want %v", menu.CategoriesOrder, want)
	}
	if got := menu.Categories[7].Unread; got != 3 {
		t.Errorf("category 7 unread = %d, want 3", got)
	}
	if got := menu.Categories[0].Unread; got != 2 {
		t.Errorf("bucket category unread = %d, want 2", got)
	}
	if menu.AllUnreadCount != 5 {
		t.Errorf("AllUnreadCount = %d, want 5", menu.AllUnreadCount)
	}
	if want := []int64{1, 2}; !reflect.DeepEqual(menu.Categories[7].Feeds, want) {
		t.Errorf("category 7 feeds = %v, want %v", menu.Categories[7].Feeds, want)
	}
	if want := []int64{3}; !reflect.DeepEqual(menu.Categories[0].Feeds, want) {
		t.Errorf("bucket category feeds = %v, want %v", menu.Categories[0].Feeds, want)
	}
	if got := menu.Feeds[1].Unread; got != 3 {
		t.Errorf("feed 1 unread = %d, want 3", got)
	}
	if got := menu.Feeds[2].Unread; got != 0 {
		t.Errorf("feed 2 unread = %d, want 0", got)
	}
}

func TestMenuConfigFields(t *testing.T) {
	builder, _ := buildMenuFixture()

	menu, err := builder.Run(1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if menu.CrawlingMethod != "http" {
		t.Errorf("CrawlingMethod = %q, want %q", menu.CrawlingMethod, "http")
	}
	if menu.MaxError != 6 {
		t.Errorf("MaxError = %d, want 6", menu.MaxError)
	}
	if menu.ErrorThreshold != 3 {
		t.Errorf("ErrorThreshold = %d, want 3", menu.ErrorThreshold)
	}
	if menu.IsAdmin {
		t.Error("IsAdmin = true, want false")
	}
	if menu.Notifications == nil {
		t.Error("Notifications should be an empty slice, not nil")
	}
}

func TestMenuNeverFetched(t *testing.T) {
	users := &fakeUserRepo{users: map[int64]*database.User{1: {ID: 1}}}
	feeds := &fakeFeedRepo{feeds: []database.Feed{
		{ID: 1, UserID: 1, Title: "stale", LastRetrieved: time.Unix(0, 0)},
	}}
	builder := NewMenuBuilder(users, &fakeCategoryRepo{}, feeds, &fakeArticleRepo{},
		nil, icon.NewURLBuilder(), nil, menuTestCfg())

	menu, err := builder.Run(1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	fv := menu.Feeds[1]
	if fv.LastRel != "Never fetched" {
		t.Errorf("LastRel = %q, want %q", fv.LastRel, "Never fetched")
	}
	if fv.LastRetrieved != "" {
		t.Errorf("LastRetrieved = %q, want empty", fv.LastRetrieved)
	}
}

func TestMenuVanishedCategory(t *testing.T) {
	users := &fakeUserRepo{users: map[int64]*database.User{1: {ID: 1}}}
	feeds := &fakeFeedRepo{feeds: []database.Feed{
		{ID: 1, UserID: 1, CategoryID: i64p(99), Title: "orphan", LastRetrieved: time.Now()},
	}}
	builder := NewMenuBuilder(users, &fakeCategoryRepo{}, feeds, &fakeArticleRepo{},
		nil, icon.NewURLBuilder(), nil, menuTestCfg())

	menu, err := builder.Run(1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := menu.Feeds[1].CategoryID; got != 0 {
		t.Errorf("orphan feed category = %d, want 0", got)
	}
	if want := []int64{1}; !reflect.DeepEqual(menu.Categories[0].Feeds, want) {
		t.Errorf("bucket category feeds = %v, want %v", menu.Categories[0].Feeds, want)
	}
}

func TestMenuUnknownUser(t *testing.T) {
	builder, _ := buildMenuFixture()

	if _, err := builder.Run(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Run(42) error = %v, want ErrNotFound", err)
	}
}

func TestMenuNotifications(t *testing.T) {
	users := &fakeUserRepo{users: map[int64]*database.User{1: {ID: 1}}}
	notifier := &fakeNotifier{notifications: []notify.Notification{
		{Type: "feed_error", FeedID: 4, FeedTitle: "broken", ErrorCount: 5},
	}}
	builder := NewMenuBuilder(users, &fakeCategoryRepo{}, &fakeFeedRepo{},
		&fakeArticleRepo{}, nil, icon.NewURLBuilder(), notifier, menuTestCfg())

	menu, err := builder.Run(1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(menu.Notifications) != 1 || menu.Notifications[0].FeedID != 4 {
		t.Errorf("Notifications = %+v, want one entry for feed 4", menu.Notifications)
	}
}
