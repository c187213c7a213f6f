package view

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pedromiglou/JARR/app/database"
	"github.com/pedromiglou/JARR/app/filter"
	"github.com/pedromiglou/JARR/app/icon"
)

// ClusterService serves the deduplicated read model: one item per cluster of
// articles sharing a canonical link.
type ClusterService struct {
	clusterRepo     database.ClusterRepository
	articleRepo     database.ArticleRepository
	feedRepo        database.FeedRepository
	userRepo        database.UserRepository
	parser          ContentParser
	icons           *icon.URLBuilder
	notifier        NotifierInterface
	globalParserKey string
}

var _ ReadService = (*ClusterService)(nil)

func NewClusterService(clusterRepo database.ClusterRepository, articleRepo database.ArticleRepository,
	feedRepo database.FeedRepository, userRepo database.UserRepository,
	parser ContentParser, icons *icon.URLBuilder, notifier NotifierInterface,
	globalParserKey string) *ClusterService {
	return &ClusterService{
		clusterRepo:     clusterRepo,
		articleRepo:     articleRepo,
		feedRepo:        feedRepo,
		userRepo:        userRepo,
		parser:          parser,
		icons:           icons,
		notifier:        notifier,
		globalParserKey: globalParserKey,
	}
}

func (s *ClusterService) List(userID int64, pred filter.Predicate) ([]ItemView, error) {
	clusters, err := s.clusterRepo.ListByPredicate(userID, pred, maxPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}

	views := make([]ItemView, 0, len(clusters))
	for _, c := range clusters {
		views = append(views, clusterToView(c))
	}
	return views, nil
}

func clusterToView(c database.Cluster) ItemView {
	view := ItemView{
		ID:            c.ID,
		FeedsID:       c.FeedsID,
		CategoriesID:  c.CategoriesID,
		MainFeedTitle: c.MainFeedTitle,
		MainTitle:     c.MainTitle,
		MainLink:      c.MainLink,
		MainDate:      fmtDatetime(c.MainDate),
		MainDateRel:   fmtRelative(c.MainDate),
		Read:          c.Read,
		Liked:         c.Liked,
	}
	if view.FeedsID == nil {
		view.FeedsID = []int64{}
	}
	if view.CategoriesID == nil {
		view.CategoriesID = []int64{}
	}
	return view
}

// GetOne fetches one cluster with its member articles. Reading an unread
// cluster promotes it to read, and content parsing runs when the owning feed
// auto-parses or the caller asked for it with a credential available.
func (s *ClusterService) GetOne(ctx context.Context, userID, clusterID int64, parse bool, articleID int64) (*ItemView, error) {
	cluster, err := s.clusterRepo.GetByID(userID, clusterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster: %w", err)
	}
	if cluster == nil {
		return nil, ErrNotFound
	}

	if !cluster.Read {
		if err := s.clusterRepo.SetRead(userID, []int64{cluster.ID}); err != nil {
			return nil, fmt.Errorf("failed to promote cluster to read: %w", err)
		}
		cluster.Read = true
	}

	view := clusterToView(*cluster)

	articles, err := s.articleRepo.ListByCluster(userID, clusterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster articles: %w", err)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	credential := user.ReadabilityKey
	if credential == "" {
		credential = s.globalParserKey
	}
	available := credential != ""

	var feed *database.Feed
	if len(cluster.FeedsID) > 0 {
		feed, err = s.feedRepo.GetByID(userID, cluster.FeedsID[0])
		if err != nil {
			return nil, fmt.Errorf("failed to load cluster feed: %w", err)
		}
	}
	if feed != nil && feed.IconURL != "" {
		view.IconURL = s.icons.URL(feed.IconURL)
	}

	autoParse := feed != nil && feed.AutoParse
	if autoParse || (parse && available) {
		target := pickParseTarget(articles, articleID)
		if target != nil && !target.Parsed {
			content, parseErr := s.parser.Run(ctx, target.Link, credential)
			if parseErr != nil {
				slog.Error("Content parsing failed", "user_id", userID, "article_id", target.ID, "error", parseErr)
				view.ParseError = parseErr.Error()
			} else if err := s.articleRepo.SetParsed(userID, target.ID, content); err != nil {
				return nil, fmt.Errorf("failed to store parsed content: %w", err)
			} else {
				target.Content = content
				target.Parsed = true
			}
		}
	}

	view.Articles = make([]ArticleView, 0, len(articles))
	for i := range articles {
		view.Articles = append(view.Articles, articleToView(articles[i], available))
	}

	if s.notifier != nil {
		notifications, err := s.notifier.Run(userID)
		if err != nil {
			slog.Error("Failed to load notifications", "user_id", userID, "error", err)
		} else {
			view.Notifications = notifications
		}
	}

	return &view, nil
}

// pickParseTarget selects the article to parse: the explicitly requested one
// or the cluster's first (main) article.
func pickParseTarget(articles []database.Article, articleID int64) *database.Article {
	if len(articles) == 0 {
		return nil
	}
	if articleID != 0 {
		for i := range articles {
			if articles[i].ID == articleID {
				return &articles[i]
			}
		}
		return nil
	}
	return &articles[0]
}

func articleToView(a database.Article, readabilityAvailable bool) ArticleView {
	view := ArticleView{
		ID:                   a.ID,
		FeedID:               a.FeedID,
		Title:                a.Title,
		Content:              a.Content,
		Link:                 a.Link,
		Date:                 fmtDatetime(a.Date),
		DateRel:              fmtRelative(a.Date),
		Read:                 a.Read,
		Liked:                a.Liked,
		Parsed:               a.Parsed,
		ReadabilityAvailable: readabilityAvailable,
	}
	if a.CategoryID != nil {
		view.CategoryID = *a.CategoryID
	}
	return view
}

func (s *ClusterService) MarkRead(userID, clusterID int64) error {
	cluster, err := s.clusterRepo.GetByID(userID, clusterID)
	if err != nil {
		return fmt.Errorf("failed to get cluster: %w", err)
	}
	if cluster == nil {
		return ErrNotFound
	}
	if cluster.Read {
		return nil
	}
	return s.clusterRepo.SetRead(userID, []int64{clusterID})
}

// MarkAllAsRead resolves the predicate to a concrete item list first, marks
// exactly those items read, and returns the pre-update views so clients see
// what changed.
func (s *ClusterService) MarkAllAsRead(userID int64, pred filter.Predicate) ([]ItemView, error) {
	clusters, err := s.clusterRepo.ListByPredicate(userID, pred, maxPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve clusters: %w", err)
	}

	views := make([]ItemView, 0, len(clusters))
	ids := make([]int64, 0, len(clusters))
	for _, c := range clusters {
		views = append(views, clusterToView(c))
		ids = append(ids, c.ID)
	}

	if err := s.clusterRepo.SetRead(userID, ids); err != nil {
		return nil, fmt.Errorf("failed to mark clusters read: %w", err)
	}

	return views, nil
}
