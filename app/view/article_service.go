package view

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pedromiglou/JARR/app/database"
	"github.com/pedromiglou/JARR/app/filter"
	"github.com/pedromiglou/JARR/app/icon"
)

// ArticleService serves the article-generation read model, where every
// article stands on its own. It predates the cluster model and answers the
// same operations so either backend can sit behind the API.
type ArticleService struct {
	articleRepo     database.ArticleRepository
	feedRepo        database.FeedRepository
	userRepo        database.UserRepository
	parser          ContentParser
	icons           *icon.URLBuilder
	notifier        NotifierInterface
	globalParserKey string
}

var _ ReadService = (*ArticleService)(nil)

func NewArticleService(articleRepo database.ArticleRepository, feedRepo database.FeedRepository,
	userRepo database.UserRepository, parser ContentParser, icons *icon.URLBuilder,
	notifier NotifierInterface, globalParserKey string) *ArticleService {
	return &ArticleService{
		articleRepo:     articleRepo,
		feedRepo:        feedRepo,
		userRepo:        userRepo,
		parser:          parser,
		icons:           icons,
		notifier:        notifier,
		globalParserKey: globalParserKey,
	}
}

func (s *ArticleService) List(userID int64, pred filter.Predicate) ([]ItemView, error) {
	articles, err := s.articleRepo.ListByPredicate(userID, pred, maxPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	views := make([]ItemView, 0, len(articles))
	for _, a := range articles {
		views = append(views, articleItemView(a))
	}
	return views, nil
}

func articleItemView(a database.Article) ItemView {
	view := ItemView{
		ID:           a.ID,
		FeedsID:      []int64{a.FeedID},
		CategoriesID: []int64{},
		MainTitle:    a.Title,
		MainLink:     a.Link,
		MainDate:     fmtDatetime(a.Date),
		MainDateRel:  fmtRelative(a.Date),
		Read:         a.Read,
		Liked:        a.Liked,
	}
	if a.CategoryID != nil {
		view.CategoriesID = []int64{*a.CategoryID}
	}
	return view
}

// GetOne fetches one article, promoting it to read on first view and
// optionally parsing its content.
func (s *ArticleService) GetOne(ctx context.Context, userID, articleID int64, parse bool, _ int64) (*ItemView, error) {
	article, err := s.articleRepo.GetByID(userID, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if article == nil {
		return nil, ErrNotFound
	}

	if !article.Read {
		if err := s.articleRepo.SetRead(userID, []int64{article.ID}); err != nil {
			return nil, fmt.Errorf("failed to promote article to read: %w", err)
		}
		article.Read = true
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

	feed, err := s.feedRepo.GetByID(userID, article.FeedID)
	if err != nil {
		return nil, fmt.Errorf("failed to load article feed: %w", err)
	}

	view := articleItemView(*article)
	if feed != nil {
		view.MainFeedTitle = feed.Title
		if feed.IconURL != "" {
			view.IconURL = s.icons.URL(feed.IconURL)
		}
	}

	autoParse := feed != nil && feed.AutoParse
	if (autoParse || (parse && available)) && !article.Parsed {
		content, parseErr := s.parser.Run(ctx, article.Link, credential)
		if parseErr != nil {
			slog.Error("Content parsing failed", "user_id", userID, "article_id", article.ID, "error", parseErr)
			view.ParseError = parseErr.Error()
		} else if err := s.articleRepo.SetParsed(userID, article.ID, content); err != nil {
			return nil, fmt.Errorf("failed to store parsed content: %w", err)
		} else {
			article.Content = content
			article.Parsed = true
		}
	}

	view.Articles = []ArticleView{articleToView(*article, available)}

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

func (s *ArticleService) MarkRead(userID, articleID int64) error {
	article, err := s.articleRepo.GetByID(userID, articleID)
	if err != nil {
		return fmt.Errorf("failed to get article: %w", err)
	}
	if article == nil {
		return ErrNotFound
	}
	if article.Read {
		return nil
	}
	return s.articleRepo.SetRead(userID, []int64{articleID})
}

// MarkAllAsRead mirrors the cluster variant: resolve first, update exactly
// the resolved set, return the pre-update views.
func (s *ArticleService) MarkAllAsRead(userID int64, pred filter.Predicate) ([]ItemView, error) {
	articles, err := s.articleRepo.ListByPredicate(userID, pred, maxPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve articles: %w", err)
	}

	views := make([]ItemView, 0, len(articles))
	ids := make([]int64, 0, len(articles))
	for _, a := range articles {
		views = append(views, articleItemView(a))
		ids = append(ids, a.ID)
	}

	if err := s.articleRepo.SetRead(userID, ids); err != nil {
		return nil, fmt.Errorf("failed to mark articles read: %w", err)
	}

	return views, nil
}
