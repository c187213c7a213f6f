package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pedromiglou/JARR/app/filter"
)

// ArticleRepositoryImpl is the article-generation read-model backend: every
// article is listed on its own, without cluster deduplication.
type ArticleRepositoryImpl struct {
	db *DB
}

var _ ArticleRepository = (*ArticleRepositoryImpl)(nil)

func NewArticleRepository(db *DB) *ArticleRepositoryImpl {
	return &ArticleRepositoryImpl{db: db}
}

const articleColumns = `a.id, a.user_id, a.feed_id, a.category_id, a.cluster_id, a.guid,
       COALESCE(a.link, ''), a.link_hash, COALESCE(a.title, ''), COALESCE(a.content, ''),
       a.date, a.read, a.liked, a.parsed, a.created_at`

func scanArticle(scan func(...any) error) (*Article, error) {
	var a Article
	err := scan(
		&a.ID, &a.UserID, &a.FeedID, &a.CategoryID, &a.ClusterID, &a.GUID,
		&a.Link, &a.LinkHash, &a.Title, &a.Content,
		&a.Date, &a.Read, &a.Liked, &a.Parsed, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *ArticleRepositoryImpl) ListByPredicate(userID int64, pred filter.Predicate, limit int) ([]Article, error) {
	cond, args := filter.ArticleCompiler.Compile(pred, 2)
	queryArgs := append([]any{userID}, args...)
	queryArgs = append(queryArgs, limit)

	rows, err := r.db.Query(fmt.Sprintf(`
		SELECT `+articleColumns+`
		FROM articles a
		WHERE a.user_id = $1 AND %s
		ORDER BY a.date DESC
		LIMIT $%d
	`, cond, len(queryArgs)), queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (r *ArticleRepositoryImpl) ListByCluster(userID, clusterID int64) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles a
		WHERE a.user_id = $1 AND a.cluster_id = $2
		ORDER BY a.date
	`, userID, clusterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cluster articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (r *ArticleRepositoryImpl) GetByID(userID, articleID int64) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(`
		SELECT `+articleColumns+`
		FROM articles a
		WHERE a.user_id = $1 AND a.id = $2
	`, userID, articleID).Scan)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return a, nil
}

func (r *ArticleRepositoryImpl) GetByGUID(userID, feedID int64, guid string) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(`
		SELECT `+articleColumns+`
		FROM articles a
		WHERE a.user_id = $1 AND a.feed_id = $2 AND a.guid = $3
	`, userID, feedID, guid).Scan)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by GUID: %w", err)
	}

	return a, nil
}

// CountUnreadByFeed recomputes unread counts on every call; the menu view
// derives category totals from this map so the two can never disagree.
func (r *ArticleRepositoryImpl) CountUnreadByFeed(userID int64) (map[int64]int, error) {
	rows, err := r.db.Query(`
		SELECT feed_id, COUNT(*)
		FROM articles
		WHERE user_id = $1 AND read = FALSE
		GROUP BY feed_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread articles: %w", err)
	}
	defer rows.Close()

	return collectCounts(rows)
}

func collectCounts(rows *sql.Rows) (map[int64]int, error) {
	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[id] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}

	return counts, nil
}

func (r *ArticleRepositoryImpl) Create(a *Article) (int64, error) {
	var id int64
	err := r.db.QueryRow(`
		INSERT INTO articles (user_id, feed_id, category_id, cluster_id, guid, link, link_hash, title, content, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, a.UserID, a.FeedID, a.CategoryID, a.ClusterID, a.GUID, a.Link, a.LinkHash,
		a.Title, a.Content, a.Date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create article: %w", err)
	}
	return id, nil
}

func (r *ArticleRepositoryImpl) SetRead(userID int64, articleIDs []int64) error {
	if len(articleIDs) == 0 {
		return nil
	}

	_, err := r.db.Exec(`
		UPDATE articles
		SET read = TRUE
		WHERE user_id = $1 AND id = ANY($2)
	`, userID, pq.Array(articleIDs))
	if err != nil {
		return fmt.Errorf("failed to mark articles read: %w", err)
	}
	return nil
}

func (r *ArticleRepositoryImpl) SetParsed(userID, articleID int64, content string) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET content = $3, parsed = TRUE
		WHERE user_id = $1 AND id = $2
	`, userID, articleID, content)
	if err != nil {
		return fmt.Errorf("failed to store parsed content: %w", err)
	}
	return nil
}
