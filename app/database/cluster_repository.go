package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pedromiglou/JARR/app/filter"
)

// ClusterRepositoryImpl is the cluster-generation read-model backend:
// articles sharing a canonical link are deduplicated into one cluster, with
// read/liked tracked on the group.
type ClusterRepositoryImpl struct {
	db *DB
}

var _ ClusterRepository = (*ClusterRepositoryImpl)(nil)

func NewClusterRepository(db *DB) *ClusterRepositoryImpl {
	return &ClusterRepositoryImpl{db: db}
}

// clusterSelect aggregates contributing feed and category ids from member
// articles; they are never stored on the cluster row.
const clusterSelect = `
	SELECT c.id, c.user_id, COALESCE(c.main_title, ''), COALESCE(c.main_feed_title, ''),
	       COALESCE(c.main_link, ''), c.main_date, c.read, c.liked,
	       agg.feeds_id, agg.categories_id
	FROM clusters c
	JOIN LATERAL (
		SELECT ARRAY_AGG(DISTINCT a2.feed_id) AS feeds_id,
		       ARRAY_REMOVE(ARRAY_AGG(DISTINCT a2.category_id), NULL) AS categories_id
		FROM articles a2
		WHERE a2.cluster_id = c.id
	) agg ON TRUE`

func scanCluster(scan func(...any) error) (*Cluster, error) {
	var c Cluster
	var feedsID, categoriesID pq.Int64Array
	err := scan(
		&c.ID, &c.UserID, &c.MainTitle, &c.MainFeedTitle,
		&c.MainLink, &c.MainDate, &c.Read, &c.Liked,
		&feedsID, &categoriesID,
	)
	if err != nil {
		return nil, err
	}
	c.FeedsID = []int64(feedsID)
	c.CategoriesID = []int64(categoriesID)
	return &c, nil
}

// ListByPredicate returns clusters matching the predicate, newest first by
// main date. A cluster matches when any member article satisfies the
// article-level constraints.
func (r *ClusterRepositoryImpl) ListByPredicate(userID int64, pred filter.Predicate, limit int) ([]Cluster, error) {
	cond, args := filter.ClusterCompiler.Compile(pred, 2)
	queryArgs := append([]any{userID}, args...)
	queryArgs = append(queryArgs, limit)

	rows, err := r.db.Query(fmt.Sprintf(clusterSelect+`
		WHERE c.user_id = $1
		  AND EXISTS (
			SELECT 1 FROM articles a
			WHERE a.cluster_id = c.id AND %s
		  )
		ORDER BY c.main_date DESC
		LIMIT $%d
	`, cond, len(queryArgs)), queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	defer rows.Close()

	var clusters []Cluster
	for rows.Next() {
		c, err := scanCluster(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster row: %w", err)
		}
		clusters = append(clusters, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cluster rows: %w", err)
	}

	return clusters, nil
}

func (r *ClusterRepositoryImpl) GetByID(userID, clusterID int64) (*Cluster, error) {
	c, err := scanCluster(r.db.QueryRow(clusterSelect+`
		WHERE c.user_id = $1 AND c.id = $2
	`, userID, clusterID).Scan)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster: %w", err)
	}

	return c, nil
}

func (r *ClusterRepositoryImpl) GetByLinkHash(userID int64, linkHash []byte) (*Cluster, error) {
	c, err := scanCluster(r.db.QueryRow(clusterSelect+`
		WHERE c.user_id = $1
		  AND EXISTS (
			SELECT 1 FROM articles a
			WHERE a.cluster_id = c.id AND a.link_hash = $2
		  )
		LIMIT 1
	`, userID, linkHash).Scan)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster by link hash: %w", err)
	}

	return c, nil
}

// CountUnreadByFeed counts unread clusters per contributing feed. A cluster
// spanning several feeds counts once for each of them.
func (r *ClusterRepositoryImpl) CountUnreadByFeed(userID int64) (map[int64]int, error) {
	rows, err := r.db.Query(`
		SELECT a.feed_id, COUNT(DISTINCT c.id)
		FROM clusters c
		JOIN articles a ON a.cluster_id = c.id AND a.user_id = c.user_id
		WHERE c.user_id = $1 AND c.read = FALSE
		GROUP BY a.feed_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread clusters by feed: %w", err)
	}
	defer rows.Close()

	return collectCounts(rows)
}

// CountUnreadByCategory is computed independently of the per-feed counts;
// uncategorized articles fall into key 0.
func (r *ClusterRepositoryImpl) CountUnreadByCategory(userID int64) (map[int64]int, error) {
	rows, err := r.db.Query(`
		SELECT COALESCE(a.category_id, 0), COUNT(DISTINCT c.id)
		FROM clusters c
		JOIN articles a ON a.cluster_id = c.id AND a.user_id = c.user_id
		WHERE c.user_id = $1 AND c.read = FALSE
		GROUP BY COALESCE(a.category_id, 0)
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread clusters by category: %w", err)
	}
	defer rows.Close()

	return collectCounts(rows)
}

func (r *ClusterRepositoryImpl) Create(c *Cluster) (int64, error) {
	var id int64
	err := r.db.QueryRow(`
		INSERT INTO clusters (user_id, main_title, main_feed_title, main_link, main_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.UserID, c.MainTitle, c.MainFeedTitle, c.MainLink, c.MainDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create cluster: %w", err)
	}
	return id, nil
}

func (r *ClusterRepositoryImpl) SetRead(userID int64, clusterIDs []int64) error {
	if len(clusterIDs) == 0 {
		return nil
	}

	_, err := r.db.Exec(`
		UPDATE clusters
		SET read = TRUE
		WHERE user_id = $1 AND id = ANY($2)
	`, userID, pq.Array(clusterIDs))
	if err != nil {
		return fmt.Errorf("failed to mark clusters read: %w", err)
	}
	return nil
}

func (r *ClusterRepositoryImpl) Refresh(userID, clusterID int64, date time.Time) error {
	_, err := r.db.Exec(`
		UPDATE clusters
		SET main_date = LEAST(main_date, $3), read = FALSE
		WHERE user_id = $1 AND id = $2
	`, userID, clusterID, date)
	if err != nil {
		return fmt.Errorf("failed to refresh cluster: %w", err)
	}
	return nil
}
