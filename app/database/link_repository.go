package database

import (
	"fmt"
)

// LinkRepositoryImpl handles database operations for content-addressed links
type LinkRepositoryImpl struct {
	db *DB
}

var _ LinkRepository = (*LinkRepositoryImpl)(nil)

func NewLinkRepository(db *DB) *LinkRepositoryImpl {
	return &LinkRepositoryImpl{db: db}
}

func (r *LinkRepositoryImpl) Upsert(l *Link) error {
	_, err := r.db.Exec(`
		INSERT INTO links (user_id, link_hash, link, content_type, link_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, link_hash) DO NOTHING
	`, l.UserID, l.LinkHash, l.Link, l.ContentType, string(l.LinkType))
	if err != nil {
		return fmt.Errorf("failed to upsert link: %w", err)
	}
	return nil
}

// Attach records the article-to-link membership in the join table keyed by
// (user_id, article_id, link_hash).
func (r *LinkRepositoryImpl) Attach(userID, articleID int64, linkHash []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO link_by_article_id (user_id, article_id, link_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, userID, articleID, linkHash)
	if err != nil {
		return fmt.Errorf("failed to attach link to article: %w", err)
	}
	return nil
}
