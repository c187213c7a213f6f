package database

import (
	"fmt"
)

// CategoryRepositoryImpl handles database operations for categories
type CategoryRepositoryImpl struct {
	db *DB
}

var _ CategoryRepository = (*CategoryRepositoryImpl)(nil)

func NewCategoryRepository(db *DB) *CategoryRepositoryImpl {
	return &CategoryRepositoryImpl{db: db}
}

func (r *CategoryRepositoryImpl) ListByUser(userID int64) ([]Category, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, name
		FROM categories
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}
