package database

import (
	"database/sql"
	"fmt"
)

// UserRepositoryImpl handles database operations for users
type UserRepositoryImpl struct {
	db *DB
}

var _ UserRepository = (*UserRepositoryImpl)(nil)

func NewUserRepository(db *DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

const userColumns = `id, login, api_key, is_admin, is_active, COALESCE(readability_key, ''),
       last_connection, created_at`

func (r *UserRepositoryImpl) scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Login, &user.APIKey, &user.IsAdmin, &user.IsActive,
		&user.ReadabilityKey, &user.LastConnection, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) GetByID(userID int64) (*User, error) {
	row := r.db.QueryRow(`
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID)
	return r.scanUser(row)
}

func (r *UserRepositoryImpl) GetByAPIKey(apiKey string) (*User, error) {
	row := r.db.QueryRow(`
		SELECT `+userColumns+`
		FROM users
		WHERE api_key = $1
	`, apiKey)
	return r.scanUser(row)
}

func (r *UserRepositoryImpl) UpdateLastConnection(userID int64) error {
	_, err := r.db.Exec(`
		UPDATE users
		SET last_connection = NOW()
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last connection: %w", err)
	}
	return nil
}
