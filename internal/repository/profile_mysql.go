package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MySQLProfileRepository implements ProfileRepository using MySQL.
// User profiles live in the main application database alongside accounts.
type MySQLProfileRepository struct {
	db *sql.DB
}

// NewMySQLProfileRepository creates a new MySQL profile repository.
func NewMySQLProfileRepository(db *sql.DB) *MySQLProfileRepository {
	return &MySQLProfileRepository{db: db}
}

// GetBGGUsername returns the user's saved BGG username, or "" when the
// user has no profile row or never configured one.
func (r *MySQLProfileRepository) GetBGGUsername(ctx context.Context, userID int64) (string, error) {
	query := `SELECT bgg_username FROM user_profiles WHERE user_id = ? LIMIT 1`

	var username sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get bgg username: %w", err)
	}

	return strings.TrimSpace(username.String), nil
}

// SaveBGGUsername stores the user's BGG username.
func (r *MySQLProfileRepository) SaveBGGUsername(ctx context.Context, userID int64, username string) error {
	query := `
		INSERT INTO user_profiles (user_id, bgg_username)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE bgg_username = VALUES(bgg_username)`

	_, err := r.db.ExecContext(ctx, query, userID, strings.TrimSpace(username))
	if err != nil {
		return fmt.Errorf("failed to save bgg username: %w", err)
	}
	return nil
}

// Ensure MySQLProfileRepository implements ProfileRepository
var _ ProfileRepository = (*MySQLProfileRepository)(nil)
