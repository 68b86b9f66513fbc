package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tunebot/tunebot/internal/storage"
)

// UserRepository stores user records and counters in SQLite.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(dbConn *sql.DB) *UserRepository {
	return &UserRepository{db: dbConn}
}

// RecordUser inserts a new user or refreshes the display fields and
// last-activity timestamp of an existing one.
func (r *UserRepository) RecordUser(ctx context.Context, id int64, username, firstName, lastName string) error {
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_name, last_name, registered_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_active_at = excluded.last_active_at
	`, id, username, firstName, lastName, now, now)

	return err
}

// IncrementDownloadCount bumps the user's counter in a single atomic
// update; concurrent increments serialize in the store.
func (r *UserRepository) IncrementDownloadCount(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET downloads_count = downloads_count + 1, last_active_at = ?
		WHERE user_id = ?
	`, time.Now().UTC(), id)

	return err
}

func (r *UserRepository) GetUserStats(ctx context.Context, id int64) (*storage.UserStats, error) {
	var stats storage.UserStats

	err := r.db.QueryRowContext(ctx, `
		SELECT downloads_count, registered_at, last_active_at
		FROM users WHERE user_id = ?
	`, id).Scan(&stats.Downloads, &stats.RegisteredAt, &stats.LastActiveAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *UserRepository) GetAdminStats(ctx context.Context) (*storage.AdminStats, error) {
	var stats storage.AdminStats

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, err
	}

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM downloads WHERE success = TRUE`).
		Scan(&stats.TotalDownloads)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)

	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE last_active_at >= ?`, cutoff).
		Scan(&stats.ActiveUsers7d)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// IsBlocked reports whether the user has been flagged by an operator.
// Unknown users are not blocked.
func (r *UserRepository) IsBlocked(ctx context.Context, id int64) (bool, error) {
	var blocked bool

	err := r.db.QueryRowContext(ctx, `SELECT is_blocked FROM users WHERE user_id = ?`, id).Scan(&blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return blocked, nil
}
