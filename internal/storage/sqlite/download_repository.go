package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tunebot/tunebot/internal/storage"
)

// DownloadRepository stores the per-attempt download log in SQLite.
type DownloadRepository struct {
	db *sql.DB
}

func NewDownloadRepository(dbConn *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: dbConn}
}

// LogDownload records one attempt, successful or not.
func (r *DownloadRepository) LogDownload(ctx context.Context, userID int64, reference, title string, fileSize int64, success bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO downloads (user_id, reference, title, file_size, downloaded_at, success)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, reference, title, fileSize, time.Now().UTC(), success)

	return err
}

// GetHistory returns the user's most recent attempts, newest first.
func (r *DownloadRepository) GetHistory(ctx context.Context, userID int64, limit int) ([]storage.DownloadRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, reference, title, file_size, downloaded_at, success
		FROM downloads
		WHERE user_id = ?
		ORDER BY downloaded_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var records []storage.DownloadRecord

	for rows.Next() {
		var rec storage.DownloadRecord

		var title sql.NullString

		err := rows.Scan(&rec.ID, &rec.UserID, &rec.Reference, &title, &rec.FileSize, &rec.DownloadedAt, &rec.Success)
		if err != nil {
			return nil, err
		}

		if title.Valid {
			rec.Title = title.String
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}
