package sqlite

import (
	"context"
	"database/sql"

	"github.com/tunebot/tunebot/internal/storage"
	"github.com/tunebot/tunebot/internal/telemetry"
)

// InstrumentedUserRepository wraps UserRepository with telemetry.
type InstrumentedUserRepository struct {
	repo      *UserRepository
	telemetry *telemetry.Telemetry
}

func NewInstrumentedUserRepository(dbConn *sql.DB, tel *telemetry.Telemetry) *InstrumentedUserRepository {
	return &InstrumentedUserRepository{
		repo:      NewUserRepository(dbConn),
		telemetry: tel,
	}
}

func (r *InstrumentedUserRepository) RecordUser(ctx context.Context, id int64, username, firstName, lastName string) error {
	return r.telemetry.InstrumentDBOperation(ctx, "record_user", func(ctx context.Context) error {
		return r.repo.RecordUser(ctx, id, username, firstName, lastName)
	})
}

func (r *InstrumentedUserRepository) IncrementDownloadCount(ctx context.Context, id int64) error {
	return r.telemetry.InstrumentDBOperation(ctx, "increment_download_count", func(ctx context.Context) error {
		return r.repo.IncrementDownloadCount(ctx, id)
	})
}

func (r *InstrumentedUserRepository) GetUserStats(ctx context.Context, id int64) (*storage.UserStats, error) {
	var result *storage.UserStats

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(ctx, "get_user_stats", func(ctx context.Context) error {
		result, err = r.repo.GetUserStats(ctx, id)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

func (r *InstrumentedUserRepository) GetAdminStats(ctx context.Context) (*storage.AdminStats, error) {
	var result *storage.AdminStats

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(ctx, "get_admin_stats", func(ctx context.Context) error {
		result, err = r.repo.GetAdminStats(ctx)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

func (r *InstrumentedUserRepository) IsBlocked(ctx context.Context, id int64) (bool, error) {
	var result bool

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(ctx, "is_blocked", func(ctx context.Context) error {
		result, err = r.repo.IsBlocked(ctx, id)

		return err
	})

	if instrumentedErr != nil {
		return false, instrumentedErr
	}

	return result, nil
}

// InstrumentedDownloadRepository wraps DownloadRepository with telemetry.
type InstrumentedDownloadRepository struct {
	repo      *DownloadRepository
	telemetry *telemetry.Telemetry
}

func NewInstrumentedDownloadRepository(dbConn *sql.DB, tel *telemetry.Telemetry) *InstrumentedDownloadRepository {
	return &InstrumentedDownloadRepository{
		repo:      NewDownloadRepository(dbConn),
		telemetry: tel,
	}
}

func (r *InstrumentedDownloadRepository) LogDownload(ctx context.Context, userID int64, reference, title string, fileSize int64, success bool) error {
	return r.telemetry.InstrumentDBOperation(ctx, "log_download", func(ctx context.Context) error {
		return r.repo.LogDownload(ctx, userID, reference, title, fileSize, success)
	})
}

func (r *InstrumentedDownloadRepository) GetHistory(ctx context.Context, userID int64, limit int) ([]storage.DownloadRecord, error) {
	var result []storage.DownloadRecord

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(ctx, "get_history", func(ctx context.Context) error {
		result, err = r.repo.GetHistory(ctx, userID, limit)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}
