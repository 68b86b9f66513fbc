package storage

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when a stats query references a user the
// store has never seen.
var ErrUserNotFound = errors.New("user not found")

// User is a row in the users table.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	RegisteredAt time.Time
	LastActiveAt time.Time
	Downloads    int64
	Blocked      bool
}

// DownloadRecord is one attempt logged in the downloads table,
// successful or not.
type DownloadRecord struct {
	ID           int64
	UserID       int64
	Reference    string
	Title        string
	FileSize     int64
	DownloadedAt time.Time
	Success      bool
}

// UserStats is the per-user summary shown by the stats command.
type UserStats struct {
	Downloads    int64
	RegisteredAt time.Time
	LastActiveAt time.Time
}

// AdminStats is the service-wide summary shown to administrators.
type AdminStats struct {
	TotalUsers     int64
	TotalDownloads int64
	ActiveUsers7d  int64
}

// UserRepository persists per-user records and counters.
type UserRepository interface {
	RecordUser(ctx context.Context, id int64, username, firstName, lastName string) error
	IncrementDownloadCount(ctx context.Context, id int64) error
	GetUserStats(ctx context.Context, id int64) (*UserStats, error)
	GetAdminStats(ctx context.Context) (*AdminStats, error)
	IsBlocked(ctx context.Context, id int64) (bool, error)
}

// DownloadRepository persists the download log.
type DownloadRepository interface {
	LogDownload(ctx context.Context, userID int64, reference, title string, fileSize int64, success bool) error
	GetHistory(ctx context.Context, userID int64, limit int) ([]DownloadRecord, error)
}

// StatsRecorder is the narrow surface the pipeline orchestrator writes
// through. Failures here are logged and swallowed by the caller; they
// never abort a delivery.
type StatsRecorder interface {
	RecordUser(ctx context.Context, id int64, username, firstName, lastName string) error
	IncrementDownloadCount(ctx context.Context, id int64) error
	LogDownload(ctx context.Context, userID int64, reference, title string, fileSize int64, success bool) error
}

// Recorder bridges the two repositories into the single write surface
// the pipeline consumes.
type Recorder struct {
	Users     UserRepository
	Downloads DownloadRepository
}

func (r Recorder) RecordUser(ctx context.Context, id int64, username, firstName, lastName string) error {
	return r.Users.RecordUser(ctx, id, username, firstName, lastName)
}

func (r Recorder) IncrementDownloadCount(ctx context.Context, id int64) error {
	return r.Users.IncrementDownloadCount(ctx, id)
}

func (r Recorder) LogDownload(ctx context.Context, userID int64, reference, title string, fileSize int64, success bool) error {
	return r.Downloads.LogDownload(ctx, userID, reference, title, fileSize, success)
}
