package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunebot/tunebot/internal/storage"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestUserRepository_RecordUserUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	require.NoError(t, repo.RecordUser(ctx, 42, "alice", "Alice", ""))
	require.NoError(t, repo.RecordUser(ctx, 42, "alice_renamed", "Alice", "A"))

	stats, err := repo.GetUserStats(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Downloads)
	assert.False(t, stats.RegisteredAt.IsZero())
	assert.False(t, stats.LastActiveAt.Before(stats.RegisteredAt))
}

func TestUserRepository_IncrementDownloadCount(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	require.NoError(t, repo.RecordUser(ctx, 7, "bob", "Bob", ""))
	require.NoError(t, repo.IncrementDownloadCount(ctx, 7))
	require.NoError(t, repo.IncrementDownloadCount(ctx, 7))

	stats, err := repo.GetUserStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Downloads)
}

func TestUserRepository_UnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.GetUserStats(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	blocked, err := repo.IsBlocked(ctx, 999)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestUserRepository_AdminStats(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	downloads := NewDownloadRepository(db)

	require.NoError(t, users.RecordUser(ctx, 1, "a", "", ""))
	require.NoError(t, users.RecordUser(ctx, 2, "b", "", ""))
	require.NoError(t, downloads.LogDownload(ctx, 1, "https://www.youtube.com/watch?v=abcdefghijk", "One", 1024, true))
	require.NoError(t, downloads.LogDownload(ctx, 2, "https://www.youtube.com/watch?v=abcdefghijk", "Two", 0, false))

	stats, err := users.GetAdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalDownloads, "failed attempts don't count")
	assert.Equal(t, int64(2), stats.ActiveUsers7d)
}

func TestDownloadRepository_History(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	downloads := NewDownloadRepository(db)

	require.NoError(t, users.RecordUser(ctx, 5, "carol", "", ""))

	for _, title := range []string{"First", "Second", "Third"} {
		require.NoError(t, downloads.LogDownload(ctx, 5, "ref", title, 100, true))
	}

	history, err := downloads.GetHistory(ctx, 5, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Success)
	assert.Equal(t, int64(5), history[0].UserID)

	empty, err := downloads.GetHistory(ctx, 6, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
