package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteExpiredFiles(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "stale.m4a")
	require.NoError(t, os.WriteFile(oldFile, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(oldFile, time.Now().Add(-2*time.Hour), time.Now().Add(-2*time.Hour)))

	freshFile := filepath.Join(dir, "fresh.mp3")
	require.NoError(t, os.WriteFile(freshFile, []byte("x"), 0644))

	require.NoError(t, DeleteExpiredFiles(context.Background(), dir, time.Hour))

	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, freshFile)
}

func TestDeleteExpiredFiles_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.Chtimes(sub, time.Now().Add(-2*time.Hour), time.Now().Add(-2*time.Hour)))

	require.NoError(t, DeleteExpiredFiles(context.Background(), dir, time.Hour))

	assert.DirExists(t, sub)
}

func TestDeleteExpiredFiles_MissingDir(t *testing.T) {
	err := DeleteExpiredFiles(context.Background(), filepath.Join(t.TempDir(), "nope"), time.Hour)
	assert.NoError(t, err)
}
