package diskmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectOldestOrdersByModTime(t *testing.T) {
	t.Parallel()

	now := time.Now()
	files := []FileInfo{
		{Path: "newest.jpg", Size: 100, ModTime: now},
		{Path: "oldest.jpg", Size: 100, ModTime: now.Add(-time.Hour)},
		{Path: "middle.jpg", Size: 100, ModTime: now.Add(-30 * time.Minute)},
	}

	selected := SelectOldest(files, 150)

	require.Len(t, selected, 2)
	assert.Equal(t, "oldest.jpg", selected[0].Path)
	assert.Equal(t, "middle.jpg", selected[1].Path)
}

func TestSelectOldestStopsAtTarget(t *testing.T) {
	t.Parallel()

	now := time.Now()
	files := []FileInfo{
		{Path: "a", Size: 500, ModTime: now.Add(-3 * time.Hour)},
		{Path: "b", Size: 500, ModTime: now.Add(-2 * time.Hour)},
		{Path: "c", Size: 500, ModTime: now.Add(-1 * time.Hour)},
	}

	assert.Len(t, SelectOldest(files, 500), 1)
	assert.Len(t, SelectOldest(files, 501), 2)
	assert.Empty(t, SelectOldest(files, 0))
}

func TestSelectOldestDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	now := time.Now()
	files := []FileInfo{
		{Path: "new", Size: 1, ModTime: now},
		{Path: "old", Size: 1, ModTime: now.Add(-time.Hour)},
	}

	SelectOldest(files, 10)

	assert.Equal(t, "new", files[0].Path)
}

func TestUsageBasedCleanupBelowThreshold(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// A threshold of 100% can never be exceeded, so nothing is removed.
	result, err := UsageBasedCleanup(dir, []string{dir}, 100, false)
	require.NoError(t, err)
	assert.Zero(t, result.Removed)
}
