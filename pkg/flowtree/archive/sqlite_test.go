package archive_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/flowtree/pkg/flowtree/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	// First store instance
	store1, err := archive.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.Save(record("run-1", "checkout", "WARNING", 0, "persistent")))
	require.NoError(t, store1.Close())

	// Second store instance (reopening the database)
	store2, err := archive.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	rec, err := store2.Load("run-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent"), rec.Data)
	assert.Equal(t, "WARNING", rec.Status)
	assert.True(t, epoch.Equal(rec.Started))
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := archive.NewSQLiteStore("/nonexistent/path/db.sqlite")
	assert.Error(t, err)
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	store, err := archive.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_SubSecondOrdering(t *testing.T) {
	store, err := archive.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	// Timestamps differing below the second must still sort correctly.
	require.NoError(t, store.Save(record("run-b", "r", "SUCCESS", 100*time.Millisecond, "x")))
	require.NoError(t, store.Save(record("run-a", "r", "SUCCESS", 20*time.Millisecond, "x")))
	require.NoError(t, store.Save(record("run-c", "r", "SUCCESS", time.Second, "x")))

	infos, err := store.List(archive.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a", "run-b", "run-c"}, runIDs(infos))
}

func TestSQLiteStore_Concurrent(t *testing.T) {
	store, err := archive.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	const numGoroutines = 20
	const numOps = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				runID := fmt.Sprintf("run-%d-%d", id, j%5)
				switch j % 4 {
				case 0, 1:
					_ = store.Save(record(runID, "root", "SUCCESS", time.Duration(j), "data"))
				case 2:
					_, _ = store.Load(runID)
				case 3:
					_, _ = store.List(archive.Query{Limit: 10})
				}
			}
		}(i)
	}

	wg.Wait()

	infos, err := store.List(archive.Query{})
	require.NoError(t, err)
	assert.Len(t, infos, numGoroutines*5)
}

func TestSQLiteStore_LargeData(t *testing.T) {
	store, err := archive.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	// 1MB of data
	large := make([]byte, 1024*1024)
	for i := range large {
		large[i] = byte(i % 256)
	}
	rec := record("run-1", "big", "SUCCESS", 0, "")
	rec.Data = large
	require.NoError(t, store.Save(rec))

	loaded, err := store.Load("run-1")
	require.NoError(t, err)
	assert.Equal(t, large, loaded.Data)

	infos, err := store.List(archive.Query{})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1024*1024), infos[0].Size)
}
