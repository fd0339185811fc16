package runlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/groupbalance/core/balance"
	"github.com/kilianp07/groupbalance/core/model"
)

func sampleRun(id string, at time.Time, fitness float64) *balance.Run {
	return &balance.Run{
		ID:           id,
		Seed:         17,
		Workers:      2,
		Improvements: 4,
		Started:      at,
		Duration:     2500 * time.Microsecond,
		Result: model.Result{
			Partition: model.Partition{
				{{ID: "a", Score: 1}, {ID: "b", Score: 4}},
				{{ID: "c", Score: 2}, {ID: "d", Score: 3}},
			},
			Fitness:       fitness,
			Iteration:     12,
			GlobalAverage: 2.5,
		},
	}
}

func TestNewRecord(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := NewRecord(sampleRun("r1", at, 0.5), balance.Config{GroupSize: 2, Iterations: 100}, "class.csv")
	assert.Equal(t, "r1", rec.RunID)
	assert.Equal(t, at, rec.Timestamp)
	assert.Equal(t, "class.csv", rec.Source)
	assert.Equal(t, 4, rec.RosterSize)
	assert.Equal(t, 2, rec.GroupSize)
	assert.Equal(t, 100, rec.Iterations)
	assert.Equal(t, uint64(17), rec.Seed)
	assert.Equal(t, 12, rec.BestIteration)
	assert.Equal(t, 2.5, rec.DurationMS)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, rec.Groups)
}

// exercise runs the same append/query scenario against any Store.
func exercise(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cfg := balance.Config{GroupSize: 2, Iterations: 100}
	for i, id := range []string{"r1", "r2", "r3"} {
		rec := NewRecord(sampleRun(id, base.Add(time.Duration(i)*time.Hour), float64(i)), cfg, "roster.csv")
		require.NoError(t, store.Append(ctx, rec))
	}

	all, err := store.Query(ctx, RunQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r1", all[0].RunID)

	byID, err := store.Query(ctx, RunQuery{RunID: "r2"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, 1.0, byID[0].Fitness)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, byID[0].Groups)

	window, err := store.Query(ctx, RunQuery{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "r2", window[0].RunID)
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "nested", "runs.jsonl"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exercise(t, store)
}

func TestJSONLStoreSkipsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"run_id\":\"ok\"}\n"), 0o644))
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	out, err := store.Query(context.Background(), RunQuery{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].RunID)
}

func TestRotatingJSONLStore(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exercise(t, store)
}

func TestRotatingJSONLStoreReadsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.jsonl")
	backup := filepath.Join(dir, "runs-2025-01-01T00-00-00.000.jsonl")
	require.NoError(t, os.WriteFile(backup, []byte("{\"run_id\":\"old\"}\n"), 0o644))

	store, err := NewRotatingJSONLStore(path, 1, 2, 0)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Append(context.Background(), RunRecord{RunID: "new", Timestamp: time.Now()}))

	out, err := store.Query(context.Background(), RunQuery{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "old", out[0].RunID)
	assert.Equal(t, "new", out[1].RunID)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exercise(t, store)
}

func TestAppendCancelled(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Append(ctx, RunRecord{RunID: "x"}), context.Canceled)
}
