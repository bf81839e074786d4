package journal

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(ctx, Entry{
			RequestID:      "req-" + string(rune('a'+i)),
			Route:          "/api/chat",
			Status:         200,
			UpstreamStatus: 200,
			Dur:            time.Duration(i+1) * time.Millisecond,
			RequestBytes:   20,
			ResponseBytes:  400,
			At:             base.Add(time.Duration(i) * time.Second),
		}))
	}

	recent, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "req-e", recent[0].RequestID)
	assert.Equal(t, "req-c", recent[2].RequestID)
	assert.Equal(t, 5*time.Millisecond, recent[0].Dur)
	assert.True(t, recent[0].At.Equal(base.Add(4*time.Second)))
	assert.Equal(t, 400, recent[0].ResponseBytes)

	none, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRecordStampsTime(t *testing.T) {
	j := openTest(t)
	before := time.Now()
	require.NoError(t, j.Record(context.Background(), Entry{RequestID: "x", Route: "/healthz", Status: 200}))

	recent, err := j.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.False(t, recent[0].At.Before(before))
}

func TestSummary(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Route: "/api/chat", Status: 200, Dur: 100 * time.Millisecond, At: base},
		{Route: "/api/chat", Status: 500, Dur: 300 * time.Millisecond, Err: "upstream", At: base.Add(time.Minute)},
		{Route: "/api/search", Status: 200, Dur: 20 * time.Millisecond, At: base.Add(2 * time.Minute)},
		{Route: "/api/chat", Status: 200, Dur: 50 * time.Millisecond, At: base.Add(-time.Hour)},
	}
	for i, e := range entries {
		e.RequestID = string(rune('a' + i))
		require.NoError(t, j.Record(ctx, e))
	}

	all, err := j.Summary(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/api/chat", all[0].Route)
	assert.Equal(t, 3, all[0].Count)
	assert.Equal(t, 1, all[0].Errors)
	assert.Equal(t, 150*time.Millisecond, all[0].MeanDur)
	assert.Equal(t, 300*time.Millisecond, all[0].MaxDur)

	recent, err := j.Summary(ctx, base)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 2, recent[0].Count)
	assert.Equal(t, 200*time.Millisecond, recent[0].MeanDur)
	assert.Equal(t, "/api/search", recent[1].Route)
	assert.Equal(t, 0, recent[1].Errors)
}

func TestSummaryEmpty(t *testing.T) {
	j := openTest(t)
	got, err := j.Summary(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPrune(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(ctx, Entry{RequestID: "old", Route: "/api/chat", Status: 200, At: base.Add(-48 * time.Hour)}))
	require.NoError(t, j.Record(ctx, Entry{RequestID: "new", Route: "/api/chat", Status: 200, At: base}))

	n, err := j.Prune(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recent, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].RequestID)
}

func TestConcurrentRecord(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, j.Record(ctx, Entry{RequestID: "r", Route: "/api/search", Status: 200}))
		}()
	}
	wg.Wait()

	sum, err := j.Summary(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, sum, 1)
	assert.Equal(t, 20, sum[0].Count)
}

func TestInMemory(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Record(context.Background(), Entry{RequestID: "m", Route: "/api/chat", Status: 502}))
	recent, err := j.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].Failed())
}
