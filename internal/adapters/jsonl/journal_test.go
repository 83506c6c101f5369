package jsonl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelver/internal/domain"
)

func record(id, run string, ts time.Time, outcome domain.Outcome) domain.MoveRecord {
	return domain.MoveRecord{
		ID:          id,
		RunID:       run,
		Source:      "/inbox/" + id + ".txt",
		Destination: "/inbox/Data/temp/" + id + ".txt",
		Category:    "temp",
		Timestamp:   ts,
		Outcome:     outcome,
		Size:        7,
		Checksum:    "feed",
	}
}

func TestJournal_AppendAndRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "journal.jsonl")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	base := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

	empty, err := j.Records(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	r1 := record("a", "run1", base, domain.OutcomeMoved)
	r2 := record("b", "run2", base.Add(time.Hour), domain.OutcomeMoved)
	require.NoError(t, j.Append(ctx, r1))
	require.NoError(t, j.Append(ctx, r2))

	got, err := j.Records(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	if diff := cmp.Diff([]domain.MoveRecord{r1, r2}, got, cmpopts.IgnoreFields(domain.MoveRecord{}, "Seq")); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(2), got[1].Seq)

	since, err := j.Records(ctx, domain.RecordFilter{Since: base.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "b", since[0].ID)
}

func TestJournal_IgnoresTornTrailingLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Append(ctx, record("a", "run1", time.Now(), domain.OutcomeMoved)))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"b","run_id":"ru`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	recs, err := j.Records(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].ID)

	// The next append drops the fragment instead of extending it
	require.NoError(t, j.Append(ctx, record("c", "run2", time.Now(), domain.OutcomeMoved)))
	recs, err = j.Records(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "c", recs[1].ID)
	assert.Equal(t, int64(2), recs[1].Seq)
}

func TestJournal_AppendAfterTornOnlyLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"x"`), 0644))

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Append(ctx, record("a", "run1", time.Now(), domain.OutcomeMoved)))
	recs, err := j.Records(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].ID)
}

func TestJournal_CorruptLineIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0644))

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	_, err = j.Records(context.Background(), domain.RecordFilter{})
	assert.ErrorContains(t, err, "corrupt journal line 1")
}

func TestJournal_Runs(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.jsonl"))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	base := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, j.Append(ctx, record("a", "run1", base, domain.OutcomeMoved)))
	require.NoError(t, j.Append(ctx, record("b", "run2", base.Add(time.Hour), domain.OutcomeMoved)))
	require.NoError(t, j.Append(ctx, record("c", "run1", base.Add(2*time.Hour), domain.OutcomeReverted)))

	runs, err := j.Runs(ctx, 0)
	require.NoError(t, err)
	want := []domain.RunSummary{
		{RunID: "run2", Started: base.Add(time.Hour), Moved: 1},
		{RunID: "run1", Started: base, Moved: 1, Reverted: 1},
	}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	one, err := j.Runs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "run2", one[0].RunID)
}

func TestJournal_TwoWritersKeepLinesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, a.Append(ctx, record(fmt.Sprintf("a%02d", i), "runA", time.Now(), domain.OutcomeMoved)))
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, b.Append(ctx, record(fmt.Sprintf("b%02d", i), "runB", time.Now(), domain.OutcomeMoved)))
		}(i)
	}
	wg.Wait()

	recs, err := a.Records(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 50)
}
