package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelver/internal/config"
	"shelver/internal/domain"
)

func openTestJournal(t testing.TB) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, "/root/inbox")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j, path
}

func record(id, run string, ts time.Time, outcome domain.Outcome) domain.MoveRecord {
	return domain.MoveRecord{
		ID:          id,
		RunID:       run,
		Source:      "/root/inbox/" + id + ".txt",
		Destination: "/root/inbox/Data/temp/" + id + ".txt",
		Category:    "temp",
		Timestamp:   ts,
		Outcome:     outcome,
		Size:        42,
		Checksum:    "abc123",
	}
}

func TestJournal_AppendAndRecords(t *testing.T) {
	j, _ := openTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r1 := record("a", "run1", base, domain.OutcomeMoved)
	r2 := record("b", "run1", base.Add(time.Minute), domain.OutcomeMoved)
	r3 := record("c", "run2", base.Add(2*time.Minute), domain.OutcomeMoved)
	undo := record("d", "run1", base.Add(3*time.Minute), domain.OutcomeReverted)
	undo.RevertsID = "a"

	for _, r := range []domain.MoveRecord{r1, r2, r3, undo} {
		require.NoError(t, j.Append(ctx, r))
	}

	all, err := j.Records(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	want := []domain.MoveRecord{r1, r2, r3, undo}
	if diff := cmp.Diff(want, all, cmpopts.IgnoreFields(domain.MoveRecord{}, "Seq")); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Seq, all[i-1].Seq, "seq must follow insertion order")
	}

	since, err := j.Records(ctx, domain.RecordFilter{Since: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.Len(t, since, 3)
	assert.Equal(t, "b", since[0].ID)

	byRun, err := j.Records(ctx, domain.RecordFilter{RunID: "run1"})
	require.NoError(t, err)
	assert.Len(t, byRun, 3)
}

func TestJournal_DuplicateIDRejected(t *testing.T) {
	j, _ := openTestJournal(t)
	ctx := context.Background()

	rec := record("a", "run1", time.Now(), domain.OutcomeMoved)
	require.NoError(t, j.Append(ctx, rec))
	assert.Error(t, j.Append(ctx, rec))
}

func TestJournal_Runs(t *testing.T) {
	j, _ := openTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Append(ctx, record("a", "run1", base, domain.OutcomeMoved)))
	require.NoError(t, j.Append(ctx, record("b", "run1", base.Add(time.Second), domain.OutcomeMoved)))
	require.NoError(t, j.Append(ctx, record("c", "run2", base.Add(time.Hour), domain.OutcomeMoved)))
	require.NoError(t, j.Append(ctx, record("d", "run1", base.Add(2*time.Hour), domain.OutcomeReverted)))

	runs, err := j.Runs(ctx, 0)
	require.NoError(t, err)
	want := []domain.RunSummary{
		{RunID: "run2", Started: base.Add(time.Hour), Moved: 1},
		{RunID: "run1", Started: base, Moved: 2, Reverted: 1},
	}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	limited, err := j.Runs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestJournal_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	ctx := context.Background()

	j, err := Open(path, "/root/inbox")
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, record("a", "run1", time.Now(), domain.OutcomeMoved)))
	require.NoError(t, j.Close())

	j, err = Open(path, "/root/inbox")
	require.NoError(t, err)
	defer j.Close()

	recs, err := j.Records(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].ID)
}

func TestJournal_ConcurrentAppends(t *testing.T) {
	j, _ := openTestJournal(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, j.Append(ctx, record(fmt.Sprintf("r%02d", i), "run", time.Now(), domain.OutcomeMoved)))
		}(i)
	}
	wg.Wait()

	recs, err := j.Records(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 20)
}

// BenchmarkAppend measures one durable append
func BenchmarkAppend(b *testing.B) {
	j, _ := openTestJournal(b)
	ctx := context.Background()
	now := time.Now()

	i := 0
	for b.Loop() {
		if err := j.Append(ctx, record(fmt.Sprintf("r%d", i), "bench", now, domain.OutcomeMoved)); err != nil {
			b.Fatalf("append failed: %v", err)
		}
		i++
	}
}

func TestJournal_MetaRecordsRoot(t *testing.T) {
	j, path := openTestJournal(t)

	meta := map[string]string{}
	rows, err := j.db.Query(`SELECT key, value FROM meta`)
	require.NoError(t, err)
	for rows.Next() {
		var k, v string
		require.NoError(t, rows.Scan(&k, &v))
		meta[k] = v
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	want := map[string]string{
		"schema_version": schemaVersion,
		"root_hash":      config.HashRoot("/root/inbox"),
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, j.Close())
	other, err := Open(path, "/root/elsewhere")
	if other != nil {
		other.Close()
	}
	assert.ErrorIs(t, err, ErrRootMismatch)

	same, err := Open(path, "/root/inbox")
	require.NoError(t, err)
	assert.NoError(t, same.Close())
}
