package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp/cmpopts"

	"shelver/internal/adapters/filesystem"
	"shelver/internal/domain"
)

var cmpIgnoreSeq = cmpopts.IgnoreFields(domain.MoveRecord{}, "Seq")

// memJournal is an in-memory ports.Journal
type memJournal struct {
	mu      sync.Mutex
	records []domain.MoveRecord
	failOn  func(domain.MoveRecord) bool
}

func (j *memJournal) Append(_ context.Context, rec domain.MoveRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.failOn != nil && j.failOn(rec) {
		return errors.New("disk full")
	}
	rec.Seq = int64(len(j.records) + 1)
	j.records = append(j.records, rec)
	return nil
}

func (j *memJournal) Records(_ context.Context, filter domain.RecordFilter) ([]domain.MoveRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []domain.MoveRecord
	for _, r := range j.records {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (j *memJournal) Runs(_ context.Context, limit int) ([]domain.RunSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	index := make(map[string]int)
	var runs []domain.RunSummary
	for _, r := range j.records {
		i, ok := index[r.RunID]
		if !ok {
			i = len(runs)
			index[r.RunID] = i
			runs = append(runs, domain.RunSummary{RunID: r.RunID, Started: r.Timestamp})
		}
		if r.Outcome == domain.OutcomeMoved {
			runs[i].Moved++
		} else {
			runs[i].Reverted++
		}
	}
	// newest first
	for l, r := 0, len(runs)-1; l < r; l, r = l+1, r-1 {
		runs[l], runs[r] = runs[r], runs[l]
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (j *memJournal) Close() error { return nil }

func (j *memJournal) snapshot() []domain.MoveRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.MoveRecord(nil), j.records...)
}

func setupRoot(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

// listTree returns every regular file under root as slash paths
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk %s: %v", root, err)
	}
	sort.Strings(out)
	return out
}

func defaultClassifier(t *testing.T) *domain.Classifier {
	t.Helper()
	c, err := domain.NewClassifier(domain.DefaultRules(), "", "")
	if err != nil {
		t.Fatalf("failed to build classifier: %v", err)
	}
	return c
}

// newTestOrganize wires a real filesystem store with a memJournal and
// deterministic IDs and clock
func newTestOrganize(t *testing.T, root string, journal *memJournal, files []string, opts OrganizeOptions) *OrganizeCommand {
	t.Helper()
	cmd := NewOrganizeCommand(filesystem.NewStore(domain.CollisionRename), journal, defaultClassifier(t), root, files, opts)
	cmd.newID = sequentialIDs("id")
	cmd.now = fixedClock()
	return cmd
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%03d", prefix, n.Add(1))
	}
}

func fixedClock() func() time.Time {
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
