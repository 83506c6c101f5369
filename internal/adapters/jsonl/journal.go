package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"shelver/internal/domain"
	"shelver/internal/ports"
)

const lockRetryDelay = 25 * time.Millisecond

// Journal implements ports.Journal as a newline-delimited JSON file. Each
// append opens the file with O_APPEND, writes one line and fsyncs, holding
// an exclusive flock so separate processes never interleave lines.
type Journal struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// Ensure Journal implements Journal
var _ ports.Journal = (*Journal)(nil)

// Open prepares the journal at path; the file is created on first append
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	return &Journal{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the journal file
func (j *Journal) Path() string {
	return j.path
}

// Append writes one record as a single line
func (j *Journal) Append(ctx context.Context, rec domain.MoveRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	locked, err := j.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock journal: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock journal: %s", j.lock.Path())
	}
	defer j.lock.Unlock()

	f, err := os.OpenFile(j.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	if err := trimTornTail(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to repair journal: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to append record %s: %w", rec.ID, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync journal: %w", err)
	}
	return f.Close()
}

// trimTornTail cuts a trailing partial line left by a crashed writer, so
// the next append starts on a line of its own
func trimTornTail(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}

	// Scan back for the end of the last whole line
	buf := make([]byte, 4096)
	end := size
	for end > 0 {
		start := end - int64(len(buf))
		if start < 0 {
			start = 0
		}
		chunk := buf[:end-start]
		if _, err := f.ReadAt(chunk, start); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			return f.Truncate(start + int64(i) + 1)
		}
		end = start
	}
	return f.Truncate(0)
}

// Records returns matching records in file order. A trailing line without
// a newline is a torn write from a crashed process and is ignored.
func (j *Journal) Records(ctx context.Context, filter domain.RecordFilter) ([]domain.MoveRecord, error) {
	all, err := j.readAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.MoveRecord
	for _, rec := range all {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Runs summarizes runs, newest first. limit <= 0 returns all runs.
func (j *Journal) Runs(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	all, err := j.readAll(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct {
		domain.RunSummary
		firstSeq int64
	}
	byRun := make(map[string]*agg)
	for _, rec := range all {
		a, ok := byRun[rec.RunID]
		if !ok {
			a = &agg{RunSummary: domain.RunSummary{RunID: rec.RunID, Started: rec.Timestamp}, firstSeq: rec.Seq}
			byRun[rec.RunID] = a
		}
		if rec.Timestamp.Before(a.Started) {
			a.Started = rec.Timestamp
		}
		switch rec.Outcome {
		case domain.OutcomeMoved:
			a.Moved++
		case domain.OutcomeReverted:
			a.Reverted++
		}
	}

	aggs := make([]*agg, 0, len(byRun))
	for _, a := range byRun {
		aggs = append(aggs, a)
	}
	sort.Slice(aggs, func(i, k int) bool {
		return aggs[i].firstSeq > aggs[k].firstSeq
	})
	if limit > 0 && len(aggs) > limit {
		aggs = aggs[:limit]
	}

	runs := make([]domain.RunSummary, len(aggs))
	for i, a := range aggs {
		runs[i] = a.RunSummary
	}
	return runs, nil
}

// Close releases the lock file handle
func (j *Journal) Close() error {
	return j.lock.Close()
}

func (j *Journal) readAll(ctx context.Context) ([]domain.MoveRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	locked, err := j.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock journal: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock journal: %s", j.lock.Path())
	}
	defer j.lock.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var (
		records []domain.MoveRecord
		seq     int64
		r       = bufio.NewReader(f)
	)
	for {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// Anything left without a newline is an incomplete write
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read journal: %w", err)
		}

		seq++
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var rec domain.MoveRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("corrupt journal line %d: %w", seq, err)
		}
		rec.Seq = seq
		records = append(records, rec)
	}
	return records, nil
}
