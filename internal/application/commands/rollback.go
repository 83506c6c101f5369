package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shelver/internal/application"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// RollbackCommand reverses journaled moves, newest first
type RollbackCommand struct {
	store   ports.FileStore
	journal ports.Journal
	logger  *zap.Logger
	Since   time.Time // reverse moves at or after this instant
	RunID   string    // reverse one run
	Force   bool      // restore even when the file changed after the move

	now   func() time.Time
	newID func() string
}

// NewRollbackCommand creates a new RollbackCommand
func NewRollbackCommand(store ports.FileStore, journal ports.Journal, since time.Time, runID string, force bool) *RollbackCommand {
	return &RollbackCommand{
		store:   store,
		journal: journal,
		logger:  zap.NewNop(),
		Since:   since,
		RunID:   runID,
		Force:   force,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithLogger sets the logger used for per-record events
func (c *RollbackCommand) WithLogger(logger *zap.Logger) *RollbackCommand {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Validate checks if the rollback has a selection
func (c *RollbackCommand) Validate() error {
	if c.Since.IsZero() && c.RunID == "" {
		return &application.ValidationError{
			Field:   "since",
			Message: "a since time or a run ID is required",
		}
	}
	return nil
}

// Pending returns the moves the rollback would reverse, newest first
func (c *RollbackCommand) Pending(ctx context.Context) ([]domain.MoveRecord, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	all, err := c.journal.Records(ctx, domain.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	reverted := make(map[string]bool)
	for _, rec := range all {
		if rec.Outcome == domain.OutcomeReverted && rec.RevertsID != "" {
			reverted[rec.RevertsID] = true
		}
	}

	filter := domain.RecordFilter{Since: c.Since, RunID: c.RunID}
	var pending []domain.MoveRecord
	for _, rec := range all {
		if rec.Outcome == domain.OutcomeMoved && !reverted[rec.ID] && filter.Matches(rec) {
			pending = append(pending, rec)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Seq > pending[j].Seq
	})
	return pending, nil
}

// Execute restores every pending move. Per-record failures are collected
// and the rollback continues.
func (c *RollbackCommand) Execute(ctx context.Context) (*domain.RollbackResult, error) {
	pending, err := c.Pending(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("rollback started", zap.Int("records", len(pending)), zap.String("run_id", c.RunID))

	result := &domain.RollbackResult{}
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rev, err := c.restore(ctx, rec)
		if rev != nil {
			result.Restored++
		}
		if err != nil {
			c.logger.Warn("restore failed", zap.String("path", rec.Destination), zap.Error(err))
			result.Failed = append(result.Failed, domain.NewFileError(rec.Destination, err))
			continue
		}
		result.Records = append(result.Records, *rev)
	}

	c.logger.Info("rollback finished", zap.Int("restored", result.Restored), zap.Int("failed", len(result.Failed)))
	return result, nil
}

// restore moves one file back. A non-nil record means the file was restored,
// even when the error reports that journaling it failed.
func (c *RollbackCommand) restore(ctx context.Context, rec domain.MoveRecord) (*domain.MoveRecord, error) {
	if !c.Force && rec.Checksum != "" {
		fp, err := c.store.Fingerprint(rec.Destination)
		if err != nil {
			return nil, err
		}
		if fp.SHA256 != rec.Checksum {
			return nil, fmt.Errorf("%w: %s", application.ErrModified, rec.Destination)
		}
	}

	if err := c.store.Restore(ctx, rec.Destination, rec.Source); err != nil {
		return nil, err
	}

	rev := domain.MoveRecord{
		ID:          c.newID(),
		RunID:       rec.RunID,
		Source:      rec.Destination,
		Destination: rec.Source,
		Category:    rec.Category,
		Timestamp:   c.now().UTC(),
		Outcome:     domain.OutcomeReverted,
		RevertsID:   rec.ID,
		Size:        rec.Size,
		Checksum:    rec.Checksum,
	}
	if err := c.journal.Append(context.WithoutCancel(ctx), rev); err != nil {
		return &rev, fmt.Errorf("%w: %v", application.ErrJournalWrite, err)
	}
	return &rev, nil
}

// ParseSince reads a rollback cutoff given as RFC 3339, as a date
// (2006-01-02, local time) or as a duration back from now (90m, 2h)
func ParseSince(value string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, now.Location()); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return now.Add(-d), nil
	}
	return time.Time{}, &application.ValidationError{
		Field:   "since",
		Message: fmt.Sprintf("%q is not a time, a date or a duration", value),
	}
}
