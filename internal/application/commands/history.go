package commands

import (
	"context"
	"fmt"

	"shelver/internal/application"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// HistoryResult contains recent runs, and the records of one run when asked
type HistoryResult struct {
	Runs    []domain.RunSummary
	Records []domain.MoveRecord
}

// HistoryCommand lists journaled runs
type HistoryCommand struct {
	journal ports.Journal
	Limit   int
	RunID   string
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(journal ports.Journal, limit int, runID string) *HistoryCommand {
	return &HistoryCommand{
		journal: journal,
		Limit:   limit,
		RunID:   runID,
	}
}

// Execute runs the history command
func (c *HistoryCommand) Execute(ctx context.Context) (*HistoryResult, error) {
	if c.RunID != "" {
		records, err := c.journal.Records(ctx, domain.RecordFilter{RunID: c.RunID})
		if err != nil {
			return nil, fmt.Errorf("failed to read journal: %w", err)
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("run %s: %w", c.RunID, application.ErrNotFound)
		}
		return &HistoryResult{Records: records}, nil
	}

	runs, err := c.journal.Runs(ctx, c.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return &HistoryResult{Runs: runs}, nil
}

// LastRun returns the most recent run, or ErrNotFound when the journal is empty
func LastRun(ctx context.Context, journal ports.Journal) (domain.RunSummary, error) {
	runs, err := journal.Runs(ctx, 1)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("failed to read journal: %w", err)
	}
	if len(runs) == 0 {
		return domain.RunSummary{}, fmt.Errorf("no runs recorded: %w", application.ErrNotFound)
	}
	return runs[0], nil
}
