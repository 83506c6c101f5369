package ports

import (
	"context"

	"shelver/internal/domain"
)

// Journal is the append-only log of performed moves. Implementations
// serialize Append so records keep a single causal order.
type Journal interface {
	// Append durably writes one record
	Append(ctx context.Context, rec domain.MoveRecord) error

	// Records returns matching records in insertion order with Seq set
	Records(ctx context.Context, filter domain.RecordFilter) ([]domain.MoveRecord, error)

	// Runs summarizes the most recent runs, newest first
	Runs(ctx context.Context, limit int) ([]domain.RunSummary, error)

	Close() error
}
