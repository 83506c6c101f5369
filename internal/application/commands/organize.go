package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shelver/internal/application"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// OrganizeOptions tunes one batch run
type OrganizeOptions struct {
	SelectOptions
	Workers  int  // files classified and moved in parallel; < 1 means 1
	MaxFiles int  // refuse larger batches unless Force; 0 disables
	Force    bool // ignore MaxFiles
}

// ProgressFunc is called once per finished candidate. Calls are serialized.
type ProgressFunc func(done, total int, path string)

// OrganizeCommand classifies the candidate files of a root directory, moves
// them to their destinations and journals every move
type OrganizeCommand struct {
	store      ports.FileStore
	journal    ports.Journal
	classifier *domain.Classifier
	logger     *zap.Logger
	RootDir    string
	Files      []string
	Options    OrganizeOptions

	// Risk, when set, makes Execute refuse a risky batch unless Confirmed
	Risk      *domain.RiskPolicy
	Confirmed bool

	OnProgress ProgressFunc

	now   func() time.Time
	newID func() string
}

// NewOrganizeCommand creates a new OrganizeCommand
func NewOrganizeCommand(store ports.FileStore, journal ports.Journal, classifier *domain.Classifier, rootDir string, files []string, opts OrganizeOptions) *OrganizeCommand {
	return &OrganizeCommand{
		store:      store,
		journal:    journal,
		classifier: classifier,
		logger:     zap.NewNop(),
		RootDir:    rootDir,
		Files:      files,
		Options:    opts,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// WithLogger sets the logger used for per-file events
func (c *OrganizeCommand) WithLogger(logger *zap.Logger) *OrganizeCommand {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Validate checks if the organize operation is valid
func (c *OrganizeCommand) Validate() error {
	if err := application.ValidateDirectory("rootDir", c.RootDir); err != nil {
		return err
	}
	if c.Options.MaxFiles < 0 {
		return &application.ValidationError{
			Field:   "maxFiles",
			Message: "max files must not be negative",
		}
	}
	return nil
}

// outcome is the result of handling one candidate
type outcome struct {
	done    bool
	moved   bool
	skipped bool
	record  *domain.MoveRecord
	err     error
}

// Execute runs the batch. Per-file failures are collected in the result and
// never stop the batch. When ctx is cancelled the files handled so far are
// reported together with ctx.Err().
func (c *OrganizeCommand) Execute(ctx context.Context) (*domain.OrganizeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	sel := newSelector(c.store, c.classifier, c.RootDir, c.Options.SelectOptions)
	cands, err := sel.candidates(ctx, c.Files)
	if err != nil {
		return nil, err
	}

	if limit := c.Options.MaxFiles; limit > 0 && len(cands) > limit && !c.Options.Force {
		return nil, fmt.Errorf("%w: %d candidates exceed the limit of %d", application.ErrTooManyFiles, len(cands), limit)
	}

	if c.Risk != nil && !c.Confirmed {
		if err := c.checkRisk(sel, cands); err != nil {
			return nil, err
		}
	}

	runID := c.newID()
	log := c.logger.With(zap.String("run_id", runID))
	log.Info("organize started", zap.String("root", sel.root), zap.Int("candidates", len(cands)))

	outcomes := make([]outcome, len(cands))
	var (
		progressMu sync.Mutex
		finished   int
	)
	report := func(i int) {
		if c.OnProgress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		finished++
		c.OnProgress(finished, len(cands), cands[i].file.Path)
	}

	workers := c.Options.Workers
	if workers < 1 {
		workers = 1
	}

	if workers == 1 {
		for i, cand := range cands {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = c.handle(ctx, sel, runID, cand)
			report(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, cand := range cands {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				outcomes[i] = c.handle(ctx, sel, runID, cand)
				report(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := &domain.OrganizeResult{RunID: runID}
	for i, o := range outcomes {
		if !o.done {
			continue
		}
		if o.moved {
			result.Moved++
			if o.record != nil {
				result.Records = append(result.Records, *o.record)
			}
		}
		if o.skipped {
			result.Skipped++
		}
		if o.err != nil {
			result.Errors = append(result.Errors, domain.NewFileError(cands[i].file.Path, o.err))
		}
	}

	log.Info("organize finished",
		zap.Int("moved", result.Moved),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// handle classifies and moves one candidate
func (c *OrganizeCommand) handle(ctx context.Context, sel *selector, runID string, cand candidate) outcome {
	log := c.logger.With(zap.String("path", cand.file.Path))

	if cand.err != nil {
		return outcome{done: true, skipped: true, err: cand.err}
	}

	d := sel.decide(cand.file)
	if d.err != nil {
		log.Debug("file rejected", zap.Error(d.err))
		return outcome{done: true, skipped: true, err: d.err}
	}
	if d.skip {
		log.Debug("file left in place", zap.String("reason", d.entry.Reason))
		return outcome{done: true, skipped: true}
	}

	fp, err := c.store.Fingerprint(cand.file.Path)
	if err != nil {
		return outcome{done: true, skipped: true, err: err}
	}

	final, err := c.store.Move(ctx, cand.file.Path, d.destDir)
	if err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			// Interrupted before the move started
			return outcome{}
		}
		log.Warn("move failed", zap.Error(err))
		return outcome{done: true, skipped: true, err: err}
	}

	rec := domain.MoveRecord{
		ID:          c.newID(),
		RunID:       runID,
		Source:      cand.file.Path,
		Destination: final,
		Category:    d.entry.Category,
		Timestamp:   c.now().UTC(),
		Outcome:     domain.OutcomeMoved,
		Size:        fp.Size,
		Checksum:    fp.SHA256,
	}

	// The move already happened; the journal must see it even if ctx ends
	if err := c.journal.Append(context.WithoutCancel(ctx), rec); err != nil {
		log.Error("journal append failed", zap.String("destination", final), zap.Error(err))
		return outcome{done: true, moved: true, err: fmt.Errorf("%w: %v", application.ErrJournalWrite, err)}
	}

	log.Debug("file moved", zap.String("category", rec.Category), zap.String("destination", final))
	return outcome{done: true, moved: true, record: &rec}
}

// checkRisk builds the plan for cands and refuses risky batches
func (c *OrganizeCommand) checkRisk(sel *selector, cands []candidate) error {
	var entries []domain.PlanEntry
	for _, cand := range cands {
		if cand.err != nil {
			continue
		}
		d := sel.decide(cand.file)
		if d.skip && !d.entry.Uncategorized {
			continue
		}
		entries = append(entries, d.entry)
	}

	report := c.Risk.Assess(entries)
	if !report.RequiresConfirmation {
		return nil
	}
	return fmt.Errorf("%w: %s", application.ErrConfirmationRequired, strings.Join(report.Factors, "; "))
}
