package commands

import (
	"context"

	"shelver/internal/application"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// PlanCommand classifies every candidate without touching the filesystem
type PlanCommand struct {
	store      ports.FileStore
	classifier *domain.Classifier
	RootDir    string
	Files      []string
	Options    SelectOptions
	Risk       domain.RiskPolicy
}

// NewPlanCommand creates a new PlanCommand
func NewPlanCommand(store ports.FileStore, classifier *domain.Classifier, rootDir string, files []string, opts SelectOptions, risk domain.RiskPolicy) *PlanCommand {
	return &PlanCommand{
		store:      store,
		classifier: classifier,
		RootDir:    rootDir,
		Files:      files,
		Options:    opts,
		Risk:       risk,
	}
}

// Validate checks if the plan can be built
func (c *PlanCommand) Validate() error {
	return application.ValidateDirectory("rootDir", c.RootDir)
}

// Execute builds the plan. Files that would be left in place for being
// already organized are omitted.
func (c *PlanCommand) Execute(ctx context.Context) (*domain.Plan, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	sel := newSelector(c.store, c.classifier, c.RootDir, c.Options)
	cands, err := sel.candidates(ctx, c.Files)
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{Root: sel.root}
	for _, cand := range cands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cand.err != nil {
			plan.Errors = append(plan.Errors, domain.NewFileError(cand.file.Path, cand.err))
			continue
		}

		d := sel.decide(cand.file)
		if d.skip && !d.entry.Uncategorized {
			continue
		}
		if d.err != nil && !d.entry.Blocked {
			plan.Errors = append(plan.Errors, domain.NewFileError(cand.file.Path, d.err))
			continue
		}
		plan.Entries = append(plan.Entries, d.entry)
	}

	plan.Risk = c.Risk.Assess(plan.Entries)
	return plan, nil
}
