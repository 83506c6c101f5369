package commands

import (
	"context"

	"shelver/internal/application"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// VerifyResult lists what an organize run would still do in the root
type VerifyResult struct {
	Root      string
	Checked   int
	Remaining []domain.PlanEntry // files a rule would still move
	Blocked   []domain.PlanEntry // files matching a block rule
}

// Clean reports whether nothing is left to organize
func (r *VerifyResult) Clean() bool {
	return len(r.Remaining) == 0 && len(r.Blocked) == 0
}

// VerifyCommand checks that the root holds no classifiable files
type VerifyCommand struct {
	store      ports.FileStore
	classifier *domain.Classifier
	RootDir    string
	Options    SelectOptions
}

// NewVerifyCommand creates a new VerifyCommand
func NewVerifyCommand(store ports.FileStore, classifier *domain.Classifier, rootDir string, opts SelectOptions) *VerifyCommand {
	return &VerifyCommand{
		store:      store,
		classifier: classifier,
		RootDir:    rootDir,
		Options:    opts,
	}
}

// Execute runs the verify command. Files that only the default category
// would take are not reported.
func (c *VerifyCommand) Execute(ctx context.Context) (*VerifyResult, error) {
	if err := application.ValidateDirectory("rootDir", c.RootDir); err != nil {
		return nil, err
	}

	sel := newSelector(c.store, c.classifier, c.RootDir, c.Options)
	cands, err := sel.candidates(ctx, nil)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Root: sel.root, Checked: len(cands)}
	for _, cand := range cands {
		d := sel.decide(cand.file)
		switch {
		case d.entry.Blocked:
			result.Blocked = append(result.Blocked, d.entry)
		case d.err != nil, d.skip, d.entry.Uncategorized:
		default:
			result.Remaining = append(result.Remaining, d.entry)
		}
	}
	return result, nil
}
