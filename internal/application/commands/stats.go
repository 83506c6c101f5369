package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"shelver/internal/application"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// StatsResult counts files per destination
type StatsResult struct {
	Root         string
	Loose        int // files still directly in the root
	Destinations []domain.DestinationStat
}

// StatsCommand reports how many files each destination holds
type StatsCommand struct {
	store      ports.FileStore
	classifier *domain.Classifier
	RootDir    string
}

// NewStatsCommand creates a new StatsCommand
func NewStatsCommand(store ports.FileStore, classifier *domain.Classifier, rootDir string) *StatsCommand {
	return &StatsCommand{
		store:      store,
		classifier: classifier,
		RootDir:    rootDir,
	}
}

// Execute runs the stats command
func (c *StatsCommand) Execute(ctx context.Context) (*StatsResult, error) {
	if err := application.ValidateDirectory("rootDir", c.RootDir); err != nil {
		return nil, err
	}

	loose, err := c.store.CountFiles(c.RootDir)
	if err != nil {
		return nil, err
	}

	result := &StatsResult{Root: c.RootDir, Loose: loose}
	for _, dest := range c.classifier.Destinations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := c.store.CountFiles(filepath.Join(c.RootDir, filepath.FromSlash(dest)))
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", dest, err)
		}
		result.Destinations = append(result.Destinations, domain.DestinationStat{
			Destination: dest,
			Categories:  c.classifier.CategoriesFor(dest),
			Files:       n,
		})
	}
	return result, nil
}
