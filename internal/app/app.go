package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"shelver/internal/adapters/filesystem"
	"shelver/internal/adapters/jsonl"
	"shelver/internal/adapters/sqlite"
	"shelver/internal/application/commands"
	"shelver/internal/config"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// App holds the adapters built from one configuration and hands out
// commands bound to them. It is shared by the CLI and the MCP server.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      ports.FileStore
	Journal    ports.Journal
	Classifier *domain.Classifier
}

// New builds the classifier, the filesystem store and the journal
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	classifier, err := domain.NewClassifier(cfg.Rules, cfg.Default.Category, cfg.Default.Destination)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}
	a.Classifier = classifier
	a.Store = filesystem.NewStore(cfg.Collision())

	journal, err := OpenJournal(cfg)
	if err != nil {
		return nil, err
	}
	a.Journal = journal

	logger.Debug("app initialized",
		zap.String("root", cfg.Root),
		zap.String("journal", cfg.JournalPath()),
		zap.Int("rules", len(cfg.Rules)))
	return a, nil
}

// OpenJournal opens the configured journal backend
func OpenJournal(cfg *config.Config) (ports.Journal, error) {
	path := cfg.JournalPath()
	switch cfg.Journal.Backend {
	case config.BackendJSONL:
		j, err := jsonl.Open(path)
		if err != nil {
			return nil, fmt.Errorf("init journal: %w", err)
		}
		return j, nil
	default:
		j, err := sqlite.Open(path, cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("init journal: %w", err)
		}
		return j, nil
	}
}

// Close releases the journal
func (a *App) Close() error {
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}

// SelectOptions returns the candidate selection settings
func (a *App) SelectOptions() commands.SelectOptions {
	return commands.SelectOptions{
		Exclude:           a.Config.ExcludedPaths(),
		SkipUncategorized: a.Config.Organize.SkipUncategorized,
		ContentSniffBytes: a.Config.Organize.ContentSniffBytes,
	}
}

// Organize returns an organize command for files (all of the root when empty)
func (a *App) Organize(files []string, force bool) *commands.OrganizeCommand {
	opts := commands.OrganizeOptions{
		SelectOptions: a.SelectOptions(),
		Workers:       a.Config.Organize.Workers,
		MaxFiles:      a.Config.Organize.MaxFiles,
		Force:         force,
	}
	return commands.NewOrganizeCommand(a.Store, a.Journal, a.Classifier, a.Config.Root, files, opts).
		WithLogger(a.Logger)
}

// Plan returns a dry-run command for files
func (a *App) Plan(files []string) *commands.PlanCommand {
	return commands.NewPlanCommand(a.Store, a.Classifier, a.Config.Root, files, a.SelectOptions(), a.Config.RiskPolicy())
}

// Rollback returns a rollback command
func (a *App) Rollback(since time.Time, runID string, force bool) *commands.RollbackCommand {
	return commands.NewRollbackCommand(a.Store, a.Journal, since, runID, force).WithLogger(a.Logger)
}

// Classify returns a classify command
func (a *App) Classify(filename, contentPath string) *commands.ClassifyCommand {
	return commands.NewClassifyCommand(a.Store, a.Classifier, filename, contentPath, a.Config.Organize.ContentSniffBytes)
}

// History returns a history command
func (a *App) History(limit int, runID string) *commands.HistoryCommand {
	return commands.NewHistoryCommand(a.Journal, limit, runID)
}

// Stats returns a stats command
func (a *App) Stats() *commands.StatsCommand {
	return commands.NewStatsCommand(a.Store, a.Classifier, a.Config.Root)
}

// Verify returns a verify command
func (a *App) Verify() *commands.VerifyCommand {
	return commands.NewVerifyCommand(a.Store, a.Classifier, a.Config.Root, a.SelectOptions())
}
