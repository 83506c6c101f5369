package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shelver/internal/app"
	"shelver/internal/config"
	"shelver/internal/logging"
)

// errFailed marks a run that finished but reported per-file failures. The
// details are already printed, so Execute only sets the exit code.
var errFailed = errors.New("one or more files failed")

// cli carries the state shared by every subcommand of one invocation
type cli struct {
	cfgFile   string
	verbose   bool
	logFormat string

	logger *zap.Logger
	app    *app.App
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "shelver",
		Short: "Sort loose files into category folders",
		Long: `shelver classifies the files sitting directly in a directory by name,
moves each one into its category folder and journals every move so a
batch can be rolled back.

Rules match filenames by substring, glob or regular expression. The
first matching rule wins; files no rule matches go to the default
destination (Data/temp/ unless configured otherwise).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default ~/.config/shelver/config.yaml)")
	flags.String("root", "", "directory to organize (default $SHELVER_ROOT or .)")
	flags.String("rules", "", "YAML rule file replacing the configured rules")
	flags.String("journal", "", "journal backend: sqlite or jsonl")
	flags.String("collision", "", "name collision policy: rename, skip or overwrite")
	flags.Int("workers", 0, "files handled in parallel")
	flags.BoolVar(&c.verbose, "verbose", false, "log debug output to stderr")
	flags.StringVar(&c.logFormat, "log-format", "console", "log format: console or json")

	root.AddCommand(
		c.organizeCmd(),
		c.planCmd(),
		c.classifyCmd(),
		c.rollbackCmd(),
		c.historyCmd(),
		c.statsCmd(),
		c.verifyCmd(),
		c.watchCmd(),
		c.rulesCmd(),
	)
	return root
}

// flagKeys maps persistent flags to config keys
var flagKeys = map[string]string{
	"root":      "root",
	"rules":     "rules_file",
	"journal":   "journal.backend",
	"collision": "organize.collision",
	"workers":   "organize.workers",
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	// Skip initialization for help commands
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	v, err := config.NewViper(c.cfgFile)
	if err != nil {
		return err
	}
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Verbose: c.verbose, Format: c.logFormat})
	if err != nil {
		return err
	}
	c.logger = logger

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

// close runs after the command, whether or not it failed
func (c *cli) close() error {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	if c.app != nil {
		return c.app.Close()
	}
	return nil
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) (err error) {
	c := &cli{}
	defer func() {
		if cerr := c.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	root := newRootCmd(c)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
