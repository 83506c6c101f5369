package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shelver/internal/adapters/watcher"
	"shelver/internal/application"
)

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Organize new files as they appear",
		Long: `Watch the root and organize files once they have been quiet for
watch.debounce (500ms by default). Batches run one at a time and are
journaled like any other run. Stop with Ctrl-C.

Batches that need confirmation are skipped and logged.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			cfg := c.app.Config
			policy := cfg.RiskPolicy()

			onBatch := func(ctx context.Context, paths []string) {
				organize := c.app.Organize(paths, false)
				organize.Risk = &policy

				result, err := organize.Execute(ctx)
				switch {
				case errors.Is(err, application.ErrConfirmationRequired):
					c.logger.Warn("batch skipped", zap.Strings("paths", paths), zap.Error(err))
					return
				case err != nil && result == nil:
					c.logger.Error("batch failed", zap.Error(err))
					return
				}
				if result.Moved > 0 || len(result.Errors) > 0 {
					printOrganizeResult(out, cfg.Root, result)
				}
			}

			w, err := watcher.New(cfg.Root, cfg.Watch.Debounce, onBatch, c.logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, dimStyle.Render("Watching "+cfg.Root+" (Ctrl-C to stop)"))
			return w.Run(cmd.Context())
		},
	}
}
