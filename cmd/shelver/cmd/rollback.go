package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shelver/internal/application/commands"
)

func (c *cli) rollbackCmd() *cobra.Command {
	var (
		since string
		runID string
		last  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Move files back to where they were",
		Long: `Reverse journaled moves, newest first. Select the moves by time with
--since, by run with --run, or the most recent run with --last.

A file that changed after it was moved is left alone unless --force is
given. Rolled back moves stay in the journal, marked as reverted.

Examples:
  shelver rollback --last
  shelver rollback --since 2h
  shelver rollback --since 2026-04-01T09:00:00Z
  shelver rollback --run 3f2a...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var cutoff time.Time
			if since != "" {
				t, err := commands.ParseSince(since, time.Now())
				if err != nil {
					return err
				}
				cutoff = t
			}
			if last {
				run, err := commands.LastRun(ctx, c.app.Journal)
				if err != nil {
					return err
				}
				runID = run.RunID
			}

			result, err := c.app.Rollback(cutoff, runID, force).Execute(ctx)
			if result != nil {
				printRollbackResult(cmd.OutOrStdout(), c.app.Config.Root, result)
			}
			if err != nil {
				return err
			}
			if !result.OK() {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "reverse moves at or after this time (RFC 3339, date or duration)")
	cmd.Flags().StringVar(&runID, "run", "", "reverse the moves of one run")
	cmd.Flags().BoolVar(&last, "last", false, "reverse the most recent run")
	cmd.Flags().BoolVar(&force, "force", false, "restore files even when they changed after the move")
	cmd.MarkFlagsOneRequired("since", "run", "last")
	cmd.MarkFlagsMutuallyExclusive("run", "last")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List organize runs, or the moves of one run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.app.History(limit, runID).Execute(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if runID != "" {
				printRecords(out, c.app.Config.Root, result.Records)
				return nil
			}
			printRuns(out, result.Runs)
			if len(result.Runs) > 0 {
				fmt.Fprintln(out, dimStyle.Render("shelver history --run <id> shows the moves of one run"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "show the moves of this run")
	return cmd
}
