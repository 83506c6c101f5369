package cmd

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"shelver/internal/adapters/tui"
	"shelver/internal/application"
)

func (c *cli) organizeCmd() *cobra.Command {
	var dryRun, yes, force, review bool

	cmd := &cobra.Command{
		Use:   "organize [files...]",
		Short: "Move files into their category folders",
		Long: `Classify the files directly in the root (or only the given files) and
move each one into its category folder. Every move is journaled.

Risky batches (many files, large files, critical names such as README.md,
blocked patterns) are refused until confirmed with --yes or --review.

Examples:
  shelver organize                     # Whole root
  shelver organize --dry-run           # Show what would move
  shelver organize --review            # Pick files interactively
  shelver organize temp_1.txt a.log    # Only these files`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			root := c.app.Config.Root

			if dryRun {
				plan, err := c.app.Plan(args).Execute(ctx)
				if err != nil {
					return err
				}
				printPlan(out, plan)
				return nil
			}

			files := args
			if review {
				plan, err := c.app.Plan(args).Execute(ctx)
				if err != nil {
					return err
				}
				selected, ok, err := tui.RunReview(plan, tea.WithContext(ctx), tea.WithAltScreen())
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, dimStyle.Render("Cancelled."))
					return nil
				}
				if len(selected) == 0 {
					fmt.Fprintln(out, dimStyle.Render("Nothing selected."))
					return nil
				}
				files = selected
				yes = true
			}

			organize := c.app.Organize(files, force)
			policy := c.app.Config.RiskPolicy()
			organize.Risk = &policy
			organize.Confirmed = yes
			organize.OnProgress = newProgress(cmd.ErrOrStderr(), "organizing")

			result, err := organize.Execute(ctx)
			if err != nil {
				switch {
				case errors.Is(err, application.ErrConfirmationRequired):
					return fmt.Errorf("%w\nre-run with --yes, or use --review to pick files", err)
				case errors.Is(err, application.ErrTooManyFiles):
					return fmt.Errorf("%w\nre-run with --force, or name the files to organize", err)
				}
				if result == nil {
					return err
				}
				// Cancelled part way: report what was moved
				printOrganizeResult(out, root, result)
				return err
			}

			printOrganizeResult(out, root, result)
			if !result.OK() {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show the plan without moving anything")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm a risky batch")
	cmd.Flags().BoolVar(&force, "force", false, "allow more files than organize.max_files")
	cmd.Flags().BoolVar(&review, "review", false, "choose the files to move in an interactive list")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "review")
	return cmd
}

func (c *cli) planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [files...]",
		Short: "Show what organize would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := c.app.Plan(args).Execute(cmd.Context())
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
}
