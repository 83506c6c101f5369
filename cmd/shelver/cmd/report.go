package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelver/internal/config"
)

func (c *cli) classifyCmd() *cobra.Command {
	var content string

	cmd := &cobra.Command{
		Use:   "classify <filename>",
		Short: "Show where a filename would be filed",
		Long: `Print the category and destination a filename gets from the rules.
The file does not need to exist and nothing is moved.

Examples:
  shelver classify session_analysis_log.txt
  shelver classify notes.md --content ./notes.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.Classify(args[0], content).Execute(cmd.Context())
			if err != nil {
				return err
			}
			printClassification(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "file whose first bytes feed content rules")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count files per destination",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.app.Stats().Execute(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func (c *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that no file in the root still matches a rule",
		Long: `Check the root for files a rule would still move and for files matching
a block rule. Exits non-zero when the root is not clean.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.app.Verify().Execute(cmd.Context())
			if err != nil {
				return err
			}
			printVerify(cmd.OutOrStdout(), result)
			if !result.Clean() {
				return errFailed
			}
			return nil
		},
	}
}

func (c *cli) rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective rules as YAML",
		Long: `Print the rules in effect, in priority order, in the format --rules
accepts. Redirect the output to a file to start a custom rule set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.MarshalRules(c.app.Classifier.Rules())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
