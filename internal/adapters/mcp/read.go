package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"shelver/internal/app"
	"shelver/internal/domain"
)

// RegisterReadTools adds the tools that never touch the filesystem layout
func RegisterReadTools(s *server.MCPServer, a *app.App) {
	s.AddTool(classifyTool(), classifyHandler(a))
	s.AddTool(planTool(), planHandler(a))
	s.AddTool(historyTool(), historyHandler(a))
	s.AddTool(statsTool(), statsHandler(a))
	s.AddTool(verifyTool(), verifyHandler(a))
}

// --- classify ---

func classifyTool() mcp.Tool {
	return mcp.NewTool("classify",
		mcp.WithDescription("Show the category and destination a filename would get. Nothing is moved."),
		mcp.WithString("filename",
			mcp.Description("Filename to classify (e.g. session_analysis_log.txt)"),
			mcp.Required(),
		),
		mcp.WithString("content_path",
			mcp.Description("Optional file whose first bytes are used for content rules"),
		),
	)
}

func classifyHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filename := req.GetString("filename", "")
		contentPath := req.GetString("content_path", "")

		result, err := a.Classify(filename, contentPath).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		c := result.Classification
		if c.Blocked {
			return mcp.NewToolResultText(fmt.Sprintf("%s  BLOCKED  %s", result.Filename, c.Reason)), nil
		}
		rule := "default"
		if !c.IsDefault() {
			rule = fmt.Sprintf("rule %d", c.RuleIndex+1)
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s  %s  %s  (%s)", result.Filename, c.Category, c.Destination, rule)), nil
	}
}

// --- plan ---

func planTool() mcp.Tool {
	return mcp.NewTool("plan",
		mcp.WithDescription("Dry run: list what organize would move and whether the batch needs confirmation."),
		mcp.WithArray("files",
			mcp.Description("Files to consider, relative to the root. Omit to scan the whole root."),
			mcp.WithStringItems(),
		),
	)
}

func planHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		plan, err := a.Plan(req.GetStringSlice("files", nil)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatPlan(plan)), nil
	}
}

func formatPlan(plan *domain.Plan) string {
	if len(plan.Entries) == 0 && len(plan.Errors) == 0 {
		return "Nothing to organize."
	}

	var sb strings.Builder
	for _, e := range plan.Entries {
		switch {
		case e.Blocked:
			fmt.Fprintf(&sb, "%s  BLOCKED  %s\n", e.Name, e.Reason)
		case !e.Movable():
			fmt.Fprintf(&sb, "%s  stays (uncategorized)\n", e.Name)
		default:
			fmt.Fprintf(&sb, "%s  %s  -> %s\n", e.Name, e.Category, rel(plan.Root, e.Destination))
		}
	}
	for _, fe := range plan.Errors {
		fmt.Fprintf(&sb, "error: %s\n", fe.Error())
	}
	if plan.Risk.RequiresConfirmation {
		sb.WriteString("\nConfirmation required:\n")
		for _, f := range plan.Risk.Factors {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}
	return sb.String()
}

// --- history ---

func historyTool() mcp.Tool {
	return mcp.NewTool("history",
		mcp.WithDescription("List recent organize runs, or the records of one run."),
		mcp.WithNumber("limit",
			mcp.Description("Number of runs to list (default 10)"),
		),
		mcp.WithString("run_id",
			mcp.Description("Show the records of this run instead"),
		),
	)
}

func historyHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		runID := req.GetString("run_id", "")

		result, err := a.History(limit, runID).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		if runID != "" {
			return formatEntities(result.Records, formatRecord)
		}
		return formatEntities(result.Runs, formatRun)
	}
}

// --- stats ---

func statsTool() mcp.Tool {
	return mcp.NewTool("stats",
		mcp.WithDescription("Count files per destination and the files still loose in the root."),
	)
}

func statsHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := a.Stats().Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "root: %s\nloose files: %d\n", result.Root, result.Loose)
		for _, d := range result.Destinations {
			fmt.Fprintf(&sb, "%s  %d files  [%s]\n", rel(result.Root, d.Destination), d.Files, strings.Join(d.Categories, ", "))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- verify ---

func verifyTool() mcp.Tool {
	return mcp.NewTool("verify",
		mcp.WithDescription("Check that no file in the root still matches a rule."),
	)
}

func verifyHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := a.Verify().Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		if result.Clean() {
			return mcp.NewToolResultText(fmt.Sprintf("Clean: %d files checked.", result.Checked)), nil
		}

		var sb strings.Builder
		for _, e := range result.Remaining {
			fmt.Fprintf(&sb, "unorganized: %s  %s\n", e.Name, e.Category)
		}
		for _, e := range result.Blocked {
			fmt.Fprintf(&sb, "blocked: %s  %s\n", e.Name, e.Reason)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatRun(r domain.RunSummary) string {
	return fmt.Sprintf("%s  %s  moved %d  reverted %d", r.RunID, r.Started.Format("2006-01-02 15:04:05"), r.Moved, r.Reverted)
}

func formatRecord(r domain.MoveRecord) string {
	return fmt.Sprintf("%s  %s  %s -> %s  %s", r.Outcome, r.Timestamp.Format("15:04:05"), r.Source, r.Destination, humanize.Bytes(uint64(r.Size)))
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return r
	}
	return path
}
