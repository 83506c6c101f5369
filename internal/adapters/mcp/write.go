package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"shelver/internal/app"
	"shelver/internal/application/commands"
	"shelver/internal/domain"
)

// RegisterWriteTools adds the tools that move files
func RegisterWriteTools(s *server.MCPServer, a *app.App) {
	s.AddTool(organizeTool(), organizeHandler(a))
	s.AddTool(rollbackTool(), rollbackHandler(a))
	s.AddTool(undoLastTool(), undoLastHandler(a))
}

// --- organize ---

func organizeTool() mcp.Tool {
	return mcp.NewTool("organize",
		mcp.WithDescription("Move files from the root into their category folders and journal every move. Risky batches are refused until confirm is true; run plan first to see why."),
		mcp.WithArray("files",
			mcp.Description("Files to organize, relative to the root. Omit to organize the whole root."),
			mcp.WithStringItems(),
		),
		mcp.WithBoolean("confirm",
			mcp.Description("Proceed even when the batch needs confirmation"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Allow batches larger than organize.max_files"),
		),
	)
}

func organizeHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := a.Organize(req.GetStringSlice("files", nil), req.GetBool("force", false))
		policy := a.Config.RiskPolicy()
		cmd.Risk = &policy
		cmd.Confirmed = req.GetBool("confirm", false)

		result, err := cmd.Execute(ctx)
		if err != nil {
			if result == nil {
				return toolError(err)
			}
			// Interrupted part way: report what already moved
			return mcp.NewToolResultError(fmt.Sprintf("%s\n%s", err, formatOrganize(result))), nil
		}
		return mcp.NewToolResultText(formatOrganize(result)), nil
	}
}

func formatOrganize(r *domain.OrganizeResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s: moved %d, skipped %d, failed %d\n", r.RunID, r.Moved, r.Skipped, len(r.Errors))
	for _, rec := range r.Records {
		fmt.Fprintf(&sb, "%s -> %s\n", rec.Source, rec.Destination)
	}
	for _, fe := range r.Errors {
		fmt.Fprintf(&sb, "error: %s\n", fe.Error())
	}
	return sb.String()
}

// --- rollback ---

func rollbackTool() mcp.Tool {
	return mcp.NewTool("rollback",
		mcp.WithDescription("Move files back to where they were before organize. Select by time or by run."),
		mcp.WithString("since",
			mcp.Description("Reverse moves at or after this time: RFC 3339, a date (2006-01-02) or a duration back from now (2h)"),
		),
		mcp.WithString("run_id",
			mcp.Description("Reverse the moves of one run"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Restore files even when they changed after the move"),
		),
	)
}

func rollbackHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var since time.Time
		if s := req.GetString("since", ""); s != "" {
			t, err := commands.ParseSince(s, time.Now())
			if err != nil {
				return toolError(err)
			}
			since = t
		}

		result, err := a.Rollback(since, req.GetString("run_id", ""), req.GetBool("force", false)).Execute(ctx)
		return rollbackResult(result, err)
	}
}

// --- undo_last ---

func undoLastTool() mcp.Tool {
	return mcp.NewTool("undo_last",
		mcp.WithDescription("Reverse the most recent organize run."),
		mcp.WithBoolean("force",
			mcp.Description("Restore files even when they changed after the move"),
		),
	)
}

func undoLastHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		last, err := commands.LastRun(ctx, a.Journal)
		if err != nil {
			return toolError(err)
		}

		result, err := a.Rollback(time.Time{}, last.RunID, req.GetBool("force", false)).Execute(ctx)
		return rollbackResult(result, err)
	}
}

func rollbackResult(result *domain.RollbackResult, err error) (*mcp.CallToolResult, error) {
	switch {
	case err != nil && result == nil:
		return toolError(err)
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("%s\n%s", err, formatRollback(result))), nil
	}
	return mcp.NewToolResultText(formatRollback(result)), nil
}

func formatRollback(r *domain.RollbackResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "restored %d, failed %d\n", r.Restored, len(r.Failed))
	for _, rec := range r.Records {
		fmt.Fprintf(&sb, "%s -> %s\n", rec.Source, rec.Destination)
	}
	for _, fe := range r.Failed {
		fmt.Fprintf(&sb, "error: %s\n", fe.Error())
	}
	return sb.String()
}
