package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "shelver/internal/adapters/mcp"
	"shelver/internal/app"
	"shelver/internal/config"
	"shelver/internal/logging"
)

func main() {
	cfgFlag := flag.String("config", "", "config file (default ~/.config/shelver/config.yaml)")
	rootFlag := flag.String("root", "", "directory to organize (default $SHELVER_ROOT or .)")
	logFlag := flag.String("log-file", "", "write debug logs to this file")
	flag.Parse()

	v, err := config.NewViper(*cfgFlag)
	if err != nil {
		log.Fatalf("shelver-mcp: %v", err)
	}
	if *rootFlag != "" {
		v.Set("root", *rootFlag)
	}
	cfg, err := config.Load(v)
	if err != nil {
		log.Fatalf("shelver-mcp: %v", err)
	}

	// stdout carries the protocol, so logs go to stderr or a file
	opts := logging.Options{Format: "json"}
	if *logFlag != "" {
		opts.Verbose = true
		opts.OutputPaths = []string{*logFlag}
	}
	logger, err := logging.New(opts)
	if err != nil {
		log.Fatalf("shelver-mcp: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("shelver-mcp: %v", err)
	}
	defer a.Close()

	mcpServer := server.NewMCPServer(
		"shelver-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, a)
	mcpadapter.RegisterWriteTools(mcpServer, a)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Printf("shelver-mcp: %v", err)
	}
}
