package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/rulebook-rag/internal/bootstrap"
	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/mcpTools"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// stdout belongs to the MCP transport; logs go to stderr.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger_i.Init(cfg)
	logger := logger_i.NewLogger("mcp_main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "")
	if err != nil {
		logger.Error("External services failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	logger.Info("Serving MCP over stdio", "server", mcpTools.ServerName)
	if err := mcpTools.NewServer(app.Service).Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("MCP server stopped", "error", err)
	}
}
