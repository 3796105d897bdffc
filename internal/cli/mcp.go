package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	gatemcp "github.com/riskgate/riskgate/internal/mcp"
)

var (
	mcpConfigPath string
	mcpAuditLog   string
	mcpAuditDB    string
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpConfigPath, "config", "", "Config file path (default ~/.riskgate/config.yaml)")
	mcpCmd.Flags().StringVar(&mcpAuditLog, "audit-log", "", "Audit log path (default ~/.riskgate/audit.jsonl)")
	mcpCmd.Flags().StringVar(&mcpAuditDB, "audit-db", "", "Run index path (default ~/.riskgate/runs.db)")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs riskgate as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes tools: riskgate_submit, riskgate_verify, riskgate_audit.\n" +
		"Escalations on this surface are always auto-approved.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	logPath, err := statePath(mcpAuditLog, "audit.jsonl")
	if err != nil {
		return err
	}
	dbPath, err := statePath(mcpAuditDB, "runs.db")
	if err != nil {
		return err
	}

	srv, err := gatemcp.New(gatemcp.Config{
		ConfigPath:   mcpConfigPath,
		AuditLogPath: logPath,
		StorePath:    dbPath,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "riskgate MCP server running on stdio")
	return srv.Run(ctx)
}
