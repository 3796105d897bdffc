// Package mcp exposes the compliance workflow as MCP tools over stdio, so
// agent hosts can submit requests and verify the audit trail without
// shelling out to the CLI. Tool-submitted runs are always auto-approved at
// the review gate — there is no interactive reviewer on this surface.
package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/riskgate/riskgate/internal/audit"
	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/pipeline"
)

// Config holds MCP server configuration.
type Config struct {
	ConfigPath   string
	AuditLogPath string
	StorePath    string // optional sqlite run index
}

// Server wraps the MCP SDK server around the pipeline.
type Server struct {
	mcpServer *mcpsdk.Server
	runner    *pipeline.Runner
	auditLog  *audit.Log
	store     *audit.Store
	auditPath string

	// Serializes runs: the audit chain appends strictly in order.
	mu sync.Mutex
}

// New creates an MCP server with loaded configuration and an open audit log.
func New(cfg Config) (*Server, error) {
	wfCfg, hash, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("mcp: %w", err)
	}

	if cfg.AuditLogPath == "" {
		return nil, fmt.Errorf("mcp: audit log path is required")
	}
	auditLog, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("mcp: %w", err)
	}

	var store *audit.Store
	if cfg.StorePath != "" {
		store, err = audit.OpenStore(cfg.StorePath)
		if err != nil {
			auditLog.Close()
			return nil, fmt.Errorf("mcp: %w", err)
		}
	}

	s := &Server{
		runner:    pipeline.NewRunner(wfCfg, hash),
		auditLog:  auditLog,
		store:     store,
		auditPath: cfg.AuditLogPath,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "riskgate",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases the audit log and store.
func (s *Server) Close() error {
	var firstErr error
	if err := s.auditLog.Close(); err != nil {
		firstErr = err
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// registerTools adds the riskgate tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name: "riskgate_submit",
		Description: "Submit a compliance request (rescore, suppress_flag, or explain_score) " +
			"for a customer. Returns the terminal disposition, risk score, and the run ID " +
			"recorded in the audit trail. Escalations are auto-approved.",
	}, s.handleSubmit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name: "riskgate_verify",
		Description: "Verify the tamper-evident hash chain of the audit log. Returns validity " +
			"and, for a broken chain, the first bad line.",
	}, s.handleVerify)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name: "riskgate_audit",
		Description: "Replay the audit trail: list recorded runs with disposition counts, " +
			"optionally filtered by run ID or terminal status.",
	}, s.handleAudit)
}
