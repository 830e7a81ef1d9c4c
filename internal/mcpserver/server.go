// Package mcpserver exposes the execution sessions as MCP (Model Context
// Protocol) tools over stdio JSON-RPC. It runs an in-process session
// manager, so no HTTP service or token is involved.
package mcpserver

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/mark3labs/mcp-go/server"

	"github.com/frostime/gosession/internal/config"
	"github.com/frostime/gosession/internal/session"
)

// Server holds the MCP server state.
type Server struct {
	mgr *session.Manager
}

// NewServer creates an MCP server backed by the given manager.
func NewServer(mgr *session.Manager) *Server {
	return &Server{mgr: mgr}
}

// Run starts the MCP stdio server. It blocks until the context is cancelled
// or stdin is closed. Workdir and timeout defaults are read from the
// environment (GOSESSION_WORKDIR, GOSESSION_EXEC_TIMEOUT).
func Run() error {
	workdir := os.Getenv("GOSESSION_WORKDIR")
	if workdir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		workdir = cwd
	}

	timeout := 30
	if v := os.Getenv("GOSESSION_EXEC_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			timeout = n
		}
	}

	s := NewServer(session.NewManager(workdir, timeout))

	mcpServer := server.NewMCPServer(
		"gosession",
		config.Version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTools(
		server.ServerTool{Tool: startSessionTool(), Handler: s.handleStartSession},
		server.ServerTool{Tool: execTool(), Handler: s.handleExec},
		server.ServerTool{Tool: listVarsTool(), Handler: s.handleListVars},
		server.ServerTool{Tool: getVarsTool(), Handler: s.handleGetVars},
		server.ServerTool{Tool: getHistoryTool(), Handler: s.handleGetHistory},
		server.ServerTool{Tool: resetSessionTool(), Handler: s.handleResetSession},
		server.ServerTool{Tool: closeSessionTool(), Handler: s.handleCloseSession},
		server.ServerTool{Tool: listSessionsTool(), Handler: s.handleListSessions},
	)

	stdio := server.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "[mcp] ", log.LstdFlags))

	return stdio.Listen(context.Background(), os.Stdin, os.Stdout)
}
