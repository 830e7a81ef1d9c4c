package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/frostime/gosession/internal/engine"
)

// --- Tool Definitions ---

func startSessionTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"start_session",
		"Create a new isolated Go execution session. Variables persist across exec calls within the session.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"workdir": {
					"type": "string",
					"description": "Working directory for the session (must exist; default: server workdir)"
				}
			}
		}`),
	)
}

func execTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"exec",
		"Execute Go code in a session. The last expression's value is returned as result_repr; stdout, stderr, and structured errors are captured.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {
					"type": "string",
					"description": "Session ID from start_session"
				},
				"code": {
					"type": "string",
					"description": "Go code to execute"
				},
				"timeout": {
					"type": "integer",
					"description": "Timeout in seconds for this call (0 disables; default: session default)"
				}
			},
			"required": ["session_id", "code"]
		}`),
	)
}

func listVarsTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"list_vars",
		"List all user-defined variables in a session with their types and values.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {
					"type": "string",
					"description": "Session ID"
				}
			},
			"required": ["session_id"]
		}`),
	)
}

func getVarsTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_vars",
		"Get specific variables from a session by name. Absent names map to null.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {
					"type": "string",
					"description": "Session ID"
				},
				"names": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Variable names to fetch"
				}
			},
			"required": ["session_id", "names"]
		}`),
	)
}

func getHistoryTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_history",
		"Get the most recent execution history entries of a session.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {
					"type": "string",
					"description": "Session ID"
				},
				"n": {
					"type": "integer",
					"description": "Number of entries to return (0 returns all; default 10)"
				}
			},
			"required": ["session_id"]
		}`),
	)
}

func resetSessionTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"reset_session",
		"Reset a session: clear all variables and history. The working directory is kept.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {
					"type": "string",
					"description": "Session ID"
				}
			},
			"required": ["session_id"]
		}`),
	)
}

func closeSessionTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"close_session",
		"Close and destroy a session.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {
					"type": "string",
					"description": "Session ID"
				}
			},
			"required": ["session_id"]
		}`),
	)
}

func listSessionsTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"list_sessions",
		"List all active sessions.",
		json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
	)
}

// --- Tool Handlers ---

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type startSessionArgs struct {
	Workdir string `json:"workdir"`
}

type startSessionResult struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
	Workdir   string `json:"workdir"`
}

func (s *Server) handleStartSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args startSessionArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	sess, err := s.mgr.Create(args.Workdir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create session: %v", err)), nil
	}
	return resultJSON(startSessionResult{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt.Format(time.RFC3339),
		Workdir:   sess.Workdir(),
	})
}

type execArgs struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
	Timeout   *int   `json:"timeout"`
}

type execErrorResult struct {
	Ename     string   `json:"ename"`
	Evalue    string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

type execResult struct {
	OK             bool             `json:"ok"`
	Stdout         string           `json:"stdout"`
	Stderr         string           `json:"stderr"`
	ResultRepr     *string          `json:"result_repr"`
	Error          *execErrorResult `json:"error"`
	TimedOut       bool             `json:"timed_out"`
	ExecutionCount int              `json:"execution_count"`
}

func toExecError(e *engine.ErrorInfo) *execErrorResult {
	if e == nil {
		return nil
	}
	return &execErrorResult{Ename: e.Name, Evalue: e.Message, Traceback: e.Traceback}
}

func (s *Server) handleExec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args execArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.SessionID == "" || args.Code == "" {
		return mcp.NewToolResultError("session_id and code are required"), nil
	}

	sess := s.mgr.Get(args.SessionID)
	if sess == nil {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", args.SessionID)), nil
	}

	res, err := sess.Execute(args.Code, args.Timeout)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("execute: %v", err)), nil
	}
	return resultJSON(execResult{
		OK:             res.OK,
		Stdout:         res.Stdout,
		Stderr:         res.Stderr,
		ResultRepr:     res.ResultRepr,
		Error:          toExecError(res.Error),
		TimedOut:       res.TimedOut,
		ExecutionCount: res.ExecutionCount,
	})
}

type varResult struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Repr string `json:"repr"`
}

func (s *Server) handleListVars(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	sess := s.mgr.Get(args.SessionID)
	if sess == nil {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", args.SessionID)), nil
	}

	vars, err := sess.ListVariables()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list variables: %v", err)), nil
	}
	out := make([]varResult, len(vars))
	for i, v := range vars {
		out[i] = varResult{Name: v.Name, Type: v.Type, Repr: v.Repr}
	}
	return resultJSON(out)
}

type getVarsArgs struct {
	SessionID string   `json:"session_id"`
	Names     []string `json:"names"`
}

func (s *Server) handleGetVars(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args getVarsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if len(args.Names) == 0 {
		return mcp.NewToolResultError("names is required"), nil
	}

	sess := s.mgr.Get(args.SessionID)
	if sess == nil {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", args.SessionID)), nil
	}

	vars, err := sess.GetVariables(args.Names)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get variables: %v", err)), nil
	}
	values := make(map[string]*varResult, len(vars))
	for name, v := range vars {
		if v == nil {
			values[name] = nil
			continue
		}
		values[name] = &varResult{Name: v.Name, Type: v.Type, Repr: v.Repr}
	}
	return resultJSON(map[string]any{"values": values})
}

type getHistoryArgs struct {
	SessionID string `json:"session_id"`
	N         int    `json:"n"`
}

type historyEntryResult struct {
	ExecutionCount int              `json:"execution_count"`
	Code           string           `json:"code"`
	Stdout         string           `json:"stdout"`
	Stderr         string           `json:"stderr"`
	ResultRepr     *string          `json:"result_repr"`
	Error          *execErrorResult `json:"error"`
	OK             bool             `json:"ok"`
}

func (s *Server) handleGetHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getHistoryArgs{N: 10}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	sess := s.mgr.Get(args.SessionID)
	if sess == nil {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", args.SessionID)), nil
	}

	entries, err := sess.History(args.N)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get history: %v", err)), nil
	}
	out := make([]historyEntryResult, len(entries))
	for i, e := range entries {
		out[i] = historyEntryResult{
			ExecutionCount: e.ExecutionCount,
			Code:           e.Code,
			Stdout:         e.Stdout,
			Stderr:         e.Stderr,
			ResultRepr:     e.ResultRepr,
			Error:          toExecError(e.Error),
			OK:             e.OK,
		}
	}
	return resultJSON(out)
}

func (s *Server) handleResetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	sess := s.mgr.Get(args.SessionID)
	if sess == nil {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", args.SessionID)), nil
	}
	if err := sess.Reset(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset: %v", err)), nil
	}
	return resultJSON(map[string]string{"status": "ok", "message": "Session reset successfully"})
}

func (s *Server) handleCloseSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	if !s.mgr.Close(args.SessionID) {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", args.SessionID)), nil
	}
	return resultJSON(map[string]string{"status": "ok", "message": "Session closed successfully"})
}

type sessionSummaryResult struct {
	SessionID      string  `json:"session_id"`
	CreatedAt      string  `json:"created_at"`
	ExecutionCount int     `json:"execution_count"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	Workdir        string  `json:"workdir"`
}

func (s *Server) handleListSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos := s.mgr.List()
	out := make([]sessionSummaryResult, len(infos))
	for i, info := range infos {
		out[i] = sessionSummaryResult{
			SessionID:      info.SessionID,
			CreatedAt:      info.CreatedAt.Format(time.RFC3339),
			ExecutionCount: info.ExecutionCount,
			UptimeSeconds:  info.UptimeSeconds,
			Workdir:        info.Workdir,
		}
	}
	return resultJSON(out)
}

// resultJSON marshals v to JSON and returns it as a tool result.
func resultJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
