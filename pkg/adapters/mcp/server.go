// Package mcp exposes the execution registry as an MCP server so agent
// tooling can inspect, approve and cancel running workflows.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
)

// Engine defines the interface required by the MCP server.
type Engine interface {
	Start(ctx context.Context, wf *domain.Workflow, input string) (string, <-chan domain.RuntimeState, error)
	Approve(executionID string, decision domain.Decision) error
	Cancel(executionID string) error
	GetState(executionID string) (domain.RuntimeState, error)
	ListActive() []espalier.Summary
}

// Server wraps the Espalier engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("espalier-mcp", espalier.Version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("workflow_start",
		mcp.WithDescription("Start a new execution of a YAML workflow document."),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("The workflow document, as YAML text")),
		mcp.WithString("input", mcp.Description("Initial input handed to the first executor")),
	), s.handleStart)

	s.mcpServer.AddTool(mcp.NewTool("workflow_list",
		mcp.WithDescription("List the currently active workflow executions."),
	), s.handleList)

	s.mcpServer.AddTool(mcp.NewTool("workflow_status",
		mcp.WithDescription("Get the latest runtime snapshot of a live execution."),
		mcp.WithString("execution_id", mcp.Required(), mcp.Description("The execution to inspect")),
	), s.handleStatus)

	s.mcpServer.AddTool(mcp.NewTool("workflow_approve",
		mcp.WithDescription("Deliver an approval decision to an execution paused at a human gate."),
		mcp.WithString("execution_id", mcp.Required(), mcp.Description("The execution to approve or reject")),
		mcp.WithBoolean("approved", mcp.Required(), mcp.Description("true to approve, false to reject")),
		mcp.WithString("feedback", mcp.Description("Optional feedback attached to a rejection")),
	), s.handleApprove)

	s.mcpServer.AddTool(mcp.NewTool("workflow_cancel",
		mcp.WithDescription("Cancel a live execution."),
		mcp.WithString("execution_id", mcp.Required(), mcp.Description("The execution to cancel")),
	), s.handleCancel)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document, err := request.RequireString("workflow")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input := request.GetString("input", "")

	wf, err := espalier.Load([]byte(document))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	executionID, snapshots, err := s.engine.Start(context.WithoutCancel(ctx), wf, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start failed: %v", err)), nil
	}
	go func() {
		for range snapshots {
		}
	}()

	data, _ := json.Marshal(map[string]string{"execution_id": executionID})
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _ := json.Marshal(s.engine.ListActive())
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	executionID, err := request.RequireString("execution_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.engine.GetState(executionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	data, _ := json.Marshal(state)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleApprove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	executionID, err := request.RequireString("execution_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	approved, err := request.RequireBool("approved")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	feedback := request.GetString("feedback", "")

	if err := s.engine.Approve(executionID, domain.Decision{Approved: approved, Feedback: feedback}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("approve failed: %v", err)), nil
	}
	return mcp.NewToolResultText("decision delivered"), nil
}

func (s *Server) handleCancel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	executionID, err := request.RequireString("execution_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.engine.Cancel(executionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cancel failed: %v", err)), nil
	}
	return mcp.NewToolResultText("cancellation requested"), nil
}
