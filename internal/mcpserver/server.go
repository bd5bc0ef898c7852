// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Raido sync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/state"
	syncengine "github.com/starford/raido/internal/sync"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp     *server.MCPServer
	runner  api.SyncRunner
	states  *state.Store
	idx     index.ObjectIndex
	project string
}

// New creates a new MCP server with all Raido tools registered.
func New(runner api.SyncRunner, states *state.Store, idx index.ObjectIndex, project string) *Server {
	s := &Server{runner: runner, states: states, idx: idx, project: project}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_status",
		mcp.WithDescription("Summarize the persisted sync state: reference counts, collections, last sync time."),
	), s.syncStatus)

	s.mcp.AddTool(mcp.NewTool("run_sync",
		mcp.WithDescription("Run one sync session against the remote card repository. "+
			"Defaults to dry-run; pass apply=true to perform mutations."),
		mcp.WithBoolean("apply", mcp.Description("Perform real mutations instead of a dry-run preview")),
		mcp.WithBoolean("push_only", mcp.Description("Skip the pull phase")),
		mcp.WithBoolean("pull_only", mcp.Description("Skip the push, delete, and relink phases")),
		mcp.WithString("strategy", mcp.Description("Conflict strategy: local-wins, remote-wins, skip-conflicts, error-on-conflict")),
	), s.runSync)

	s.mcp.AddTool(mcp.NewTool("list_references",
		mcp.WithDescription("List synced references: local id, remote uri, direction, deleted flag."),
	), s.listReferences)

	s.mcp.AddTool(mcp.NewTool("find_object",
		mcp.WithDescription("Look a vault object up by citekey or URL."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Citekey or URL to look up")),
	), s.findObject)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) syncStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.states.Load(s.project)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	active, deleted := 0, 0
	for _, ref := range st.References {
		if ref.Deleted {
			deleted++
		} else {
			active++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "project: %s\n", st.Project)
	fmt.Fprintf(&b, "references: %d active, %d deleted\n", active, deleted)
	fmt.Fprintf(&b, "collections: %d\n", len(st.CollectionURIs))
	if st.LastSync.IsZero() {
		b.WriteString("last sync: never\n")
	} else {
		fmt.Fprintf(&b, "last sync: %s\n", st.LastSync.Format("2006-01-02 15:04:05 MST"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) runSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := syncengine.Options{
		DryRun:   !req.GetBool("apply", false),
		PushOnly: req.GetBool("push_only", false),
		PullOnly: req.GetBool("pull_only", false),
		Strategy: syncengine.Strategy(req.GetString("strategy", "")),
	}
	if opts.Strategy != "" && !opts.Strategy.IsValid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown strategy %q", opts.Strategy)), nil
	}

	result, err := s.runner.Run(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) listReferences(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.states.Load(s.project)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(st.References) == 0 {
		return mcp.NewToolResultText("no references recorded"), nil
	}

	var b strings.Builder
	for id, ref := range st.References {
		status := string(ref.Direction)
		if ref.Deleted {
			status += ", deleted"
		}
		fmt.Fprintf(&b, "%s -> %s (%s)\n", id, ref.URI, status)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) findObject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	row, err := s.idx.FindObject(s.project, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if row == nil {
		return mcp.NewToolResultText(fmt.Sprintf("no object matches %q", key)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "path: %s\n", row.Path)
	fmt.Fprintf(&b, "citekey: %s\n", row.Citekey)
	if row.Title != "" {
		fmt.Fprintf(&b, "title: %s\n", row.Title)
	}
	if row.URL != "" {
		fmt.Fprintf(&b, "url: %s\n", row.URL)
	}
	if len(row.Tags) > 0 {
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(row.Tags, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}
