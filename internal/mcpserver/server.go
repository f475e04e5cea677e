// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes relink tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/relink/internal/models"
	"github.com/starford/relink/internal/relink"
	"github.com/starford/relink/internal/slug"
	"github.com/starford/relink/internal/storage"
)

// Server wraps the MCP server with relink tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	opts  relink.Options

	// mu serializes tool calls that walk or modify the corpus.
	mu sync.Mutex
}

// New creates a new MCP server with all relink tools registered.
func New(store storage.Provider, opts relink.Options) *Server {
	s := &Server{store: store, opts: opts}

	s.mcp = server.NewMCPServer(
		"relink",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("normalize_name",
		mcp.WithDescription("Return the canonical file name (without extension) relink gives a document name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name or file stem, e.g. \"My Note\"")),
	), s.normalizeName)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a wiki link target against the corpus as it would be after renaming."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Link target as written inside [[...]]")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("preview_links",
		mcp.WithDescription("Rewrite the [[wiki links]] in a piece of text the way a run would, without touching the corpus."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown text containing [[target]] or [[target|label]] links")),
	), s.previewLinks)

	s.mcp.AddTool(mcp.NewTool("relink_corpus",
		mcp.WithDescription("Normalize document names and rewrite every wiki link in the corpus. "+
			"Set dry_run to report what would change without modifying files."),
		mcp.WithBoolean("dry_run", mcp.Description("Plan only; do not rename or write files")),
	), s.relinkCorpus)

	s.mcp.AddResource(
		mcp.NewResource("relink://link-grammar", "Link Grammar",
			mcp.WithResourceDescription("The wiki link syntax relink reads and the Markdown link form it writes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkGrammar,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) normalizeName(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(slug.Normalize(name)), nil
}

type resolution struct {
	Key         string `json:"key"`
	Destination string `json:"destination"`
	Label       string `json:"label"`
	Resolved    bool   `json:"resolved"`
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := s.plan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dest, label, ok := relink.Resolve(idx, models.LinkRef{Target: target})
	out, _ := json.MarshalIndent(resolution{
		Key:         slug.TargetKey(target),
		Destination: dest,
		Label:       label,
		Resolved:    ok,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) previewLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := s.plan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := relink.RewriteText(idx, text)
	return mcp.NewToolResultText(out), nil
}

func (s *Server) relinkCorpus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := s.opts
	opts.DryRun = opts.DryRun || req.GetBool("dry_run", false)

	s.mu.Lock()
	stats, err := relink.Run(ctx, s.store, opts)
	s.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(map[string]any{
		"dry_run":       opts.DryRun,
		"file_count":    stats.FileCount,
		"files_changed": stats.FilesChanged,
		"links_changed": stats.LinksChanged,
		"renamed":       stats.Renamed,
		"collisions":    stats.Collisions,
		"unresolved":    stats.Unresolved,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readLinkGrammar(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "relink://link-grammar",
			MIMEType: "text/markdown",
			Text:     LinkGrammar,
		},
	}, nil
}

// plan builds the index a run would produce, without renaming anything.
func (s *Server) plan(ctx context.Context) (*relink.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, _, err := relink.Plan(ctx, s.store, s.opts)
	return idx, err
}
