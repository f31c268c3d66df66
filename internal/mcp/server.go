// Package mcp exposes stored documentation builds over the Model
// Context Protocol: pages as resources addressed by pydoc:// URIs,
// plus tools for listing, searching, and cross-reference lookup.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bridgedoc/bridgedoc/internal/store"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	store     *store.Store
}

func NewServer(st *store.Store, version string) *Server {
	s := &Server{store: st}

	mcpServer := server.NewMCPServer(
		"bridgedoc",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("list_projects",
			mcp.WithDescription("List documentation builds available in the local store, most recent first."),
		),
		s.handleListProjects,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_pages",
			mcp.WithDescription("List the documentation pages of a project. Each entry carries a pydoc:// URI readable as a resource."),
			mcp.WithString("project",
				mcp.Description("Project name as shown by list_projects"),
				mcp.Required(),
			),
		),
		s.handleListPages,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_docs",
			mcp.WithDescription("Search a project's documentation pages by title and content. Results carry pydoc:// URIs."),
			mcp.WithString("project",
				mcp.Description("Project name as shown by list_projects"),
				mcp.Required(),
			),
			mcp.WithString("query",
				mcp.Description("Search query (item name or keyword)"),
				mcp.Required(),
			),
		),
		s.handleSearchDocs,
	)

	mcpServer.AddTool(
		mcp.NewTool("lookup_crossref",
			mcp.WithDescription("Look up binding cross-references for an item path. Accepts either side: a Python path like pkg.mod.Item or a Rust path like crate::mod::Item."),
			mcp.WithString("project",
				mcp.Description("Project name as shown by list_projects"),
				mcp.Required(),
			),
			mcp.WithString("path",
				mcp.Description("Item display path on either side of the bridge"),
				mcp.Required(),
			),
		),
		s.handleLookupCrossRef,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"pydoc://{project}/{path}",
			"Documentation page",
			mcp.WithTemplateDescription("Read one documentation page as markdown. Listing and search results return these URIs."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

func pageURI(project, path string) string {
	return "pydoc://" + project + "/" + path
}

type pageEntry struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Synthesized bool   `json:"synthesized,omitempty"`
}

func (s *Server) handleListProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.Projects()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing projects failed: %v", err)), nil
	}

	type entry struct {
		Name    string `json:"name"`
		Version string `json:"version,omitempty"`
		BuiltAt string `json:"built_at"`
	}
	entries := make([]entry, 0, len(projects))
	for _, p := range projects {
		entries = append(entries, entry{Name: p.Name, Version: p.Version, BuiltAt: p.BuiltAt.Format("2006-01-02 15:04:05")})
	}
	resultJSON, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	project, _ := args["project"].(string)
	if project == "" {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}

	pages, err := s.store.ListPages(project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing pages failed: %v", err)), nil
	}
	entries := make([]pageEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, pageEntry{URI: pageURI(project, p.Path), Title: p.Title, Synthesized: p.Synthesized})
	}
	resultJSON, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleSearchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	project, _ := args["project"].(string)
	query, _ := args["query"].(string)
	if project == "" || query == "" {
		return mcp.NewToolResultError("missing required parameters: project, query"), nil
	}

	pages, err := s.store.SearchPages(project, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	entries := make([]pageEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, pageEntry{URI: pageURI(project, p.Path), Title: p.Title, Synthesized: p.Synthesized})
	}
	resultJSON, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleLookupCrossRef(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	project, _ := args["project"].(string)
	path, _ := args["path"].(string)
	if project == "" || path == "" {
		return mcp.NewToolResultError("missing required parameters: project, path"), nil
	}

	refs, err := s.store.LookupCrossRefs(project, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	resultJSON, _ := json.MarshalIndent(refs, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "pydoc://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	page, err := s.store.GetPage(parts[0], parts[1])
	if err != nil {
		return nil, fmt.Errorf("getting page: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     page.Content,
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
