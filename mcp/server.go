// Package mcp exposes the memory collection to MCP clients over stdio so
// editors and assistants can read and write memories through tool calls.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/sasa-gamer47/mindclone/memory"
	"github.com/sasa-gamer47/mindclone/session"
	"github.com/sasa-gamer47/mindclone/views"
)

const serverVersion = "1.0.0"

// maxListedMemories caps tool output so a large collection cannot blow up a
// client's context window.
const maxListedMemories = 25

// Server wraps an MCP stdio server over a session.
type Server struct {
	sess   *session.Session
	mcp    *server.MCPServer
	logger zerolog.Logger
}

// NewServer creates the MCP server and registers the memory tools.
func NewServer(sess *session.Session, logger zerolog.Logger) *Server {
	s := &Server{
		sess:   sess,
		logger: logger.With().Str("component", "mcpServer").Logger(),
	}

	s.mcp = server.NewMCPServer(
		"mindclone",
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("add_memory",
		mcp.WithDescription("Save a new memory. AI tag suggestions run automatically."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The memory content: note text or a URL"),
		),
		mcp.WithString("type",
			mcp.Description("Memory type: text or link (default text)"),
		),
	), s.handleAddMemory)

	s.mcp.AddTool(mcp.NewTool("search_memories",
		mcp.WithDescription("Search saved memories by text, tag, or type."),
		mcp.WithString("query",
			mcp.Description("Case-insensitive search over content, tags, and summaries"),
		),
		mcp.WithString("tag",
			mcp.Description("Only memories carrying this tag"),
		),
		mcp.WithString("type",
			mcp.Description("Only memories of this type: text, image, or link"),
		),
	), s.handleSearchMemories)

	s.mcp.AddTool(mcp.NewTool("recent_memories",
		mcp.WithDescription("List the most recently created memories."),
	), s.handleRecentMemories)

	s.mcp.AddTool(mcp.NewTool("ask_memories",
		mcp.WithDescription("Ask a question answered from the whole memory collection."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	), s.handleAskMemories)

	return s
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("Serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleAddMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	typ := memory.MemoryType(req.GetString("type", string(memory.TypeText)))
	if typ != memory.TypeText && typ != memory.TypeLink {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported memory type %q", typ)), nil
	}

	m, err := s.sess.CreateMemory(ctx, typ, content, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("add_memory failed")
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved memory %s with tags [%s]", m.ID, strings.Join(m.Tags, ", "))), nil
}

func (s *Server) handleSearchMemories(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filters := views.Filters{
		Search: req.GetString("query", ""),
		Tag:    req.GetString("tag", ""),
		Type:   memory.MemoryType(req.GetString("type", "")),
	}
	matches := views.Apply(s.sess.Snapshot(), filters)
	if len(matches) == 0 {
		return mcp.NewToolResultText("No memories matched."), nil
	}
	return mcp.NewToolResultText(formatMemories(matches)), nil
}

func (s *Server) handleRecentMemories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	memories := s.sess.Snapshot()
	if len(memories) == 0 {
		return mcp.NewToolResultText("No memories saved yet."), nil
	}
	return mcp.NewToolResultText(formatMemories(memories)), nil
}

func (s *Server) handleAskMemories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.sess.QueryAll(ctx, question)
	if err != nil {
		s.logger.Error().Err(err).Msg("ask_memories failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := result.Text
	if len(result.MemoryIDs) > 0 {
		text += "\n\nCited memories: " + strings.Join(result.MemoryIDs, ", ")
	}
	return mcp.NewToolResultText(text), nil
}

func formatMemories(memories []memory.Memory) string {
	hidden := 0
	if len(memories) > maxListedMemories {
		hidden = len(memories) - maxListedMemories
		memories = memories[:maxListedMemories]
	}

	lines := lo.Map(memories, func(m memory.Memory, _ int) string {
		preview := m.Content
		if m.Type == memory.TypeImage {
			preview = m.Description
			if preview == "" {
				preview = "(image)"
			}
		}
		if len([]rune(preview)) > 120 {
			preview = string([]rune(preview)[:120]) + "..."
		}
		line := fmt.Sprintf("%s [%s] %s", m.ID, m.Type, preview)
		if len(m.Tags) > 0 {
			line += " (tags: " + strings.Join(m.Tags, ", ") + ")"
		}
		return line
	})

	out := strings.Join(lines, "\n")
	if hidden > 0 {
		out += fmt.Sprintf("\n... and %d more", hidden)
	}
	return out
}
