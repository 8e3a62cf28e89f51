package mcp

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/sasa-gamer47/mindclone/gateway"
	"github.com/sasa-gamer47/mindclone/llm"
	"github.com/sasa-gamer47/mindclone/memory"
	"github.com/sasa-gamer47/mindclone/migrations"
	"github.com/sasa-gamer47/mindclone/session"
)

type stubClient struct {
	responses []string
	calls     int
}

func (c *stubClient) Synchronous(_ context.Context, _ *llm.Request) (*llm.Response, error) {
	text := ""
	if c.calls < len(c.responses) {
		text = c.responses[c.calls]
	}
	c.calls++
	return &llm.Response{
		Content: []llm.ContentBlock{{Type: llm.ContentBlockTypeText, Text: text}},
	}, nil
}

func setupServer(t *testing.T, client llm.Client) *Server {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.RunMigrations(db, zerolog.Nop()); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	store := memory.NewStore(db, zerolog.Nop())
	repo, err := memory.NewRepository(context.Background(), store, zerolog.Nop())
	if err != nil {
		t.Fatalf("repository: %v", err)
	}

	gw := gateway.New(client, "test-model", zerolog.Nop())
	sess := session.New(repo, gw, zerolog.Nop(), session.Options{})
	return NewServer(sess, zerolog.Nop())
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestAddThenSearchRoundTrip(t *testing.T) {
	s := setupServer(t, &stubClient{responses: []string{`{"tags":["cooking"]}`}})

	res, err := s.handleAddMemory(context.Background(), callRequest("add_memory", map[string]any{
		"content": "pasta recipe with garlic and basil",
	}))
	if err != nil {
		t.Fatalf("add_memory: %v", err)
	}
	if out := resultText(t, res); !strings.Contains(out, "cooking") {
		t.Errorf("add output = %q, want suggested tag echoed", out)
	}

	res, err = s.handleSearchMemories(context.Background(), callRequest("search_memories", map[string]any{
		"query": "garlic",
	}))
	if err != nil {
		t.Fatalf("search_memories: %v", err)
	}
	if out := resultText(t, res); !strings.Contains(out, "pasta recipe") {
		t.Errorf("search output = %q", out)
	}

	res, err = s.handleSearchMemories(context.Background(), callRequest("search_memories", map[string]any{
		"query": "quantum physics",
	}))
	if err != nil {
		t.Fatalf("search_memories: %v", err)
	}
	if out := resultText(t, res); out != "No memories matched." {
		t.Errorf("no-match output = %q", out)
	}
}

func TestAddMemoryRejectsImageType(t *testing.T) {
	s := setupServer(t, &stubClient{})

	res, err := s.handleAddMemory(context.Background(), callRequest("add_memory", map[string]any{
		"content": "something",
		"type":    "image",
	}))
	if err != nil {
		t.Fatalf("add_memory: %v", err)
	}
	if !res.IsError {
		t.Error("image type over MCP must be rejected")
	}
}

func TestRecentMemoriesEmptyCollection(t *testing.T) {
	s := setupServer(t, &stubClient{})

	res, err := s.handleRecentMemories(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("recent_memories: %v", err)
	}
	if out := resultText(t, res); out != "No memories saved yet." {
		t.Errorf("output = %q", out)
	}
}

func TestAskMemoriesReportsCitations(t *testing.T) {
	client := &stubClient{responses: []string{`{"tags":[]}`}}
	s := setupServer(t, client)

	if _, err := s.handleAddMemory(context.Background(), callRequest("add_memory", map[string]any{
		"content": "go uses goroutines",
	})); err != nil {
		t.Fatalf("add_memory: %v", err)
	}

	snapshot := s.sess.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("snapshot = %d memories", len(snapshot))
	}
	client.responses = append(client.responses,
		"Goroutines are lightweight threads.\nRelevant Memories: ["+snapshot[0].ID+"]")

	res, err := s.handleAskMemories(context.Background(), callRequest("ask_memories", map[string]any{
		"question": "what did I save about go?",
	}))
	if err != nil {
		t.Fatalf("ask_memories: %v", err)
	}
	out := resultText(t, res)
	if !strings.Contains(out, "lightweight threads") || !strings.Contains(out, snapshot[0].ID) {
		t.Errorf("output = %q", out)
	}
}
