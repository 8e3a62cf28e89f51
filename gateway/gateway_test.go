package gateway

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/sasa-gamer47/mindclone/llm"
	"github.com/sasa-gamer47/mindclone/memory"
)

// stubClient replays canned responses and records every request it saw.
type stubClient struct {
	responses []string
	err       error
	requests  []*llm.Request
}

func (s *stubClient) Synchronous(_ context.Context, req *llm.Request) (*llm.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	idx := len(s.requests) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return &llm.Response{
		Content: []llm.ContentBlock{{Type: llm.ContentBlockTypeText, Text: s.responses[idx]}},
	}, nil
}

func testGateway(stub *stubClient) *Gateway {
	return New(stub, "test-model", zerolog.Nop())
}

func TestDecodeJSONStripsFencesAndProse(t *testing.T) {
	cases := []string{
		`{"title":"t"}`,
		"```json\n{\"title\":\"t\"}\n```",
		"```\n{\"title\":\"t\"}\n```",
		"Here is the summary you asked for:\n{\"title\":\"t\"}\nHope that helps!",
	}
	for _, raw := range cases {
		var out struct {
			Title string `json:"title"`
		}
		if err := decodeJSON(raw, &out); err != nil {
			t.Errorf("decodeJSON(%q): %v", raw, err)
			continue
		}
		if out.Title != "t" {
			t.Errorf("decodeJSON(%q) title = %q", raw, out.Title)
		}
	}

	var out map[string]any
	if err := decodeJSON("no json here at all", &out); err == nil {
		t.Error("expected an error for a response with no JSON object")
	}
}

func TestCompleteDoesNotRetryPermanentErrors(t *testing.T) {
	stub := &stubClient{err: llm.NewInvalidRequestError("bad request", nil)}
	g := testGateway(stub)

	if _, err := g.complete(context.Background(), &llm.Request{}); err == nil {
		t.Fatal("expected error")
	}
	if len(stub.requests) != 1 {
		t.Errorf("permanent error retried %d times", len(stub.requests))
	}
}

func TestCompleteFillsModelAndTokenDefaults(t *testing.T) {
	stub := &stubClient{responses: []string{"ok"}}
	g := testGateway(stub)

	if _, err := g.complete(context.Background(), &llm.Request{}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	req := stub.requests[0]
	if req.Model != "test-model" {
		t.Errorf("model = %q", req.Model)
	}
	if req.MaxTokens != defaultMaxTokens {
		t.Errorf("max tokens = %d", req.MaxTokens)
	}
}

func TestGenerateSmartSummaryParsesAndCapsKeyPoints(t *testing.T) {
	stub := &stubClient{responses: []string{
		"```json\n{\"title\":\"Trip Notes\",\"summary\":\"A summary.\",\"keyPoints\":[\"a\",\"b\",\"c\",\"d\"]}\n```",
	}}
	g := testGateway(stub)

	summary, err := g.GenerateSmartSummary(context.Background(), "some long text")
	if err != nil {
		t.Fatalf("GenerateSmartSummary: %v", err)
	}
	if summary.Title != "Trip Notes" || summary.Summary != "A summary." {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.KeyPoints) != 3 {
		t.Errorf("key points = %v", summary.KeyPoints)
	}
}

func TestSuggestTagsNormalizesAndCaps(t *testing.T) {
	stub := &stubClient{responses: []string{
		`{"tags":["Work","work","PROJECT","go","api","extra","more"]}`,
	}}
	g := testGateway(stub)

	tags := g.SuggestTags(context.Background(), "new content", nil)
	if len(tags) != 5 {
		t.Fatalf("tags = %v", tags)
	}
	for _, tag := range tags {
		if tag != strings.ToLower(tag) {
			t.Errorf("tag %q not lowercased", tag)
		}
	}
}

func TestSuggestTagsLimitsContextToTaggedMemories(t *testing.T) {
	stub := &stubClient{responses: []string{`{"tags":["a"]}`}}
	g := testGateway(stub)

	var existing []memory.Memory
	for i := 0; i < 30; i++ {
		existing = append(existing, memory.Memory{
			ID:      fmt.Sprintf("mem_%d_x", i),
			Type:    memory.TypeText,
			Content: fmt.Sprintf("memory number %d", i),
			Tags:    []string{fmt.Sprintf("tag%d", i)},
		})
	}
	existing = append(existing, memory.Memory{ID: "mem_untagged", Type: memory.TypeText, Content: "no tags"})

	g.SuggestTags(context.Background(), "new content", existing)

	prompt := stub.requests[0].Messages[0].Content[0].Text
	if strings.Contains(prompt, "tag25") {
		t.Error("context should stop at 20 tagged memories")
	}
	if !strings.Contains(prompt, "tag19") {
		t.Error("context should include the first 20 tagged memories")
	}
	if strings.Contains(prompt, "no tags") {
		t.Error("untagged memories must not appear in the context")
	}
}

func TestSuggestTagsReturnsEmptyOnFailure(t *testing.T) {
	stub := &stubClient{err: llm.NewInvalidRequestError("boom", nil)}
	g := testGateway(stub)

	if tags := g.SuggestTags(context.Background(), "content", nil); len(tags) != 0 {
		t.Errorf("tags = %v, want none on failure", tags)
	}
}

func TestFindRelatedFiltersSelfAndUnknownIDs(t *testing.T) {
	stub := &stubClient{responses: []string{
		`{"relatedIds":["mem_2_b","mem_1_a","mem_999_fake","mem_2_b"]}`,
	}}
	g := testGateway(stub)

	target := memory.Memory{ID: "mem_1_a", Type: memory.TypeText, Content: "target"}
	all := []memory.Memory{
		target,
		{ID: "mem_2_b", Type: memory.TypeText, Content: "candidate"},
	}

	related := g.FindRelated(context.Background(), target, all)
	if len(related) != 1 || related[0] != "mem_2_b" {
		t.Errorf("related = %v", related)
	}

	prompt := stub.requests[0].Messages[0].Content[0].Text
	if strings.Count(prompt, "- ID: mem_1_a") != 1 {
		t.Error("target must appear once, never as a candidate")
	}
}

func TestFindRelatedNoCandidatesSkipsInference(t *testing.T) {
	stub := &stubClient{responses: []string{`{"relatedIds":[]}`}}
	g := testGateway(stub)

	target := memory.Memory{ID: "mem_1_a", Type: memory.TypeText, Content: "target"}
	if related := g.FindRelated(context.Background(), target, []memory.Memory{target}); related != nil {
		t.Errorf("related = %v", related)
	}
	if len(stub.requests) != 0 {
		t.Error("no inference call expected without candidates")
	}
}

func TestQueryAllEmptyCollectionSkipsInference(t *testing.T) {
	stub := &stubClient{responses: []string{"unused"}}
	g := testGateway(stub)

	result, err := g.QueryAll(context.Background(), "what do I know?", nil, nil)
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if result.Text != emptyCollectionAnswer || len(result.MemoryIDs) != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(stub.requests) != 0 {
		t.Error("no inference call expected for an empty collection")
	}
}

func TestQueryAllParsesAndStripsCitationTrailer(t *testing.T) {
	stub := &stubClient{responses: []string{
		"You noted two things about Go.\nRelevant Memories: [mem_1_a, mem_2_b]",
	}}
	g := testGateway(stub)

	memories := []memory.Memory{
		{ID: "mem_1_a", Type: memory.TypeText, Content: "go is fun"},
		{ID: "mem_2_b", Type: memory.TypeText, Content: "go has channels"},
	}
	result, err := g.QueryAll(context.Background(), "what about go?", nil, memories)
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if result.Text != "You noted two things about Go." {
		t.Errorf("text = %q", result.Text)
	}
	if len(result.MemoryIDs) != 2 || result.MemoryIDs[0] != "mem_1_a" || result.MemoryIDs[1] != "mem_2_b" {
		t.Errorf("memory ids = %v", result.MemoryIDs)
	}
}

func TestQueryAllEmptyTrailerYieldsNoIDs(t *testing.T) {
	stub := &stubClient{responses: []string{"Nothing relevant.\nRelevant Memories: []"}}
	g := testGateway(stub)

	memories := []memory.Memory{{ID: "mem_1_a", Type: memory.TypeText, Content: "x"}}
	result, err := g.QueryAll(context.Background(), "anything?", nil, memories)
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if result.Text != "Nothing relevant." || len(result.MemoryIDs) != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestInsightsFallbacks(t *testing.T) {
	// Fewer than 3 memories: canned prompts, no inference.
	stub := &stubClient{responses: []string{"unused"}}
	g := testGateway(stub)

	insights := g.Insights(context.Background(), []memory.Memory{
		{ID: "mem_1_a", Type: memory.TypeText, Content: "only one"},
	})
	if len(insights) != 3 || insights[0] != fallbackInsights[0] {
		t.Errorf("insights = %v", insights)
	}
	if len(stub.requests) != 0 {
		t.Error("no inference call expected for a tiny collection")
	}

	// Inference failure: same canned prompts.
	failing := &stubClient{err: llm.NewInvalidRequestError("boom", nil)}
	g = testGateway(failing)
	many := []memory.Memory{
		{ID: "mem_1_a", Type: memory.TypeText, Content: "a"},
		{ID: "mem_2_b", Type: memory.TypeText, Content: "b"},
		{ID: "mem_3_c", Type: memory.TypeText, Content: "c"},
	}
	if insights := g.Insights(context.Background(), many); len(insights) != 3 || insights[1] != fallbackInsights[1] {
		t.Errorf("insights = %v", insights)
	}
}

func TestInsightsParsesModelResponse(t *testing.T) {
	stub := &stubClient{responses: []string{
		`{"insights":["Summarize my Go notes","Compare my two trip plans","Draft a post about caching"]}`,
	}}
	g := testGateway(stub)

	many := []memory.Memory{
		{ID: "mem_1_a", Type: memory.TypeText, Content: "a"},
		{ID: "mem_2_b", Type: memory.TypeText, Content: "b"},
		{ID: "mem_3_c", Type: memory.TypeText, Content: "c"},
	}
	insights := g.Insights(context.Background(), many)
	if len(insights) != 3 || insights[0] != "Summarize my Go notes" {
		t.Errorf("insights = %v", insights)
	}
}

func TestInsightsClampedToThree(t *testing.T) {
	many := []memory.Memory{
		{ID: "mem_1_a", Type: memory.TypeText, Content: "a"},
		{ID: "mem_2_b", Type: memory.TypeText, Content: "b"},
		{ID: "mem_3_c", Type: memory.TypeText, Content: "c"},
	}

	stub := &stubClient{responses: []string{
		`{"insights":["one","two","three","four","five"]}`,
	}}
	insights := testGateway(stub).Insights(context.Background(), many)
	if len(insights) != 3 || insights[2] != "three" {
		t.Errorf("overlong model list: insights = %v", insights)
	}

	stub = &stubClient{responses: []string{`{"insights":["one","two"]}`}}
	insights = testGateway(stub).Insights(context.Background(), many)
	if len(insights) != 3 || insights[0] != fallbackInsights[0] {
		t.Errorf("short model list must fall back: insights = %v", insights)
	}
}

func TestRetryAfterBackOffRaisesNextWait(t *testing.T) {
	hint := 50 * time.Millisecond
	rb := &retryAfterBackOff{BackOff: backoff.NewConstantBackOff(10 * time.Millisecond)}

	rb.hint = &hint
	if got := rb.NextBackOff(); got != 50*time.Millisecond {
		t.Errorf("hinted wait = %v, want 50ms", got)
	}
	// The hint covers one wait only.
	if got := rb.NextBackOff(); got != 10*time.Millisecond {
		t.Errorf("wait after hint consumed = %v, want 10ms", got)
	}

	// A hint shorter than the policy's own interval never lowers the wait.
	short := 1 * time.Millisecond
	rb.hint = &short
	if got := rb.NextBackOff(); got != 10*time.Millisecond {
		t.Errorf("short hint must not shrink the wait, got %v", got)
	}
}
