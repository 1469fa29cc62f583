package pipeline

import (
	"context"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/folio-agent/server/internal/agent/model"
)

// Collaborator fakes shared across the pipeline tests. Call counters let the
// tests assert short-circuit purity (which collaborators ran at all).

type fakeRetriever struct {
	chunks []model.RetrievedChunk
	err    error
	calls  int
	lastQ  string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]model.RetrievedChunk, error) {
	f.calls++
	f.lastQ = query
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

type fakeGenerator struct {
	reply  string
	err    error
	calls  int
	lastIn []*schema.Message
}

func (f *fakeGenerator) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	f.lastIn = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

type fakeSender struct {
	err    error
	calls  int
	lastTo string
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body, attachmentName string, attachment []byte) error {
	f.calls++
	f.lastTo = to
	return f.err
}

type fakeArtifacts struct {
	name  string
	data  []byte
	err   error
	calls int
}

func (f *fakeArtifacts) Fetch(ctx context.Context) (string, []byte, error) {
	f.calls++
	if f.err != nil {
		return "", nil, f.err
	}
	return f.name, f.data, nil
}

type fakeNotifier struct {
	err      error
	messages []string
}

func (f *fakeNotifier) Notify(ctx context.Context, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

type fakeAnalytics struct {
	err    error
	events []map[string]any
}

func (f *fakeAnalytics) Record(ctx context.Context, event map[string]any) error {
	f.events = append(f.events, event)
	return f.err
}

func testOwner() model.OwnerConfig {
	return model.OwnerConfig{Name: "Dana Reyes"}
}

func newState(query string, rec model.SessionRecord, history ...*schema.Message) *model.ConversationState {
	return model.NewConversationState("sess-1", query, rec, history)
}

func goodChunks() []model.RetrievedChunk {
	return []model.RetrievedChunk{
		{Content: "Dana built a streaming retrieval pipeline.", SourceID: "projects.md", Score: 0.82},
		{Content: "Latency stayed under 40ms at p99.", SourceID: "metrics.md", Score: 0.67},
	}
}

func answerContains(s *model.ConversationState, substr string) bool {
	return strings.Contains(s.Answer(), substr)
}
