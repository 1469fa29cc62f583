package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/agent/pipeline"
)

// memorySessions is an in-memory SessionRepository for exercising the
// load/run/persist loop without Redis.
type memorySessions struct {
	records  map[string]model.SessionRecord
	history  map[string][]*schema.Message
	loadErr  error
	saveErr  error
	histErr  error
	addErr   error
	saveSeen int
}

func newMemorySessions() *memorySessions {
	return &memorySessions{
		records: make(map[string]model.SessionRecord),
		history: make(map[string][]*schema.Message),
	}
}

func (m *memorySessions) LoadRecord(ctx context.Context, sessionID string) (model.SessionRecord, error) {
	if m.loadErr != nil {
		return model.SessionRecord{}, m.loadErr
	}
	return m.records[sessionID], nil
}

func (m *memorySessions) SaveRecord(ctx context.Context, sessionID string, rec model.SessionRecord) error {
	m.saveSeen++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[sessionID] = rec
	return nil
}

func (m *memorySessions) AddMessage(ctx context.Context, sessionID string, message *schema.Message) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.history[sessionID] = append(m.history[sessionID], message)
	return nil
}

func (m *memorySessions) LoadHistory(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	if m.histErr != nil {
		return nil, m.histErr
	}
	return m.history[sessionID], nil
}

func (m *memorySessions) ClearSession(ctx context.Context, sessionID string) error {
	delete(m.records, sessionID)
	delete(m.history, sessionID)
	return nil
}

var _ model.SessionRepository = (*memorySessions)(nil)

// answerStage is a minimal pipeline that echoes a fixed answer.
func answerStage(answer string) *pipeline.Executor {
	return pipeline.NewExecutor(pipeline.Stage{
		Name: "answer",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			return state.SetAnswer(answer)
		},
	})
}

func TestNewValidatesCollaborators(t *testing.T) {
	_, err := New(nil, answerStage("x"))
	assert.Error(t, err)

	_, err = New(newMemorySessions(), nil)
	assert.Error(t, err)
}

func TestRespondRequiresSessionID(t *testing.T) {
	a, err := New(newMemorySessions(), answerStage("hi"))
	require.NoError(t, err)

	_, err = a.Respond(context.Background(), model.TurnInput{SessionID: "  ", Query: "q"})
	assert.Error(t, err)
}

func TestRespondPersistsTurn(t *testing.T) {
	sessions := newMemorySessions()
	a, err := New(sessions, answerStage("the answer"))
	require.NoError(t, err)

	out, err := a.Respond(context.Background(), model.TurnInput{
		SessionID: "s1",
		Role:      "technical_evaluator",
		Query:     "how does it work?",
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)

	require.Len(t, sessions.history["s1"], 2)
	assert.Equal(t, schema.User, sessions.history["s1"][0].Role)
	assert.Equal(t, "how does it work?", sessions.history["s1"][0].Content)
	assert.Equal(t, schema.Assistant, sessions.history["s1"][1].Role)
	assert.Equal(t, "technical_evaluator", sessions.records["s1"].Role)
}

func TestRespondPersistedRoleWins(t *testing.T) {
	sessions := newMemorySessions()
	sessions.records["s1"] = model.SessionRecord{Role: "hiring_manager"}

	a, err := New(sessions, answerStage("ok"))
	require.NoError(t, err)

	_, err = a.Respond(context.Background(), model.TurnInput{
		SessionID: "s1",
		Role:      "casual_visitor",
		Query:     "q",
	})
	require.NoError(t, err)
	assert.Equal(t, "hiring_manager", sessions.records["s1"].Role)
}

func TestRespondUnknownRoleDefaults(t *testing.T) {
	sessions := newMemorySessions()
	a, err := New(sessions, answerStage("ok"))
	require.NoError(t, err)

	_, err = a.Respond(context.Background(), model.TurnInput{SessionID: "s1", Role: "astronaut", Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "casual_visitor", sessions.records["s1"].Role)
}

func TestRespondStorageLoadFailureIsFatal(t *testing.T) {
	sessions := newMemorySessions()
	sessions.loadErr = errors.New("redis down")

	a, err := New(sessions, answerStage("ok"))
	require.NoError(t, err)

	_, err = a.Respond(context.Background(), model.TurnInput{SessionID: "s1", Query: "q"})
	assert.ErrorContains(t, err, "load session record")
}

func TestRespondPersistFailureKeepsAnswer(t *testing.T) {
	sessions := newMemorySessions()
	sessions.saveErr = errors.New("redis down")
	sessions.addErr = errors.New("redis down")

	a, err := New(sessions, answerStage("still yours"))
	require.NoError(t, err)

	out, err := a.Respond(context.Background(), model.TurnInput{SessionID: "s1", Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "still yours", out)
	assert.Equal(t, 1, sessions.saveSeen)
}

func TestRespondPipelineErrorPropagates(t *testing.T) {
	sessions := newMemorySessions()
	broken := pipeline.NewExecutor(pipeline.Stage{
		Name: "broken",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			return errors.New("contract violated")
		},
	})
	a, err := New(sessions, broken)
	require.NoError(t, err)

	_, err = a.Respond(context.Background(), model.TurnInput{SessionID: "s1", Query: "q"})
	assert.Error(t, err)
	assert.Zero(t, sessions.saveSeen, "a failed turn must not persist state")
}
