package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/agent/prompts"
)

func TestGenerationStageProducesAnswer(t *testing.T) {
	gen := &fakeGenerator{reply: "Dana built a streaming retrieval pipeline."}
	stage := NewGenerationStage(gen, testOwner(), 6)

	state := newState("what did you build?", model.SessionRecord{Role: "technical_evaluator"})
	state.RetrievedChunks = goodChunks()
	state.Stash[model.StashQueryType] = model.QueryTypeTechnical

	require.NoError(t, stage.Run(context.Background(), state))

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "Dana built a streaming retrieval pipeline.", state.Answer())

	// One system prompt, then the user query.
	require.NotEmpty(t, gen.lastIn)
	assert.Equal(t, schema.System, gen.lastIn[0].Role)
	assert.Equal(t, schema.User, gen.lastIn[len(gen.lastIn)-1].Role)
	assert.Contains(t, gen.lastIn[0].Content, "projects.md", "prompt must carry chunk sources")
}

func TestGenerationStageSkipsWhenAnswered(t *testing.T) {
	gen := &fakeGenerator{reply: "should not run"}
	stage := NewGenerationStage(gen, testOwner(), 6)

	state := newState("hi", model.SessionRecord{})
	require.NoError(t, state.SetAnswer("fallback already answered"))
	require.NoError(t, stage.Run(context.Background(), state))

	assert.Zero(t, gen.calls)
	assert.Equal(t, "fallback already answered", state.Answer())
}

func TestGenerationStageApologizesOnProviderError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("429 rate limit exceeded")}
	stage := NewGenerationStage(gen, testOwner(), 6)

	state := newState("question", model.SessionRecord{})
	state.RetrievedChunks = goodChunks()

	require.NoError(t, stage.Run(context.Background(), state))

	assert.Equal(t, prompts.GenerationApology, state.Answer())
	assert.Equal(t, "rate_limited", state.StashString(model.StashGenerationError))
}

func TestGenerationStageApologizesOnEmptyCompletion(t *testing.T) {
	gen := &fakeGenerator{reply: "   "}
	stage := NewGenerationStage(gen, testOwner(), 6)

	state := newState("question", model.SessionRecord{})
	state.RetrievedChunks = goodChunks()

	require.NoError(t, stage.Run(context.Background(), state))
	assert.Equal(t, prompts.GenerationApology, state.Answer())
}

func TestGenerationStageNilGeneratorApologizes(t *testing.T) {
	stage := NewGenerationStage(nil, testOwner(), 6)

	state := newState("question", model.SessionRecord{})
	require.NoError(t, stage.Run(context.Background(), state))

	assert.Equal(t, prompts.GenerationApology, state.Answer())
}

func TestGenerationStageBoundsHistoryTail(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	stage := NewGenerationStage(gen, testOwner(), 2)

	history := []*schema.Message{
		schema.UserMessage("turn one"),
		schema.AssistantMessage("answer one", nil),
		schema.UserMessage("turn two"),
		schema.AssistantMessage("answer two", nil),
	}
	state := newState("question", model.SessionRecord{}, history...)
	state.RetrievedChunks = goodChunks()

	require.NoError(t, stage.Run(context.Background(), state))

	// system + 2 history tail + current user query
	require.Len(t, gen.lastIn, 4)
	assert.Equal(t, "turn two", gen.lastIn[1].Content)
}

func TestErrKind(t *testing.T) {
	assert.Equal(t, "rate_limited", errKind(errors.New("429 too many requests")))
	assert.Equal(t, "timeout", errKind(errors.New("context deadline exceeded")))
	assert.Equal(t, "cancelled", errKind(errors.New("context canceled")))
	assert.Equal(t, "provider_error", errKind(errors.New("boom")))
}
