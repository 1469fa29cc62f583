package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/agent/prompts"
)

func testPipelineConfig() Config {
	return Config{
		Owner:           testOwner(),
		Retrieval:       model.RetrievalConfig{TopK: 4, MinScore: 0.4},
		Planner:         model.PlannerConfig{SignalThreshold: 2},
		HistoryMaxTurns: 6,
	}
}

func TestExecutorStageOrder(t *testing.T) {
	exec := New(testPipelineConfig(), &fakeRetriever{}, &fakeGenerator{}, ActionRuntime{})
	assert.Equal(t, []string{
		"greeting",
		"classify",
		"detect_signals",
		"detect_request",
		"retrieve",
		"generate",
		"plan",
		"execute",
	}, exec.StageNames())
}

func TestExecutorNilState(t *testing.T) {
	exec := NewExecutor()
	require.Error(t, exec.Run(context.Background(), nil))
}

func TestExecutorHaltSkipsRemainingStages(t *testing.T) {
	var ran []string
	mk := func(name string, halt bool) Stage {
		return Stage{Name: name, Run: func(ctx context.Context, state *model.ConversationState) error {
			ran = append(ran, name)
			if halt {
				state.Halt()
			}
			return nil
		}}
	}
	exec := NewExecutor(mk("first", false), mk("second", true), mk("third", false))

	state := newState("q", model.SessionRecord{})
	require.NoError(t, exec.Run(context.Background(), state))
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestExecutorWrapsStageErrors(t *testing.T) {
	boom := errors.New("boom")
	exec := NewExecutor(Stage{Name: "broken", Run: func(ctx context.Context, state *model.ConversationState) error {
		return boom
	}})

	err := exec.Run(context.Background(), newState("q", model.SessionRecord{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestExecutorHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewExecutor(Stage{Name: "never", Run: func(ctx context.Context, state *model.ConversationState) error {
		t.Fatal("stage must not run after cancellation")
		return nil
	}})
	err := exec.Run(ctx, newState("q", model.SessionRecord{}))
	assert.ErrorIs(t, err, context.Canceled)
}

// Scenario: a bare greeting on the first turn answers instantly and touches
// no collaborator at all.
func TestTurnGreetingShortCircuitIsPure(t *testing.T) {
	retriever := &fakeRetriever{chunks: goodChunks()}
	gen := &fakeGenerator{reply: "unused"}
	rt, sender, artifacts, notifier, analytics := fullRuntime()
	exec := New(testPipelineConfig(), retriever, gen, rt)

	state := newState("hello!", model.SessionRecord{Role: "technical_evaluator"})
	require.NoError(t, exec.Run(context.Background(), state))

	assert.True(t, state.StashBool(model.StashIsGreeting))
	assert.NotEmpty(t, state.Answer())
	assert.Zero(t, retriever.calls)
	assert.Zero(t, gen.calls)
	assert.Zero(t, sender.calls)
	assert.Zero(t, artifacts.calls)
	assert.Empty(t, notifier.messages)
	assert.Empty(t, analytics.events)
}

// Scenario: a grounded technical question produces a generated answer and an
// analytics record, nothing else.
func TestTurnGroundedTechnicalQuestion(t *testing.T) {
	retriever := &fakeRetriever{chunks: goodChunks()}
	gen := &fakeGenerator{reply: "The pipeline streams chunks through a Redis-backed queue."}
	rt, sender, _, _, analytics := fullRuntime()
	exec := New(testPipelineConfig(), retriever, gen, rt)

	state := newState("how did you design the retrieval pipeline?", model.SessionRecord{Role: "technical_evaluator"})
	require.NoError(t, exec.Run(context.Background(), state))

	assert.Equal(t, "The pipeline streams chunks through a Redis-backed queue.", state.Answer())
	assert.Equal(t, model.QueryTypeTechnical, state.StashString(model.StashQueryType))
	assert.Equal(t, 1, retriever.calls)
	assert.Equal(t, 1, gen.calls)
	assert.Zero(t, sender.calls)
	require.Len(t, analytics.events, 1)
	assert.Equal(t, ModeDefault, analytics.events[0]["mode"])
}

// Scenario: retrieval comes back empty, so the turn answers with the honest
// fallback and never calls the model.
func TestTurnUngroundedQuestionFallsBack(t *testing.T) {
	retriever := &fakeRetriever{}
	gen := &fakeGenerator{reply: "unused"}
	rt, _, _, _, analytics := fullRuntime()
	exec := New(testPipelineConfig(), retriever, gen, rt)

	state := newState("what's your favorite pizza topping?", model.SessionRecord{})
	require.NoError(t, exec.Run(context.Background(), state))

	assert.True(t, state.StashBool(model.StashFallbackUsed))
	assert.Zero(t, gen.calls)
	assert.True(t, answerContains(state, "pizza"))
	require.Len(t, analytics.events, 1)
	assert.Equal(t, true, analytics.events[0]["fallback_used"])
}

// Scenario: hiring signals accumulate across turns; once two distinct ones
// are present the availability mention is appended exactly once.
func TestTurnSubtleAwarenessAcrossTurns(t *testing.T) {
	retriever := &fakeRetriever{chunks: goodChunks()}
	gen := &fakeGenerator{reply: "Plenty of distributed systems work."}
	rt, _, _, _, _ := fullRuntime()
	exec := New(testPipelineConfig(), retriever, gen, rt)

	// Turn 1: one signal, default mode.
	first := newState("we're hiring backend folks, what has Dana built?", model.SessionRecord{})
	require.NoError(t, exec.Run(context.Background(), first))
	assert.Equal(t, ModeDefault, first.StashString(model.StashTurnMode))
	assert.False(t, first.AvailabilityMentioned)

	// Turn 2: a second distinct signal arrives via the persisted record.
	second := newState("the position requires Go experience, tell me more", first.Record())
	require.NoError(t, exec.Run(context.Background(), second))
	assert.Equal(t, ModeSubtle, second.StashString(model.StashTurnMode))
	assert.True(t, second.AvailabilityMentioned)
	assert.True(t, answerContains(second, "open to new opportunities"))

	// Turn 3: the mention never repeats.
	third := newState("what about their team experience?", second.Record())
	require.NoError(t, exec.Run(context.Background(), third))
	assert.Equal(t, ModeDefault, third.StashString(model.StashTurnMode))
	assert.False(t, answerContains(third, "open to new opportunities"))
}

// Scenario: an explicit request with an email in the same message triggers a
// single delivery plus owner notification; the follow-up turn gathers job
// details instead of resending.
func TestTurnExplicitRequestDeliversOnce(t *testing.T) {
	retriever := &fakeRetriever{chunks: goodChunks()}
	gen := &fakeGenerator{reply: "Happy to help."}
	rt, sender, _, notifier, _ := fullRuntime()
	exec := New(testPipelineConfig(), retriever, gen, rt)

	first := newState("please send your resume to jane@co.com", model.SessionRecord{Role: "hiring_manager"})
	require.NoError(t, exec.Run(context.Background(), first))

	assert.Equal(t, ModeDeepDive, first.StashString(model.StashTurnMode))
	assert.True(t, first.ResumeSent)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "jane@co.com", sender.lastTo)
	require.Len(t, notifier.messages, 1)

	second := newState("thanks, that was quick", first.Record())
	require.NoError(t, exec.Run(context.Background(), second))

	assert.Equal(t, 1, sender.calls, "the document must go out at most once per session")
	assert.True(t, answerContains(second, "company and role"))
}

// Scenario: the visitor answers the job-details question; company and
// position are captured and the question never repeats.
func TestTurnJobDetailsCapturedAfterSend(t *testing.T) {
	retriever := &fakeRetriever{chunks: goodChunks()}
	gen := &fakeGenerator{reply: "Happy to help."}
	rt, _, _, _, _ := fullRuntime()
	exec := New(testPipelineConfig(), retriever, gen, rt)

	first := newState("please send your resume to jane@co.com", model.SessionRecord{Role: "hiring_manager"})
	require.NoError(t, exec.Run(context.Background(), first))
	require.True(t, first.ResumeSent)

	second := newState("It's for Acme Corp, the Backend Engineer position.", first.Record())
	require.NoError(t, exec.Run(context.Background(), second))

	assert.Equal(t, "Acme Corp", second.JobDetails["company"])
	assert.Equal(t, "Backend Engineer", second.JobDetails["position"])
	assert.False(t, answerContains(second, "company and role"))

	third := newState("great, talk soon", second.Record())
	require.NoError(t, exec.Run(context.Background(), third))
	assert.False(t, answerContains(third, "company and role"))
}

// Scenario: asking again after delivery explains the document already went
// out instead of sending a duplicate.
func TestTurnResendRequestExplainsAlreadySent(t *testing.T) {
	retriever := &fakeRetriever{chunks: goodChunks()}
	gen := &fakeGenerator{reply: "Happy to help."}
	rt, sender, _, notifier, _ := fullRuntime()
	exec := New(testPipelineConfig(), retriever, gen, rt)

	rec := model.SessionRecord{
		Role:                      "hiring_manager",
		ResumeExplicitlyRequested: true,
		ResumeSent:                true,
		ContactEmail:              "jane@co.com",
		JobDetails:                map[string]string{"company": "Acme", "position": "Backend Engineer"},
	}
	state := newState("Can you resend the résumé?", rec)
	require.NoError(t, exec.Run(context.Background(), state))

	assert.Zero(t, sender.calls)
	assert.Empty(t, notifier.messages)
	assert.True(t, answerContains(state, "already went out"))
	assert.True(t, answerContains(state, "jane@co.com"))
}

// Scenario: explicit request without a known address asks for one, captures
// it next turn, then delivers.
func TestTurnRequestThenContactCapture(t *testing.T) {
	retriever := &fakeRetriever{chunks: goodChunks()}
	gen := &fakeGenerator{reply: "Of course."}
	rt, sender, _, _, _ := fullRuntime()
	exec := New(testPipelineConfig(), retriever, gen, rt)

	first := newState("can I get a copy of the resume?", model.SessionRecord{})
	require.NoError(t, exec.Run(context.Background(), first))

	assert.False(t, first.ResumeSent)
	assert.Zero(t, sender.calls)
	assert.True(t, answerContains(first, "email"))
	assert.True(t, first.ResumeExplicitlyRequested)

	second := newState("sure, it's jane@co.com", first.Record())
	require.NoError(t, exec.Run(context.Background(), second))

	assert.Equal(t, "jane@co.com", second.ContactEmail)
	assert.True(t, second.ResumeSent)
	assert.Equal(t, 1, sender.calls)
}

// Scenario: the model provider fails but the turn still completes with an
// apology and an analytics record carrying the failure kind.
func TestTurnGenerationFailureDegrades(t *testing.T) {
	retriever := &fakeRetriever{chunks: goodChunks()}
	gen := &fakeGenerator{err: errors.New("503 service unavailable")}
	rt, _, _, _, analytics := fullRuntime()
	exec := New(testPipelineConfig(), retriever, gen, rt)

	state := newState("walk me through the architecture", model.SessionRecord{})
	require.NoError(t, exec.Run(context.Background(), state))

	assert.Equal(t, prompts.GenerationApology, state.Answer())
	assert.Equal(t, "provider_error", state.StashString(model.StashGenerationError))
	require.Len(t, analytics.events, 1)
}
