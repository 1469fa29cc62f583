package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/agent/pipeline"
	errx "github.com/folio-agent/server/internal/core/error"
	logx "github.com/folio-agent/server/pkg/logger"
)

// Agent is the caller-facing entry point: one Respond call is one turn.
// The caller guarantees a single in-flight turn per session, which is what
// makes the check-then-set around the sent flag safe.
type Agent struct {
	sessions model.SessionRepository
	exec     *pipeline.Executor
}

// New wires the session repository and the turn pipeline together.
func New(sessions model.SessionRepository, exec *pipeline.Executor) (*Agent, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session repository is nil")
	}
	if exec == nil {
		return nil, fmt.Errorf("pipeline executor is nil")
	}
	return &Agent{sessions: sessions, exec: exec}, nil
}

// Respond runs one turn: load session, execute the pipeline, persist the
// session subset, return the answer.
func (a *Agent) Respond(ctx context.Context, in model.TurnInput) (string, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return "", errx.Contract("missing session id")
	}

	rec, err := a.sessions.LoadRecord(ctx, in.SessionID)
	if err != nil {
		return "", fmt.Errorf("load session record: %w", err)
	}
	// Role is declared once per session; a persisted role wins over the
	// caller's value on later turns.
	if rec.Role == "" {
		rec.Role = model.ParseRole(in.Role).String()
	}

	history, err := a.sessions.LoadHistory(ctx, in.SessionID)
	if err != nil {
		return "", fmt.Errorf("load chat history: %w", err)
	}

	state := model.NewConversationState(in.SessionID, in.Query, rec, history)
	if err := a.exec.Run(ctx, state); err != nil {
		return "", err
	}

	a.persist(ctx, state)
	return state.Answer(), nil
}

// persist writes the turn transcript and the session record back. Storage
// failures after a completed turn are logged loudly but do not take the
// answer away from the visitor.
func (a *Agent) persist(ctx context.Context, state *model.ConversationState) {
	if err := a.sessions.AddMessage(ctx, state.SessionID, schema.UserMessage(state.Query)); err != nil {
		logx.Error().Err(err).Str("session_id", state.SessionID).Msg("failed to persist user message")
	}
	if answer := state.Answer(); answer != "" {
		if err := a.sessions.AddMessage(ctx, state.SessionID, schema.AssistantMessage(answer, nil)); err != nil {
			logx.Error().Err(err).Str("session_id", state.SessionID).Msg("failed to persist assistant message")
		}
	}
	if err := a.sessions.SaveRecord(ctx, state.SessionID, state.Record()); err != nil {
		logx.Error().Err(err).Str("session_id", state.SessionID).Msg("failed to persist session record")
	}
}
