package pipeline

import (
	"context"
	"fmt"

	"github.com/folio-agent/server/internal/agent/model"
	errx "github.com/folio-agent/server/internal/core/error"
	logx "github.com/folio-agent/server/pkg/logger"
)

// Stage is one step of the turn pipeline. Stages mutate the shared state in
// a single-writer-per-field discipline and recover collaborator failures
// locally; a returned error always means a pipeline contract violation.
type Stage struct {
	Name string
	Run  func(ctx context.Context, state *model.ConversationState) error
}

// Executor runs the ordered stage list for one turn. It is the only
// component aware of stage ordering, and it honors the short-circuit signal:
// once a stage halts the state, no further stage runs.
type Executor struct {
	stages []Stage
}

// NewExecutor builds an executor over the given ordered stages.
func NewExecutor(stages ...Stage) *Executor {
	return &Executor{stages: stages}
}

// StageNames returns the configured order, useful for wiring audits in tests.
func (e *Executor) StageNames() []string {
	names := make([]string, len(e.stages))
	for i, s := range e.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes the pipeline for one turn, sequentially to completion.
func (e *Executor) Run(ctx context.Context, state *model.ConversationState) error {
	if state == nil {
		return errx.Contract("executor invoked with nil state")
	}
	for _, stage := range e.stages {
		if state.Halted() {
			logx.Debug().
				Str("session_id", state.SessionID).
				Str("next_stage", stage.Name).
				Msg("Turn short-circuited, skipping remaining stages")
			break
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("turn cancelled before stage %s: %w", stage.Name, err)
		}
		if err := stage.Run(ctx, state); err != nil {
			return fmt.Errorf("stage %s: %w", stage.Name, err)
		}
	}
	return nil
}
