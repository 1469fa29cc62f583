package pipeline

import (
	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/knowledge"
)

// Config gathers everything the pipeline stages need.
type Config struct {
	Owner     model.OwnerConfig
	Retrieval model.RetrievalConfig
	Planner   model.PlannerConfig
	// HistoryMaxTurns bounds the chat-history tail handed to generation.
	HistoryMaxTurns int
}

// New assembles the fixed stage order for one turn:
//
//	greeting → classify → detect_signals → detect_request →
//	retrieve → generate → plan → execute
//
// The greeting stage may short-circuit the whole turn; the grounding gate in
// retrieve may pre-empt generation. Everything else always runs in order.
func New(cfg Config, retriever knowledge.Retriever, gen Generator, rt ActionRuntime) *Executor {
	if rt.Owner.Name == "" {
		rt.Owner = cfg.Owner
	}
	return NewExecutor(
		NewGreetingStage(cfg.Owner),
		NewClassifierStage(),
		NewSignalStage(),
		NewRequestStage(),
		NewRetrievalStage(retriever, cfg.Retrieval),
		NewGenerationStage(gen, cfg.Owner, cfg.HistoryMaxTurns),
		NewPlannerStage(cfg.Planner, cfg.Owner),
		NewExecutionStage(rt),
	)
}
