package pipeline

import (
	"context"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/agent/prompts"
	logx "github.com/folio-agent/server/pkg/logger"
)

// Generator is the text-generation collaborator. The eino chat models
// satisfy it directly.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// NewGenerationStage produces the grounded answer with a single model call.
// The stage skips itself entirely when the greeting short-circuit or the
// grounding-gate fallback already set an answer. Provider failures degrade
// to a polite apology; only the error kind is logged, never shown.
func NewGenerationStage(gen Generator, owner model.OwnerConfig, historyMaxTurns int) Stage {
	return Stage{
		Name: "generate",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			if state.HasAnswer() {
				return nil
			}

			if gen == nil {
				logx.Warn().Str("session_id", state.SessionID).Msg("No generator configured, using apology answer")
				state.Stash[model.StashGenerationError] = "generator_unavailable"
				return state.SetAnswer(prompts.GenerationApology)
			}

			systemPrompt, err := prompts.RenderAnswerSystem(ctx, owner, state)
			if err != nil {
				// A broken template is a programming error, not a provider
				// hiccup.
				return err
			}

			messages := make([]*schema.Message, 0, historyMaxTurns+2)
			messages = append(messages, schema.SystemMessage(systemPrompt))
			messages = append(messages, historyTail(state.History, historyMaxTurns)...)
			messages = append(messages, schema.UserMessage(state.Query))

			out, genErr := gen.Generate(ctx, messages)
			if genErr != nil {
				logx.Error().Err(genErr).
					Str("session_id", state.SessionID).
					Msg("Generation failed, using apology answer")
				state.Stash[model.StashGenerationError] = errKind(genErr)
				return state.SetAnswer(prompts.GenerationApology)
			}
			if out == nil || strings.TrimSpace(out.Content) == "" {
				logx.Warn().Str("session_id", state.SessionID).Msg("Generation returned empty content")
				state.Stash[model.StashGenerationError] = "empty_completion"
				return state.SetAnswer(prompts.GenerationApology)
			}

			return state.SetAnswer(strings.TrimSpace(out.Content))
		},
	}
}

// historyTail returns the last maxTurns messages; the full transcript stays
// in session storage.
func historyTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}

// errKind buckets a provider error for observability without leaking detail
// into the answer.
func errKind(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate") || strings.Contains(msg, "429"):
		return "rate_limited"
	case strings.Contains(msg, "deadline") || strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "canceled") || strings.Contains(msg, "cancelled"):
		return "cancelled"
	default:
		return "provider_error"
	}
}
